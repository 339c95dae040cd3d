// Package metadata is the client's persisted key/value store. It backs the
// session: the signed-in user record and the access token live here between
// runs.
package metadata

import (
	"context"
)

// Repository is a key/value table. Get returns (nil, nil) for a missing key;
// Delete of a missing key is not an error.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
