package router

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/homefinder/internal/client/models"
	"github.com/dmitrijs2005/homefinder/internal/client/repositories/metadata"
)

// memPersistence is a map-backed session.Persistence.
type memPersistence struct{ kv *memRepo }

func newMemPersistence() memPersistence {
	return memPersistence{kv: &memRepo{m: map[string][]byte{}}}
}

type memRepo struct {
	mu sync.Mutex
	m  map[string][]byte
}

func (p memPersistence) Get(ctx context.Context, key string) ([]byte, error) {
	return p.kv.Get(ctx, key)
}

func (p memPersistence) Update(ctx context.Context, fn func(ctx context.Context, r metadata.Repository) error) error {
	return fn(ctx, p.kv)
}

func (r *memRepo) Get(_ context.Context, key string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m[key], nil
}

func (r *memRepo) Set(_ context.Context, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[key] = value
	return nil
}

func (r *memRepo) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.m, key)
	return nil
}

type nopBackend struct{}

func (nopBackend) Profile(context.Context, string) (*models.User, error) { return nil, nil }
func (nopBackend) Logout(context.Context, string) error                  { return nil }
