// Package cryptox holds the password hashing used by the dev API.
package cryptox

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/dmitrijs2005/homefinder/internal/common"
)

const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	saltLen      = 16
)

var ErrMalformedHash = errors.New("malformed password hash")

// DeriveKey stretches password with salt using Argon2id.
func DeriveKey(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

// HashPassword returns an encoded Argon2id hash of password with a fresh
// random salt, in the form "argon2id$<salt>$<key>" (raw base64).
func HashPassword(password []byte) string {
	salt := common.GenerateRandByteArray(saltLen)
	key := DeriveKey(password, salt)

	enc := base64.RawStdEncoding
	return "argon2id$" + enc.EncodeToString(salt) + "$" + enc.EncodeToString(key)
}

// VerifyPassword reports whether password matches encoded, comparing in
// constant time.
func VerifyPassword(password []byte, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 3 || parts[0] != "argon2id" {
		return false, ErrMalformedHash
	}

	enc := base64.RawStdEncoding
	salt, err := enc.DecodeString(parts[1])
	if err != nil {
		return false, fmt.Errorf("%w: salt: %w", ErrMalformedHash, err)
	}
	want, err := enc.DecodeString(parts[2])
	if err != nil {
		return false, fmt.Errorf("%w: key: %w", ErrMalformedHash, err)
	}

	got := DeriveKey(password, salt)
	return subtle.ConstantTimeCompare(want, got) == 1, nil
}
