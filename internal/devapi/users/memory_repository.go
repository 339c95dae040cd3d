package users

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/homefinder/internal/common"
)

// MemoryRepository keeps accounts in process memory. Emails are matched
// case-insensitively. Returned users are copies.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*User
	byEmail map[string]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]*User),
		byEmail: make(map[string]string),
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *MemoryRepository) Create(_ context.Context, user *User) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := emailKey(user.Email)
	if _, ok := r.byEmail[key]; ok {
		return nil, common.ErrorAlreadyExists
	}

	u := *user
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now().UTC()

	r.byID[u.ID] = &u
	r.byEmail[key] = u.ID

	out := u
	return &out, nil
}

func (r *MemoryRepository) GetUserByEmail(_ context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[emailKey(email)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u := *r.byID[id]
	return &u, nil
}

func (r *MemoryRepository) GetUserByID(_ context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *u
	return &out, nil
}

// Update replaces the stored account with the same ID. The email is not
// re-indexed; it cannot change.
func (r *MemoryRepository) Update(_ context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[user.ID]; !ok {
		return common.ErrorNotFound
	}
	u := *user
	r.byID[u.ID] = &u
	return nil
}
