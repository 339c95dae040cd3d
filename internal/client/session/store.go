// Package session owns the signed-in identity of the client.
//
// Store is the single writer of the persisted session (the "user" and
// "accessToken" keys of the metadata table) and the single source of truth
// for who is logged in. It is constructed once at program start, restored
// from disk with Restore, and injected into every component that reads or
// changes the session.
//
// Lifecycle:
//
//	NewStore        -> {Loading: true}
//	Restore         -> {Loading: false, User: <server record>} or {Loading: false}
//	Login           -> authenticated
//	Logout          -> unauthenticated, always
//	UpdateUser      -> user replaced, authentication unchanged
//
// Loading is true only between NewStore and the end of the first Restore.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/homefinder/internal/client/models"
	"github.com/dmitrijs2005/homefinder/internal/client/notify"
	"github.com/dmitrijs2005/homefinder/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/homefinder/internal/common"
	"github.com/dmitrijs2005/homefinder/internal/logging"
)

// DefaultLogoutTimeout bounds the logout notification sent to the server.
const DefaultLogoutTimeout = 5 * time.Second

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrEmptyCredentials = errors.New("user id and token are required")

	errNoCredentials = errors.New("no stored credentials")
)

// Persistence is the durable key/value store behind the session. Get
// returns (nil, nil) for a missing key; writes made inside Update are
// applied atomically.
type Persistence interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Update(ctx context.Context, fn func(ctx context.Context, r metadata.Repository) error) error
}

// Backend is the part of the marketplace API the session depends on.
type Backend interface {
	Profile(ctx context.Context, token string) (*models.User, error)
	Logout(ctx context.Context, token string) error
}

// Snapshot is a consistent copy of the session state.
type Snapshot struct {
	User            *models.User
	IsAuthenticated bool
	Loading         bool
}

// Role returns the signed-in user's role, or "" when there is none.
func (s Snapshot) Role() models.Role {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}

type Store struct {
	persist  Persistence
	backend  Backend
	notifier notify.Notifier
	logger   logging.Logger

	logoutTimeout time.Duration

	// opMu serializes mutations so that persisted and in-memory state
	// change together.
	opMu sync.Mutex

	mu            sync.RWMutex
	user          *models.User
	token         string
	authenticated bool
	loading       bool
	generation    uint64

	restoreOnce sync.Once
	ready       chan struct{}

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

type Option func(*Store)

func WithLogger(l logging.Logger) Option {
	return func(s *Store) { s.logger = l }
}

func WithNotifier(n notify.Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

// WithLogoutTimeout bounds the server notification made by Logout.
// Non-positive values keep DefaultLogoutTimeout.
func WithLogoutTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.logoutTimeout = d
		}
	}
}

// NewStore returns a Store in the loading state. Call Restore once to leave
// it.
func NewStore(p Persistence, b Backend, opts ...Option) *Store {
	s := &Store{
		persist:       p,
		backend:       b,
		notifier:      notify.Discard,
		logger:        logging.Nop(),
		logoutTimeout: DefaultLogoutTimeout,
		loading:       true,
		ready:         make(chan struct{}),
		subs:          make(map[int]func(Snapshot)),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Snapshot returns the current {User, IsAuthenticated, Loading} triple.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{IsAuthenticated: s.authenticated, Loading: s.loading}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

// Token returns the current access token, "" when unauthenticated.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Ready is closed once the first Restore has finished.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// Subscribe registers fn to receive a snapshot after every state change.
// fn runs on the goroutine that made the change and must not block. The
// returned func removes the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) publish() {
	snap := s.Snapshot()

	s.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// Restore re-establishes the session from persisted credentials, validating
// the stored token against the server. The server's user record replaces
// the stored one. Any failure leaves the store unauthenticated with the
// persisted credentials removed. Restore never fails; only the first call
// has an effect.
func (s *Store) Restore(ctx context.Context) {
	s.restoreOnce.Do(func() { s.restore(ctx) })
}

func (s *Store) restore(ctx context.Context) {
	ctx = logging.WithAttrs(ctx, "op", "session.restore")

	s.mu.RLock()
	startGen := s.generation
	s.mu.RUnlock()

	var (
		user  *models.User
		token string
		err   error
	)

	defer func() {
		if p := recover(); p != nil {
			s.logger.Error(ctx, "session restore panicked", "panic", p)
			user, token, err = nil, "", fmt.Errorf("panic: %v", p)
		}
		s.finishRestore(ctx, startGen, user, token, err)
	}()

	user, token, err = s.validateStored(ctx)
}

func (s *Store) finishRestore(ctx context.Context, startGen uint64, user *models.User, token string, err error) {
	// Loading must end and Ready must close even if persistence panics.
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error(ctx, "session restore panicked while saving", "panic", p)
		}
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()

		close(s.ready)
		s.publish()
	}()

	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.RLock()
	superseded := s.generation != startGen
	s.mu.RUnlock()

	switch {
	case superseded:
		// A Login or Logout finished while the token was being validated;
		// its state wins.
		s.logger.Debug(ctx, "restore result discarded, session changed meanwhile")
	case err != nil:
		if errors.Is(err, errNoCredentials) {
			s.logger.Debug(ctx, "no stored session")
		} else {
			s.logger.Warn(ctx, "stored session rejected", "error", err)
		}
		if cerr := s.clearPersisted(ctx); cerr != nil {
			s.logger.Error(ctx, "failed to clear stored session", "error", cerr)
		}
	default:
		if perr := s.persistUser(ctx, user); perr != nil {
			s.logger.Error(ctx, "failed to store refreshed user record", "error", perr)
		}
		s.logger.Info(ctx, "session restored", "user_id", user.ID, "role", user.Role)
	}

	s.mu.Lock()
	if !superseded {
		if err != nil {
			user, token = nil, ""
		}
		s.user = user
		s.token = token
		s.authenticated = user != nil
	}
	s.mu.Unlock()
}

func (s *Store) validateStored(ctx context.Context) (*models.User, string, error) {
	rawUser, err := s.persist.Get(ctx, common.UserKey)
	if err != nil {
		return nil, "", fmt.Errorf("read stored user: %w", err)
	}
	rawToken, err := s.persist.Get(ctx, common.AccessTokenKey)
	if err != nil {
		return nil, "", fmt.Errorf("read stored token: %w", err)
	}
	if len(rawUser) == 0 || len(rawToken) == 0 {
		return nil, "", errNoCredentials
	}

	var stored models.User
	if err := json.Unmarshal(rawUser, &stored); err != nil {
		return nil, "", fmt.Errorf("decode stored user: %w", err)
	}

	token := string(rawToken)
	fresh, err := s.backend.Profile(ctx, token)
	if err != nil {
		return nil, "", fmt.Errorf("validate token: %w", err)
	}
	if fresh == nil || fresh.ID == "" {
		return nil, "", errors.New("validate token: empty profile")
	}
	return fresh, token, nil
}

// Login stores user and token as the current session. The caller has
// already exchanged credentials with the server. The persisted copy is
// written first; if that fails the error is returned and the session is left
// as it was.
func (s *Store) Login(ctx context.Context, user models.User, token string) error {
	if user.ID == "" || token == "" {
		return ErrEmptyCredentials
	}
	ctx = logging.WithAttrs(ctx, "op", "session.login")

	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	s.opMu.Lock()
	err = s.persist.Update(ctx, func(ctx context.Context, r metadata.Repository) error {
		if err := r.Set(ctx, common.UserKey, raw); err != nil {
			return err
		}
		return r.Set(ctx, common.AccessTokenKey, []byte(token))
	})
	if err != nil {
		s.opMu.Unlock()
		return fmt.Errorf("persist session: %w", err)
	}

	s.mu.Lock()
	s.user = &user
	s.token = token
	s.authenticated = true
	s.generation++
	s.mu.Unlock()
	s.opMu.Unlock()

	s.logger.Info(ctx, "logged in", "user_id", user.ID, "role", user.Role)
	s.publish()
	return nil
}

// Logout ends the session. The server is notified first, bounded by the
// logout timeout; a failed notification is logged and otherwise ignored.
// While the session is still loading the persisted token is the one
// revoked. Local state is then cleared unconditionally and success is
// reported. An error is returned only when the persisted copy could not be
// removed.
func (s *Store) Logout(ctx context.Context) error {
	ctx = logging.WithAttrs(ctx, "op", "session.logout")

	token := s.Token()
	if token == "" && s.Snapshot().Loading {
		raw, err := s.persist.Get(ctx, common.AccessTokenKey)
		if err != nil {
			s.logger.Warn(ctx, "failed to read stored token", "error", err)
		}
		token = string(raw)
	}

	if token != "" {
		nctx, cancel := context.WithTimeout(ctx, s.logoutTimeout)
		err := s.backend.Logout(nctx, token)
		cancel()
		if err != nil {
			s.logger.Warn(ctx, "logout notification failed", "error", err)
		}
	}

	s.opMu.Lock()
	cerr := s.clearPersisted(ctx)

	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.authenticated = false
	s.generation++
	s.mu.Unlock()
	s.opMu.Unlock()

	s.publish()

	s.notifier.Success("Logged out successfully")

	if cerr != nil {
		s.logger.Error(ctx, "failed to clear stored session", "error", cerr)
		return fmt.Errorf("clear session: %w", cerr)
	}

	s.logger.Info(ctx, "logged out")
	return nil
}

// UpdateUser replaces the signed-in user record, typically with the
// canonical copy returned by a profile edit. The token and authentication
// status are untouched.
func (s *Store) UpdateUser(ctx context.Context, user models.User) error {
	ctx = logging.WithAttrs(ctx, "op", "session.update_user")

	s.opMu.Lock()

	s.mu.RLock()
	authenticated := s.authenticated
	s.mu.RUnlock()
	if !authenticated {
		s.opMu.Unlock()
		return ErrNotAuthenticated
	}

	if err := s.persistUser(ctx, &user); err != nil {
		s.opMu.Unlock()
		return err
	}

	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()
	s.opMu.Unlock()

	s.logger.Debug(ctx, "user record updated", "user_id", user.ID)
	s.publish()
	return nil
}

func (s *Store) persistUser(ctx context.Context, user *models.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	err = s.persist.Update(ctx, func(ctx context.Context, r metadata.Repository) error {
		return r.Set(ctx, common.UserKey, raw)
	})
	if err != nil {
		return fmt.Errorf("persist user: %w", err)
	}
	return nil
}

func (s *Store) clearPersisted(ctx context.Context) error {
	return s.persist.Update(ctx, func(ctx context.Context, r metadata.Repository) error {
		if err := r.Delete(ctx, common.UserKey); err != nil {
			return err
		}
		return r.Delete(ctx, common.AccessTokenKey)
	})
}
