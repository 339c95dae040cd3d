package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/homefinder/internal/client/api"
	"github.com/dmitrijs2005/homefinder/internal/client/config"
	"github.com/dmitrijs2005/homefinder/internal/client/notify"
	"github.com/dmitrijs2005/homefinder/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/homefinder/internal/client/router"
	"github.com/dmitrijs2005/homefinder/internal/client/services"
	"github.com/dmitrijs2005/homefinder/internal/client/session"
	"github.com/dmitrijs2005/homefinder/internal/client/storage"
	"github.com/dmitrijs2005/homefinder/internal/filex"
	"github.com/dmitrijs2005/homefinder/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// pingTimeout bounds a single connectivity probe.
const pingTimeout = 3 * time.Second

// sessionState is the read side of session.Store used by commands.
type sessionState interface {
	Snapshot() session.Snapshot
	Token() string
}

type navigator interface {
	Navigate(ctx context.Context, path string) (string, error)
	Current() string
}

type App struct {
	config      *config.Config
	logger      logging.Logger
	authService services.AuthService
	session     sessionState
	nav         navigator
	reader      *bufio.Reader
	out         io.Writer

	// set by NewApp, used by Run
	db    *sql.DB
	store *session.Store
	rt    *router.Router

	modeMu sync.Mutex
	mode   Mode
}

// NewApp wires local storage, the API client, the session store, the auth
// service and the router. The session is not restored yet; Run does that.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	dir, err := filex.EnsureDir(c.DataDir)
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	db, err := storage.InitDatabase(ctx, filepath.Join(dir, c.DatabaseFile))
	if err != nil {
		logger.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	apiClient := api.New(c.APIBaseURL, c.RequestTimeout, logger)
	notifier := notify.NewTerminal(os.Stdout)

	store := session.NewStore(metadata.NewStore(db), apiClient,
		session.WithLogger(logger),
		session.WithNotifier(notifier),
		session.WithLogoutTimeout(c.LogoutTimeout),
	)
	as := services.NewAuthService(apiClient, store, notifier, logger)
	rt := router.New(store, os.Stdout, router.WithLogger(logger))

	a := &App{
		config:      c,
		logger:      logger,
		authService: as,
		session:     store,
		nav:         rt,
		reader:      bufio.NewReader(os.Stdin),
		out:         os.Stdout,
		db:          db,
		store:       store,
		rt:          rt,
	}
	a.registerRoutes(rt)
	return a, nil
}

// Run restores the saved session in the background and serves the REPL
// until the user exits or ctx is done.
func (a *App) Run(ctx context.Context) error {
	defer a.db.Close()

	go a.store.Restore(ctx)
	stop := a.rt.Watch(ctx)
	defer stop()

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	printlnFn("Welcome to HomeFinder CLI (type 'help' for commands)")
	_ = a.Open(ctx, "/")

	runREPL(ctx, a, a.getStatus, a.reader)
	return nil
}

func (a *App) setMode(ctx context.Context, mode Mode) {
	a.modeMu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.modeMu.Unlock()

	if changed {
		a.logger.Info(ctx, "connectivity changed", "mode", string(mode))
	}
}

func (a *App) Mode() Mode {
	a.modeMu.Lock()
	defer a.modeMu.Unlock()
	return a.mode
}

func (a *App) isLoggedIn() bool {
	return a.session.Snapshot().IsAuthenticated
}

// StartOnlineStatusWatcher probes the API every interval and records the
// result as the connectivity mode shown in the prompt.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	a.checkOnline(ctx)
	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	err := a.authService.Ping(pctx)
	cancel()

	if err != nil {
		a.setMode(ctx, ModeOffline)
		return
	}
	a.setMode(ctx, ModeOnline)
}

// getStatus renders the prompt status: who is signed in, connectivity, and
// how long the access token has left.
func (a *App) getStatus() string {
	snap := a.session.Snapshot()

	var parts []string
	switch {
	case snap.Loading:
		parts = append(parts, "restoring session")
	case snap.User != nil:
		parts = append(parts, fmt.Sprintf("%s %s", displayName(snap), snap.Role()))
		if exp, ok := api.TokenExpiry(a.session.Token()); ok {
			left := time.Until(exp).Truncate(time.Minute)
			if left > 0 {
				parts = append(parts, "token "+left.String())
			} else {
				parts = append(parts, "token expired")
			}
		}
	}
	if m := a.Mode(); m != "" {
		parts = append(parts, string(m))
	}

	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func displayName(snap session.Snapshot) string {
	if snap.User == nil {
		return ""
	}
	if snap.User.Name != "" {
		return snap.User.Name
	}
	return snap.User.Email
}
