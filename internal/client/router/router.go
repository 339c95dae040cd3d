// Package router maps view paths to pages and enforces the route guard on
// every navigation.
//
// Routes are registered with Handle using either an exact path ("/admin") or
// a prefix pattern ("/admin/*"). Navigate picks the most specific route,
// consults guard.Decide for protected ones and follows the resulting
// redirects until a page renders.
package router

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/dmitrijs2005/homefinder/internal/client/guard"
	"github.com/dmitrijs2005/homefinder/internal/client/session"
	"github.com/dmitrijs2005/homefinder/internal/logging"
)

// DefaultMaxRedirects bounds the redirect chain of a single navigation.
const DefaultMaxRedirects = 4

var (
	ErrNotFound         = errors.New("no such view")
	ErrTooManyRedirects = errors.New("too many redirects")
)

// Page renders a view for the given session snapshot.
type Page func(ctx context.Context, w io.Writer, snap session.Snapshot) error

// Session is the read side of session.Store the router depends on.
type Session interface {
	Snapshot() session.Snapshot
	Ready() <-chan struct{}
	Subscribe(fn func(session.Snapshot)) (unsubscribe func())
}

type Handler struct {
	page      Page
	protected bool
	required  guard.RoleSet
}

// Public wraps a page that anyone may see.
func Public(p Page) Handler {
	return Handler{page: p}
}

// ProtectedRoute wraps a page that requires a signed-in user whose role is
// in required. An empty required set admits every role.
func ProtectedRoute(required guard.RoleSet, p Page) Handler {
	return Handler{page: p, protected: true, required: required}
}

type route struct {
	pattern string
	prefix  bool
	handler Handler
}

func (rt route) match(p string) bool {
	if !rt.prefix {
		return p == rt.pattern
	}
	return p == rt.pattern || strings.HasPrefix(p, rt.pattern+"/")
}

type Router struct {
	session      Session
	out          io.Writer
	logger       logging.Logger
	maxRedirects int
	loading      func(w io.Writer)

	routesMu sync.RWMutex
	routes   []route

	mu      sync.Mutex
	current string
}

type Option func(*Router)

func WithLogger(l logging.Logger) Option {
	return func(r *Router) { r.logger = l }
}

func WithMaxRedirects(n int) Option {
	return func(r *Router) {
		if n > 0 {
			r.maxRedirects = n
		}
	}
}

// WithLoadingIndicator replaces what is printed while navigation waits for
// the session to be restored.
func WithLoadingIndicator(fn func(w io.Writer)) Option {
	return func(r *Router) { r.loading = fn }
}

func New(s Session, out io.Writer, opts ...Option) *Router {
	r := &Router{
		session:      s,
		out:          out,
		logger:       logging.Nop(),
		maxRedirects: DefaultMaxRedirects,
		loading: func(w io.Writer) {
			fmt.Fprintln(w, "Loading session...")
		},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Handle registers h for pattern. A trailing "/*" makes the pattern match
// the path itself and everything below it. Registering the same pattern
// twice replaces the earlier handler.
func (r *Router) Handle(pattern string, h Handler) {
	rt := route{pattern: pattern, handler: h}
	if p, ok := strings.CutSuffix(pattern, "/*"); ok {
		rt.pattern = clean(p)
		rt.prefix = true
	} else {
		rt.pattern = clean(pattern)
	}

	r.routesMu.Lock()
	defer r.routesMu.Unlock()

	for i := range r.routes {
		if r.routes[i].pattern == rt.pattern && r.routes[i].prefix == rt.prefix {
			r.routes[i] = rt
			return
		}
	}
	r.routes = append(r.routes, rt)
	// Exact routes first, then longer prefixes before shorter ones.
	sort.SliceStable(r.routes, func(i, j int) bool {
		a, b := r.routes[i], r.routes[j]
		if a.prefix != b.prefix {
			return !a.prefix
		}
		return len(a.pattern) > len(b.pattern)
	})
}

func (r *Router) lookup(p string) (route, bool) {
	r.routesMu.RLock()
	defer r.routesMu.RUnlock()

	for _, rt := range r.routes {
		if rt.match(p) {
			return rt, true
		}
	}
	return route{}, false
}

// Current returns the path of the last rendered view.
func (r *Router) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Navigate renders the view at target and returns the path that was
// actually rendered, which differs from target when the guard redirected.
// While the session is still loading it prints the loading indicator and
// waits for the restore to finish or ctx to be done.
func (r *Router) Navigate(ctx context.Context, target string) (string, error) {
	p := clean(target)
	redirects := 0
	waited := false

	for {
		rt, ok := r.lookup(p)
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrNotFound, p)
		}

		snap := r.session.Snapshot()
		if rt.handler.protected {
			d := guard.Decide(snap, rt.handler.required)
			switch d.Kind {
			case guard.ShowLoading:
				if !waited {
					r.loading(r.out)
					waited = true
				}
				select {
				case <-r.session.Ready():
					continue
				case <-ctx.Done():
					return "", ctx.Err()
				}
			case guard.RedirectToLogin, guard.RedirectToRoleHome:
				redirects++
				if redirects > r.maxRedirects {
					return "", fmt.Errorf("%w: %s", ErrTooManyRedirects, target)
				}
				r.logger.Debug(ctx, "navigation redirected", "from", p, "to", d.Path, "decision", d.String())
				p = clean(d.Path)
				continue
			}
		}

		r.mu.Lock()
		r.current = p
		r.mu.Unlock()

		if err := rt.handler.page(ctx, r.out, snap); err != nil {
			return p, fmt.Errorf("render %s: %w", p, err)
		}
		return p, nil
	}
}

// Watch re-checks the current view after every session change and moves
// away from it when the guard no longer allows it, e.g. to /login after a
// logout. The returned func stops watching.
func (r *Router) Watch(ctx context.Context) (stop func()) {
	return r.session.Subscribe(func(snap session.Snapshot) {
		cur := r.Current()
		if cur == "" {
			return
		}
		rt, ok := r.lookup(cur)
		if !ok || !rt.handler.protected {
			return
		}

		d := guard.Decide(snap, rt.handler.required)
		if d.Kind != guard.RedirectToLogin && d.Kind != guard.RedirectToRoleHome {
			return
		}
		if _, err := r.Navigate(ctx, d.Path); err != nil {
			r.logger.Warn(ctx, "failed to leave guarded view", "path", cur, "error", err)
		}
	})
}

func clean(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
