package cli

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/homefinder/internal/client/models"
	"github.com/dmitrijs2005/homefinder/internal/client/router"
	"github.com/dmitrijs2005/homefinder/internal/client/session"
	"github.com/dmitrijs2005/homefinder/internal/logging"
)

func TestIsLoggedIn(t *testing.T) {
	st := &fakeState{}
	a, _ := newTestApp(&fakeAuth{}, st)
	require.False(t, a.isLoggedIn())

	st.snap = session.Snapshot{User: &agent, IsAuthenticated: true}
	require.True(t, a.isLoggedIn())
}

func TestSetMode_ChangesAndLogsOnce(t *testing.T) {
	var buf bytes.Buffer
	a, _ := newTestApp(&fakeAuth{}, &fakeState{})
	a.logger = logging.NewText(&buf, slog.LevelDebug)
	ctx := context.Background()

	a.setMode(ctx, ModeOnline)
	require.Equal(t, ModeOnline, a.Mode())
	require.Contains(t, buf.String(), "mode=online")

	buf.Reset()
	a.setMode(ctx, ModeOnline)
	require.Empty(t, buf.String(), "no log when mode does not change")

	a.setMode(ctx, ModeOffline)
	require.Equal(t, ModeOffline, a.Mode())
	require.Contains(t, buf.String(), "mode=offline")
}

func TestCheckOnline(t *testing.T) {
	f := &fakeAuth{}
	a, _ := newTestApp(f, &fakeState{})

	a.checkOnline(context.Background())
	require.Equal(t, ModeOnline, a.Mode())

	f.pingErr = errors.New("down")
	a.checkOnline(context.Background())
	require.Equal(t, ModeOffline, a.Mode())
}

func TestStartOnlineStatusWatcher_StopsOnCancel(t *testing.T) {
	a, _ := newTestApp(&fakeAuth{}, &fakeState{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		a.StartOnlineStatusWatcher(ctx, 10*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return a.Mode() == ModeOnline }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}

func signToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	return tok
}

func TestGetStatus(t *testing.T) {
	st := &fakeState{}
	a, _ := newTestApp(&fakeAuth{}, st)

	require.Equal(t, "", a.getStatus())

	st.snap = session.Snapshot{Loading: true}
	a.setMode(context.Background(), ModeOffline)
	require.Equal(t, "(restoring session, offline)", a.getStatus())

	st.snap = session.Snapshot{User: &agent, IsAuthenticated: true}
	st.token = "opaque"
	require.Equal(t, "(Anna agent, offline)", a.getStatus())

	st.token = signToken(t, time.Now().Add(2*time.Hour+30*time.Second))
	require.Equal(t, "(Anna agent, token 2h0m0s, offline)", a.getStatus())

	st.token = signToken(t, time.Now().Add(-time.Minute))
	require.Equal(t, "(Anna agent, token expired, offline)", a.getStatus())
}

func TestRoutes_RenderThroughGuard(t *testing.T) {
	silence(t)
	var out bytes.Buffer
	st := &routeSession{snap: session.Snapshot{}}
	a, _ := newTestApp(&fakeAuth{pending: "new@example.org"}, &fakeState{})
	rt := router.New(st, &out)
	a.registerRoutes(rt)
	ctx := context.Background()

	got, err := rt.Navigate(ctx, "/admin/users")
	require.NoError(t, err)
	require.Equal(t, "/login", got)
	require.Contains(t, out.String(), "You need to log in")

	out.Reset()
	_, err = rt.Navigate(ctx, "/signup")
	require.NoError(t, err)
	require.Contains(t, out.String(), "Awaiting verification of new@example.org")

	out.Reset()
	st.snap = session.Snapshot{User: &agent, IsAuthenticated: true}
	got, err = rt.Navigate(ctx, "/admin")
	require.NoError(t, err)
	require.Equal(t, "/agent", got)
	require.Contains(t, out.String(), "Agent dashboard")
	require.Contains(t, out.String(), "Agency: Nest")

	out.Reset()
	_, err = rt.Navigate(ctx, "/profile")
	require.NoError(t, err)
	require.Contains(t, out.String(), "anna@example.org")
	require.Contains(t, out.String(), "Agency:")

	out.Reset()
	user := models.User{ID: "u-1", Name: "Una", Role: models.RoleUser}
	st.snap = session.Snapshot{User: &user, IsAuthenticated: true}
	got, err = rt.Navigate(ctx, "/agent")
	require.NoError(t, err)
	require.Equal(t, "/dashboard", got)
	require.True(t, strings.Contains(out.String(), "Welcome, Una"))
}

type routeSession struct {
	snap session.Snapshot
}

func (r *routeSession) Snapshot() session.Snapshot { return r.snap }
func (r *routeSession) Ready() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (r *routeSession) Subscribe(func(session.Snapshot)) func() { return func() {} }
