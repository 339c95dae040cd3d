// Package devapi runs a local implementation of the HomeFinder auth API,
// enough to drive the CLI end to end without the production backend.
// Accounts live in memory and verification codes are written to the log.
package devapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/homefinder/internal/devapi/config"
	"github.com/dmitrijs2005/homefinder/internal/devapi/httpapi"
	"github.com/dmitrijs2005/homefinder/internal/devapi/users"
	"github.com/dmitrijs2005/homefinder/internal/logging"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config      *config.Config
	logger      logging.Logger
	userService *users.Service
	server      *http.Server
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	us := users.NewService(users.NewMemoryRepository(), c, logger)
	if err := us.SeedAdmin(ctx, c.AdminEmail, c.AdminPassword); err != nil {
		return nil, err
	}

	srv := &http.Server{
		Addr:              c.EndpointAddr,
		Handler:           httpapi.NewRouter(us, c.AllowedOrigins, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{config: c, logger: logger, userService: us, server: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves HTTP until ctx is done or a termination signal arrives, then
// shuts the server down gracefully.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)

	listen, err := net.Listen("tcp", app.config.EndpointAddr)
	if err != nil {
		return err
	}
	return app.serve(ctx, listen)
}

func (app *App) serve(ctx context.Context, listen net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())
		errCh <- app.server.Serve(listen)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "Stopping HTTP server...")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.server.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
