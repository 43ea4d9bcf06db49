package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/vk/wirestate/internal/ctxlog"
	"github.com/vk/wirestate/internal/socketsrv"
	"golang.org/x/sync/errgroup"
)

// shutdownTimeout bounds the graceful drain on exit.
const shutdownTimeout = 5 * time.Second

// Run serves both transports on one listener until the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	sockSrv, err := socketsrv.New(ctx, a.session, a.registry)
	if err != nil {
		return fmt.Errorf("failed to start socket.io transport: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/socket.io/", sockSrv.Handler())
	mux.Handle("/", a.httpSrv.Handler())

	httpServer := &http.Server{
		Addr:    a.config.ListenAddr,
		Handler: mux,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("🚀 Server starting", "address", fmt.Sprintf("http://localhost%s", a.config.ListenAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	if a.config.Watch {
		g.Go(func() error {
			return a.watchManifests(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("Shutting down server...")
		sockSrv.Close()
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutCtx)
	})

	err = g.Wait()
	a.logger.Debug("App.Run method finished.")
	return err
}
