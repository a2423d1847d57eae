package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/hivefund/ledger/internal/auth"
	"github.com/hivefund/ledger/internal/middleware"
	"github.com/hivefund/ledger/internal/scheduler"
	"github.com/hivefund/ledger/internal/service"
	"github.com/hivefund/ledger/pkg/api/apiconnect"
)

// tokenDuration is the lifetime of tokens minted by the token command.
const tokenDuration = 24 * time.Hour

func newServeCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the ledger RPC API and run the pool expiry sweeper",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			return a.serve(ctx)
		},
	}
}

// serve runs the HTTP server and the sweeper until ctx is done, then shuts
// both down.
func (a *app) serve(ctx context.Context) error {
	sweeper, err := scheduler.NewSweeper(a.engine, a.cfg.Scheduler.ExpiryInterval)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           h2c.NewHandler(loggingMiddleware(corsMiddleware(a.routes())), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Connect server starting", "address", server.Addr, "url", fmt.Sprintf("http://localhost%s", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return sweeper.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down", "timeout", a.cfg.Server.ShutdownTimeout)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("Server stopped", "error", err)
		return err
	}
	slog.Info("Server stopped")
	return nil
}

// routes registers the Connect services and the operational endpoints.
func (a *app) routes() http.Handler {
	interceptors := connect.WithInterceptors(a.interceptors()...)

	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewDonationServiceHandler(service.NewDonationService(a.recorder), interceptors))
	mux.Handle(apiconnect.NewMatchServiceHandler(service.NewMatchService(a.engine), interceptors))
	mux.Handle(apiconnect.NewLeaderboardServiceHandler(service.NewLeaderboardService(a.leaderboard), interceptors))
	mux.Handle(apiconnect.NewCampaignServiceHandler(service.NewCampaignService(a.campaigns), interceptors))

	mux.Handle("GET /metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{Registry: a.registry}))
	mux.HandleFunc("GET /healthz", a.healthz)
	return mux
}

// interceptors authenticates first so the logging interceptor sees the
// donor.
func (a *app) interceptors() []connect.Interceptor {
	logging := middleware.LoggingInterceptor()

	if a.cfg.Auth.JWTSecret == "" {
		slog.Warn("No JWT secret configured; all callers are guests")
		return []connect.Interceptor{logging}
	}

	jwtManager := auth.NewJWTManager(a.cfg.Auth.JWTSecret, tokenDuration)
	if a.cfg.Auth.Required {
		return []connect.Interceptor{middleware.RequireAuth(jwtManager), logging}
	}
	return []connect.Interceptor{middleware.OptionalAuth(jwtManager), logging}
}
