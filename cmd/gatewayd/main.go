package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"marketplace-gateway/internal/gateway"
	"marketplace-gateway/internal/platform/boot"
	"marketplace-gateway/internal/platform/config"
	"marketplace-gateway/internal/platform/health"
	"marketplace-gateway/internal/platform/metrics"
	"marketplace-gateway/internal/revocation"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Local development convenience; absence of a .env file is fine.
	_ = godotenv.Load()

	err := boot.Run(context.Background(), boot.Options{
		ServiceName: "gateway",
	}, build)
	if err != nil {
		fmt.Fprintln(os.Stderr, "gateway:", err)
		os.Exit(1)
	}
}

func build(ctx context.Context, deps boot.Deps) (boot.Main, error) {
	cfg, err := config.Load()
	if err != nil {
		return boot.Main{}, fmt.Errorf("load config: %w", err)
	}

	httpMetrics, err := metrics.NewHTTPServerMetrics("gateway")
	if err != nil {
		return boot.Main{}, err
	}
	proxyMetrics, err := metrics.NewProxyMetrics()
	if err != nil {
		return boot.Main{}, err
	}

	// Best-effort revocation store: a connect failure is logged and swallowed,
	// and the gateway keeps serving with revocation disabled.
	var store *revocation.Store
	if st, err := revocation.Connect(ctx, cfg.RedisAddr()); err != nil {
		deps.Log.Warn("revocation store unavailable, continuing without it", zap.Error(err))
	} else {
		store = st
		deps.Log.Info("revocation store connected", zap.String("addr", cfg.RedisAddr()))
		deps.ReadyRoot.AddOptional("revocation", health.StorePing(store))
	}

	srv, err := gateway.NewServer(cfg, deps.Log, proxyMetrics)
	if err != nil {
		return boot.Main{}, err
	}

	// Upstream reachability is reported per backend but never gates readiness:
	// the gateway stays in rotation and answers 503 per request instead.
	for _, rt := range srv.Routes() {
		deps.ReadyRoot.AddOptional(rt.Name, health.HTTPPing(rt.Upstream))
	}

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(httpMetrics),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return boot.Main{
		Serve: func() error {
			deps.Log.Info("gateway listening",
				zap.String("addr", httpSrv.Addr),
				zap.Int("routes", len(srv.Routes())),
				zap.Bool("revocation", store.Available()),
			)
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		},
		Shutdown: func(ctx context.Context) error {
			var errs []error
			if err := httpSrv.Shutdown(ctx); err != nil {
				errs = append(errs, err)
			}
			if err := store.Close(); err != nil {
				errs = append(errs, err)
			}
			return errors.Join(errs...)
		},
	}, nil
}
