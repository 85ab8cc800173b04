package boot

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"marketplace-gateway/internal/platform/admin"
	"marketplace-gateway/internal/platform/config"
	"marketplace-gateway/internal/platform/health"
	"marketplace-gateway/internal/platform/logging"
	"marketplace-gateway/internal/platform/otel"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Main represents the primary HTTP server for the service.
type Main struct {
	Serve    func() error
	Shutdown func(context.Context) error
}

// Deps are the shared platform dependencies handed to the service builder.
type Deps struct {
	Log       *zap.Logger
	Metrics   http.Handler
	ReadyRoot *health.Node
	Serving   *atomic.Bool
}

// Options configures the platform boot.
type Options struct {
	ServiceName string

	// AdminAddrEnv is the env var for the admin listener (defaults to
	// <SERVICE>_ADMIN_ADDR). AdminAddrFallback is used when the env var is
	// empty (defaults to :8081).
	AdminAddrEnv      string
	AdminAddrFallback string

	// OTELExtraAttrs are added to both tracing + metrics resources.
	OTELExtraAttrs []attribute.KeyValue

	// ShutdownTimeout bounds graceful shutdown, including best-effort
	// teardown of optional dependencies like the revocation store.
	ShutdownTimeout time.Duration
}

// Run boots the common platform pieces (logger, OTEL, metrics, admin server,
// readiness root), then runs the service's main server and blocks until it
// exits or a shutdown signal arrives.
func Run(ctx context.Context, opts Options, build func(ctx context.Context, deps Deps) (Main, error)) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.ServiceName == "" {
		return errors.New("boot: ServiceName is required")
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}

	log, err := logging.New(opts.ServiceName)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	// Root context is canceled on SIGINT/SIGTERM or when the main server errors.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigc := make(chan os.Signal, 2)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigc)

	shutdownTrace, err := otel.Init(runCtx, opts.ServiceName, opts.OTELExtraAttrs...)
	if err != nil {
		return err
	}
	metricsH, shutdownMetrics, err := otel.InitMetricsPrometheus(runCtx, opts.ServiceName, opts.OTELExtraAttrs...)
	if err != nil {
		_ = shutdownTrace(context.Background())
		return err
	}

	ready := health.NewReadyGraph()
	ready.Add("otel", health.CheckAlwaysReady())
	ready.Add("metrics", health.CheckAlwaysReady())

	var serving atomic.Bool
	serving.Store(true)

	deps := Deps{
		Log:       log,
		Metrics:   metricsH,
		ReadyRoot: ready,
		Serving:   &serving,
	}

	adminEnv := opts.AdminAddrEnv
	if adminEnv == "" {
		adminEnv = upperServiceEnvPrefix(opts.ServiceName) + "_ADMIN_ADDR"
	}
	adminFallback := opts.AdminAddrFallback
	if adminFallback == "" {
		adminFallback = ":8081"
	}

	adminSrv, err := admin.Start(log, admin.Options{
		Addr:        config.Getenv(adminEnv, adminFallback),
		ServiceName: opts.ServiceName,
		Metrics:     metricsH,
		ReadyRoot:   ready,
		ServingFn:   serving.Load,
	})
	if err != nil {
		_ = shutdownMetrics(context.Background())
		_ = shutdownTrace(context.Background())
		return err
	}

	main, err := build(runCtx, deps)
	if err != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), opts.ShutdownTimeout)
		defer shutdownCancel()
		_ = adminSrv.Shutdown(shutdownCtx)
		_ = shutdownMetrics(shutdownCtx)
		_ = shutdownTrace(shutdownCtx)
		return err
	}
	if main.Serve == nil || main.Shutdown == nil {
		return errors.New("boot: Main.Serve and Main.Shutdown are required")
	}

	errCh := make(chan error, 1)
	go func() { errCh <- main.Serve() }()

	select {
	case <-runCtx.Done():
		// parent canceled
	case sig := <-sigc:
		log.Info("shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		if err != nil {
			log.Error("main server exited", zap.Error(err))
		}
		cancel()
	}

	// Stop advertising readiness before shutdown.
	serving.Store(false)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), opts.ShutdownTimeout)
	defer shutdownCancel()

	var errs []error
	if err := main.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	if err := adminSrv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	if err := shutdownMetrics(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	if err := shutdownTrace(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// upperServiceEnvPrefix maps "gateway" -> "GATEWAY" (uppercase, '-' to '_').
func upperServiceEnvPrefix(service string) string {
	b := make([]byte, 0, len(service))
	for i := 0; i < len(service); i++ {
		c := service[i]
		switch {
		case c >= 'a' && c <= 'z':
			b = append(b, c-('a'-'A'))
		case c == '-' || c == ' ':
			b = append(b, '_')
		default:
			b = append(b, c)
		}
	}
	return string(b)
}
