package httpmw

import (
	"net/http"
	"time"

	"marketplace-gateway/internal/platform/authctx"
	"marketplace-gateway/internal/platform/logging"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Wrap adds OpenTelemetry spans + structured access logging.
//
// Every request is stamped with method, path, status, duration, and the
// resolved user id ("anonymous" for public routes or failed auth). The user id
// is observed through an authctx carrier injected here and filled in by
// AuthBearer further down the pipeline.
func Wrap(service string, log *zap.Logger, next http.Handler) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}

	accessLog := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		r = r.WithContext(authctx.Inject(r.Context()))
		sw := &respWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		user := "anonymous"
		if uid, ok := authctx.UserID(r.Context()); ok {
			user = uid
		}

		lg := logging.WithTrace(r.Context(), log).With(
			zap.String("http.method", r.Method),
			zap.String("http.path", r.URL.Path),
			zap.Int("http.status", sw.status),
			zap.Duration("duration", time.Since(start)),
			zap.String("user", user),
		)

		if rid := r.Header.Get("x-request-id"); rid != "" {
			lg = lg.With(zap.String("request_id", rid))
		}
		if r.RemoteAddr != "" {
			lg = lg.With(zap.String("client.addr", r.RemoteAddr))
		}

		lg.Info("http")
	})

	// IMPORTANT: wrap the accessLog handler with otelhttp so Context() has an active span.
	return otelhttp.NewHandler(accessLog, service)
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush keeps streamed proxy responses flowing through the wrapper.
func (w *respWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
