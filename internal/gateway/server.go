package gateway

import (
	"net/http"
	"time"

	"marketplace-gateway/internal/platform/authjwt"
	"marketplace-gateway/internal/platform/config"
	"marketplace-gateway/internal/platform/httpmw"
	"marketplace-gateway/internal/platform/metrics"
	"marketplace-gateway/internal/platform/respond"

	"go.uber.org/zap"
)

const healthPath = "/api/health"

// Server composes token validation, route resolution and forwarding into the
// gateway's edge handler. All state is built once at startup and read-only
// during request handling.
type Server struct {
	table *Table
	fwd   *Forwarder
	auth  *authjwt.Service
	log   *zap.Logger
}

func NewServer(cfg config.Config, log *zap.Logger, pm *metrics.ProxyMetrics) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}

	table, err := NewTable(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.JWTSecret == config.DefaultJWTSecret {
		log.Warn("JWT_SECRET is the development default; set a real secret before deploying")
	}

	return &Server{
		table: table,
		fwd:   NewForwarder(log, pm),
		auth:  authjwt.New([]byte(cfg.JWTSecret)),
		log:   log,
	}, nil
}

// Handler returns the full edge handler: tracing + access logging around
// request id, panic recovery, security headers and in-flight limiting, with
// metrics as the leaf stage ahead of route dispatch.
func (s *Server) Handler(httpMetrics *metrics.HTTPServerMetrics) http.Handler {
	leaf := httpmw.Chain{}
	if httpMetrics != nil {
		leaf = leaf.Append(httpMetrics.Middleware)
	}

	return httpmw.BuildEdgeHandler(s.log, httpmw.EdgePolicy{
		ServiceName: "gateway",
		Leaf:        leaf,
	}, http.HandlerFunc(s.dispatch))
}

// Routes returns the configured routing table entries.
func (s *Server) Routes() []Route {
	return s.table.Routes()
}

// dispatch resolves the route table and runs the per-route pipeline: bearer
// auth ahead of the forwarder on protected routes, straight to the forwarder
// on public ones, 404 envelope when nothing matches.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == healthPath && r.Method == http.MethodGet {
		s.handleHealth(w, r)
		return
	}

	rt, stripped, ok := s.table.Resolve(r.URL.Path)
	if !ok {
		respond.Error(w, http.StatusNotFound, "Route not found")
		return
	}

	forward := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.fwd.Forward(w, r, rt, stripped)
	})

	if rt.Protected {
		httpmw.AuthBearer(s.auth, forward).ServeHTTP(w, r)
		return
	}
	forward.ServeHTTP(w, r)
}

// handleHealth is answered by the gateway itself, never proxied, so it keeps
// returning 200 when every backend is down.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"service":   "gateway",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
