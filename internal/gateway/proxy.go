package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"marketplace-gateway/internal/platform/authctx"
	"marketplace-gateway/internal/platform/metrics"
	"marketplace-gateway/internal/platform/respond"

	"go.uber.org/zap"
)

// Headers that are meaningful only on the inbound connection and must not be
// relayed (RFC 9110 hop-by-hop semantics).
var hopHeaders = map[string]struct{}{
	"Connection":          {},
	"Proxy-Connection":    {},
	"Keep-Alive":          {},
	"Proxy-Authenticate":  {},
	"Proxy-Authorization": {},
	"Te":                  {},
	"Trailer":             {},
	"Transfer-Encoding":   {},
	"Upgrade":             {},
}

type parsedBodyKey struct{}

// WithParsedBody marks the request body as already consumed by an earlier
// pipeline stage. The forwarder then re-serializes v to JSON instead of
// reading the spent inbound stream. Streaming passthrough stays the default;
// this path exists only for stages that had to parse the body themselves.
func WithParsedBody(ctx context.Context, v any) context.Context {
	return context.WithValue(ctx, parsedBodyKey{}, v)
}

func parsedBody(ctx context.Context) (any, bool) {
	v := ctx.Value(parsedBodyKey{})
	return v, v != nil
}

// Forwarder relays inbound requests to resolved upstreams: one attempt per
// request, no retries, no response buffering on the streaming path.
type Forwarder struct {
	client *http.Client
	log    *zap.Logger
	pm     *metrics.ProxyMetrics
}

func NewForwarder(log *zap.Logger, pm *metrics.ProxyMetrics) *Forwarder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Forwarder{
		// No client timeout: the inbound request context cancels the upstream
		// hop when the caller disconnects. Redirects are relayed, not chased.
		client: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		log: log,
		pm:  pm,
	}
}

// Forward sends the inbound request to rt's upstream with the routing prefix
// stripped, then relays the upstream response to the client unchanged.
// An unreachable upstream becomes a 503 envelope naming the backend; no fault
// from this hop ever reaches the client raw.
func (f *Forwarder) Forward(w http.ResponseWriter, r *http.Request, rt Route, strippedPath string) {
	out, err := f.newUpstreamRequest(r, rt, strippedPath)
	if err != nil {
		f.log.Error("build upstream request",
			zap.String("upstream", rt.Name),
			zap.Error(err),
		)
		respond.Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	start := time.Now()
	resp, err := f.client.Do(out)
	if err != nil {
		f.pm.RecordUnavailable(r.Context(), rt.Name)
		f.log.Warn("upstream unreachable",
			zap.String("upstream", rt.Name),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		respond.Error(w, http.StatusServiceUnavailable, rt.Name+" unavailable")
		return
	}
	defer resp.Body.Close()

	f.pm.RecordUpstream(r.Context(), rt.Name, resp.StatusCode, time.Since(start))

	copyHeaders(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		// Status and headers are already on the wire; nothing left but to log.
		f.log.Warn("relay response body",
			zap.String("upstream", rt.Name),
			zap.Error(err),
		)
		return
	}

	f.log.Info("proxied",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.String("upstream", rt.Name),
	)
}

// newUpstreamRequest builds the outbound request, choosing explicitly between
// the streaming passthrough (default) and buffer-and-reserialize (only when
// an earlier stage already consumed the body).
func (f *Forwarder) newUpstreamRequest(r *http.Request, rt Route, strippedPath string) (*http.Request, error) {
	target := *rt.Upstream
	target.Path, target.RawPath = joinPaths(rt.Upstream, strippedPath, stripRawPath(r.URL, rt.Prefix, strippedPath))
	target.RawQuery = r.URL.RawQuery

	var out *http.Request
	if v, ok := parsedBody(r.Context()); ok {
		buf, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("reserialize body: %w", err)
		}
		out, err = http.NewRequestWithContext(r.Context(), r.Method, target.String(), bytes.NewReader(buf))
		if err != nil {
			return nil, err
		}
		copyHeaders(out.Header, r.Header)
		if out.Header.Get("Content-Type") == "" {
			out.Header.Set("Content-Type", "application/json")
		}
		out.Header.Set("Content-Length", strconv.Itoa(len(buf)))
		out.ContentLength = int64(len(buf))
	} else {
		var err error
		out, err = http.NewRequestWithContext(r.Context(), r.Method, target.String(), r.Body)
		if err != nil {
			return nil, err
		}
		copyHeaders(out.Header, r.Header)
		out.ContentLength = r.ContentLength
	}

	// Identity headers are trusted only when set from verified claims; any
	// client-supplied values must not survive to the upstream.
	out.Header.Del("X-User-Id")
	out.Header.Del("X-User-Email")
	if claims, ok := authctx.FromContext(r.Context()); ok {
		out.Header.Set("x-user-id", claims.UserID)
		out.Header.Set("x-user-email", claims.Email)
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		if prior := r.Header.Get("X-Forwarded-For"); prior != "" {
			host = prior + ", " + host
		}
		out.Header.Set("X-Forwarded-For", host)
	}

	return out, nil
}

func copyHeaders(dst, src http.Header) {
	for k, vv := range src {
		if _, hop := hopHeaders[http.CanonicalHeaderKey(k)]; hop {
			continue
		}
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}

// stripRawPath strips the routing prefix from the escaped form of the inbound
// path, so percent-encoded segments (e.g. %2F) reach the upstream exactly as
// the client sent them instead of being decoded and re-encoded.
func stripRawPath(u *url.URL, prefix, stripped string) string {
	if u.RawPath == "" {
		return stripped
	}
	raw := u.EscapedPath()
	if !strings.HasPrefix(raw, prefix) {
		return stripped
	}
	rest := raw[len(prefix):]
	if rest == "" {
		rest = "/"
	}
	return rest
}

// joinPaths joins the upstream base path with the stripped path, keeping the
// escaped and decoded forms consistent. RawPath stays empty when the decoded
// form is its own encoding.
func joinPaths(upstream *url.URL, stripped, strippedRaw string) (path, rawpath string) {
	p := singleJoiningSlash(upstream.Path, stripped)
	if upstream.RawPath == "" && strippedRaw == stripped {
		return p, ""
	}
	apath := upstream.EscapedPath()
	aslash := strings.HasSuffix(apath, "/")
	bslash := strings.HasPrefix(strippedRaw, "/")
	switch {
	case aslash && bslash:
		return p, apath + strippedRaw[1:]
	case !aslash && !bslash:
		return p, apath + "/" + strippedRaw
	}
	return p, apath + strippedRaw
}

func singleJoiningSlash(a, b string) string {
	aslash := strings.HasSuffix(a, "/")
	bslash := strings.HasPrefix(b, "/")
	switch {
	case aslash && bslash:
		return a + b[1:]
	case !aslash && !bslash:
		return a + "/" + b
	}
	return a + b
}
