package gateway

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"marketplace-gateway/internal/platform/config"
)

// Route is one immutable entry of the routing table.
type Route struct {
	// Prefix is the leading path to match, without a trailing slash.
	Prefix string
	// Name is the backend name used in error envelopes and logs.
	Name string
	// Upstream is the backend base URL the stripped path is appended to.
	Upstream *url.URL
	// Protected marks routes reachable only with a verified bearer token.
	Protected bool
}

// Table resolves inbound paths to upstream targets. It is built once from
// configuration at startup and read-only afterwards; matching is
// longest-prefix so a more specific route always beats a shorter one.
type Table struct {
	routes []Route // sorted longest prefix first
}

// NewTable parses the configured upstream addresses into a routing table.
// Only /api/auth is public; every other backend requires authentication.
func NewTable(cfg config.Config) (*Table, error) {
	specs := []struct {
		prefix    string
		name      string
		upstream  string
		protected bool
	}{
		{"/api/auth", "Auth service", cfg.AuthServiceURL, false},
		{"/api/users", "User service", cfg.UserServiceURL, true},
		{"/api/products", "Product service", cfg.ProductServiceURL, true},
		{"/api/providers", "Provider service", cfg.ProviderServiceURL, true},
		{"/api/trust", "Trust service", cfg.TrustServiceURL, true},
		{"/api/messages", "Message service", cfg.MessageServiceURL, true},
		{"/api/notifications", "Notification service", cfg.NotificationServiceURL, true},
	}

	routes := make([]Route, 0, len(specs))
	for _, sp := range specs {
		u, err := url.Parse(sp.upstream)
		if err != nil {
			return nil, fmt.Errorf("parse %s upstream %q: %w", sp.name, sp.upstream, err)
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("%s upstream %q: scheme and host required", sp.name, sp.upstream)
		}
		routes = append(routes, Route{
			Prefix:    strings.TrimSuffix(sp.prefix, "/"),
			Name:      sp.name,
			Upstream:  u,
			Protected: sp.protected,
		})
	}
	return newTable(routes), nil
}

func newTable(routes []Route) *Table {
	sorted := make([]Route, len(routes))
	copy(sorted, routes)
	// Longest prefix first; ties broken lexicographically so resolution stays
	// deterministic regardless of registration order.
	sort.Slice(sorted, func(i, j int) bool {
		if len(sorted[i].Prefix) != len(sorted[j].Prefix) {
			return len(sorted[i].Prefix) > len(sorted[j].Prefix)
		}
		return sorted[i].Prefix < sorted[j].Prefix
	})
	return &Table{routes: sorted}
}

// Resolve returns the route matching the longest prefix that ends on a path
// segment boundary, plus the path with that prefix stripped. The upstream
// never sees the gateway's routing prefix.
func (t *Table) Resolve(path string) (Route, string, bool) {
	for _, rt := range t.routes {
		if !strings.HasPrefix(path, rt.Prefix) {
			continue
		}
		rest := path[len(rt.Prefix):]
		if rest != "" && rest[0] != '/' {
			// "/api/userside" must not match "/api/users".
			continue
		}
		if rest == "" {
			rest = "/"
		}
		return rt, rest, true
	}
	return Route{}, "", false
}

// Routes returns the table entries, longest prefix first.
func (t *Table) Routes() []Route {
	return t.routes
}
