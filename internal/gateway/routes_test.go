package gateway

import (
	"net/url"
	"testing"

	"marketplace-gateway/internal/platform/config"
)

func testConfig() config.Config {
	return config.Config{
		Port:                   "3000",
		JWTSecret:              "test-secret",
		AuthServiceURL:         "http://localhost:3001",
		UserServiceURL:         "http://localhost:3002",
		ProductServiceURL:      "http://localhost:3003",
		ProviderServiceURL:     "http://localhost:3004",
		TrustServiceURL:        "http://localhost:3005",
		MessageServiceURL:      "http://localhost:3006",
		NotificationServiceURL: "http://localhost:3007",
	}
}

func TestNewTableResolveAndStrip(t *testing.T) {
	table, err := NewTable(testConfig())
	if err != nil {
		t.Fatalf("NewTable err=%v", err)
	}

	tests := []struct {
		path      string
		wantName  string
		wantRest  string
		protected bool
	}{
		{"/api/auth/login", "Auth service", "/login", false},
		{"/api/users/me", "User service", "/me", true},
		{"/api/users", "User service", "/", true},
		{"/api/products/123/reviews", "Product service", "/123/reviews", true},
		{"/api/providers/abc", "Provider service", "/abc", true},
		{"/api/trust/scores", "Trust service", "/scores", true},
		{"/api/messages/42", "Message service", "/42", true},
		{"/api/notifications", "Notification service", "/", true},
	}
	for _, tc := range tests {
		rt, rest, ok := table.Resolve(tc.path)
		if !ok {
			t.Fatalf("Resolve(%q): no match", tc.path)
		}
		if rt.Name != tc.wantName {
			t.Fatalf("Resolve(%q): name=%q, want %q", tc.path, rt.Name, tc.wantName)
		}
		if rest != tc.wantRest {
			t.Fatalf("Resolve(%q): rest=%q, want %q", tc.path, rest, tc.wantRest)
		}
		if rt.Protected != tc.protected {
			t.Fatalf("Resolve(%q): protected=%v", tc.path, rt.Protected)
		}
	}
}

func TestResolveNoMatch(t *testing.T) {
	table, err := NewTable(testConfig())
	if err != nil {
		t.Fatalf("NewTable err=%v", err)
	}

	for _, path := range []string{"/", "/api", "/api/", "/api/does-not-exist", "/api/userside", "/apix/users"} {
		if rt, _, ok := table.Resolve(path); ok {
			t.Fatalf("Resolve(%q): unexpected match %q", path, rt.Name)
		}
	}
}

// A more specific prefix must always win over a shorter one, regardless of
// registration order.
func TestResolveLongestPrefixWins(t *testing.T) {
	trust, _ := url.Parse("http://localhost:3005")
	scores, _ := url.Parse("http://localhost:3105")

	table := newTable([]Route{
		{Prefix: "/api/trust", Name: "Trust service", Upstream: trust, Protected: true},
		{Prefix: "/api/trust/scores", Name: "Trust scores service", Upstream: scores, Protected: true},
	})

	rt, rest, ok := table.Resolve("/api/trust/scores/u1")
	if !ok {
		t.Fatalf("no match")
	}
	if rt.Name != "Trust scores service" {
		t.Fatalf("expected the longer prefix to win, got %q", rt.Name)
	}
	if rest != "/u1" {
		t.Fatalf("rest=%q", rest)
	}

	rt, rest, ok = table.Resolve("/api/trust/other")
	if !ok || rt.Name != "Trust service" || rest != "/other" {
		t.Fatalf("short prefix route broken: ok=%v name=%q rest=%q", ok, rt.Name, rest)
	}
}

func TestNewTableRejectsBadUpstream(t *testing.T) {
	cfg := testConfig()
	cfg.UserServiceURL = "localhost-no-scheme"
	if _, err := NewTable(cfg); err == nil {
		t.Fatalf("expected error for upstream without scheme")
	}

	cfg = testConfig()
	cfg.TrustServiceURL = "http://%zz"
	if _, err := NewTable(cfg); err == nil {
		t.Fatalf("expected error for unparsable upstream")
	}
}
