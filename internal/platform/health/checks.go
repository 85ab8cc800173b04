package health

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Pinger is anything with a connectivity probe; *revocation.Store satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StorePing checks a key-value store dependency. Wire it as an optional node:
// the gateway keeps serving when the revocation store is down.
func StorePing(p Pinger) Check {
	return func(ctx context.Context) error {
		if p == nil {
			return fmt.Errorf("store is nil")
		}
		ctx2, cancel := context.WithTimeout(ctx, 1*time.Second)
		defer cancel()
		return p.Ping(ctx2)
	}
}

// HTTPPing checks that an upstream base URL accepts connections. Any HTTP
// response counts as reachable, including 404 from a base path the upstream
// does not serve; only transport failures report unhealthy. Wire it as an
// optional node: upstream outages surface per-request, never via /readyz.
func HTTPPing(base *url.URL) Check {
	client := &http.Client{Timeout: 2 * time.Second}
	return func(ctx context.Context) error {
		if base == nil {
			return fmt.Errorf("base url is nil")
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, base.String(), nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("%s unreachable: %w", base.Host, err)
		}
		return resp.Body.Close()
	}
}
