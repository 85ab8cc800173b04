// Package revocation holds the connection to the token-blacklist store.
//
// The store is an optional capability: the gateway is either Connected or
// Unavailable, and every call site must handle both. Request handling only
// ever performs read-style lookups. Note that lookups are NOT yet enforced in
// the auth pipeline; the auth service writes blacklist entries on logout and
// the gateway currently just keeps the connection open. Enforcement is a
// deliberate, tracked follow-up, not something to wire in quietly.
package revocation

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const dialTimeout = 2 * time.Second

// Store is the redis-backed blacklist lookup. A nil *Store is the
// Unavailable state; all methods are safe to call on it.
type Store struct {
	client *redis.Client
}

// Connect dials the store and verifies connectivity with a ping. Callers
// treat failure as "run with revocation disabled", never as a fatal error.
func Connect(ctx context.Context, addr string) (*Store, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect revocation store %s: %w", addr, err)
	}
	return &Store{client: client}, nil
}

// Available reports whether the store is connected.
func (s *Store) Available() bool {
	return s != nil && s.client != nil
}

// IsRevoked reports whether token is blacklisted. On an unavailable store it
// reports false without error: a missing blacklist must never lock callers
// out.
func (s *Store) IsRevoked(ctx context.Context, token string) (bool, error) {
	if !s.Available() {
		return false, nil
	}
	n, err := s.client.Exists(ctx, blacklistKey(token)).Result()
	if err != nil {
		return false, fmt.Errorf("blacklist lookup: %w", err)
	}
	return n > 0, nil
}

// Ping probes connectivity, for readiness reporting.
func (s *Store) Ping(ctx context.Context) error {
	if !s.Available() {
		return fmt.Errorf("revocation store unavailable")
	}
	return s.client.Ping(ctx).Err()
}

// Close releases the connection, bounded by the caller's shutdown context.
// Safe on an unavailable store.
func (s *Store) Close() error {
	if !s.Available() {
		return nil
	}
	return s.client.Close()
}

// blacklistKey matches the key shape the auth service writes on logout.
func blacklistKey(token string) string {
	return "blacklist:" + token
}
