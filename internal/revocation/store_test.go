package revocation

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestConnectAndLookup(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	store, err := Connect(context.Background(), mr.Addr())
	if err != nil {
		t.Fatalf("Connect err=%v", err)
	}
	defer store.Close()

	if !store.Available() {
		t.Fatalf("expected store to be available")
	}
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping err=%v", err)
	}

	revoked, err := store.IsRevoked(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("IsRevoked err=%v", err)
	}
	if revoked {
		t.Fatalf("unknown token reported revoked")
	}

	mr.Set("blacklist:tok-1", "1")
	revoked, err = store.IsRevoked(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("IsRevoked err=%v", err)
	}
	if !revoked {
		t.Fatalf("blacklisted token not reported revoked")
	}
}

func TestConnectFailureIsNotFatalState(t *testing.T) {
	// Port from a closed miniredis: nothing listens there.
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	addr := mr.Addr()
	mr.Close()

	if _, err := Connect(context.Background(), addr); err == nil {
		t.Fatalf("expected connect error")
	}
}

// The Unavailable state is a nil *Store; every method must be callable on it
// so call sites can treat revocation as an optional capability.
func TestNilStoreIsSafe(t *testing.T) {
	var store *Store

	if store.Available() {
		t.Fatalf("nil store reported available")
	}
	revoked, err := store.IsRevoked(context.Background(), "tok")
	if err != nil {
		t.Fatalf("IsRevoked on nil store err=%v", err)
	}
	if revoked {
		t.Fatalf("nil store must never report tokens revoked")
	}
	if err := store.Ping(context.Background()); err == nil {
		t.Fatalf("Ping on nil store should error")
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close on nil store err=%v", err)
	}
}
