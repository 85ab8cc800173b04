package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if cfg.Port != "3000" {
		t.Fatalf("Port=%q", cfg.Port)
	}
	if cfg.JWTSecret != DefaultJWTSecret {
		t.Fatalf("JWTSecret=%q", cfg.JWTSecret)
	}
	if cfg.RedisAddr() != "localhost:6379" {
		t.Fatalf("RedisAddr=%q", cfg.RedisAddr())
	}
	if cfg.UserServiceURL != "http://localhost:3002" {
		t.Fatalf("UserServiceURL=%q", cfg.UserServiceURL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("JWT_SECRET", "prod-secret")
	t.Setenv("USER_SERVICE_URL", "http://users.internal:80")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port=%q", cfg.Port)
	}
	if cfg.JWTSecret != "prod-secret" {
		t.Fatalf("JWTSecret=%q", cfg.JWTSecret)
	}
	if cfg.UserServiceURL != "http://users.internal:80" {
		t.Fatalf("UserServiceURL=%q", cfg.UserServiceURL)
	}
}

func TestGetenv(t *testing.T) {
	t.Setenv("SOME_KEY", "value")
	if got := Getenv("SOME_KEY", "fallback"); got != "value" {
		t.Fatalf("got %q", got)
	}
	if got := Getenv("SOME_MISSING_KEY", "fallback"); got != "fallback" {
		t.Fatalf("got %q", got)
	}
}
