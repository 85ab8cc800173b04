package config

import (
	"net"
	"os"

	env "github.com/caarlos0/env/v11"
)

// DefaultJWTSecret is the development-only signing secret. Startup logs a
// warning when it is still in effect; production must override JWT_SECRET.
const DefaultJWTSecret = "dev-secret-change-me"

// Config is the gateway's runtime configuration, loaded once from the
// environment at startup and read-only afterwards. All defaults are loopback
// developer conveniences, not values to deploy with.
type Config struct {
	Port      string `env:"PORT" envDefault:"3000"`
	JWTSecret string `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`

	// Revocation store address. The gateway runs without it when unreachable.
	RedisHost string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort string `env:"REDIS_PORT" envDefault:"6379"`

	AuthServiceURL         string `env:"AUTH_SERVICE_URL" envDefault:"http://localhost:3001"`
	UserServiceURL         string `env:"USER_SERVICE_URL" envDefault:"http://localhost:3002"`
	ProductServiceURL      string `env:"PRODUCT_SERVICE_URL" envDefault:"http://localhost:3003"`
	ProviderServiceURL     string `env:"PROVIDER_SERVICE_URL" envDefault:"http://localhost:3004"`
	TrustServiceURL        string `env:"TRUST_SERVICE_URL" envDefault:"http://localhost:3005"`
	MessageServiceURL      string `env:"MESSAGE_SERVICE_URL" envDefault:"http://localhost:3006"`
	NotificationServiceURL string `env:"NOTIFICATION_SERVICE_URL" envDefault:"http://localhost:3007"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// RedisAddr returns the revocation store address in host:port form.
func (c Config) RedisAddr() string {
	return net.JoinHostPort(c.RedisHost, c.RedisPort)
}

// Getenv returns the value of key, or fallback when unset or empty.
func Getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
