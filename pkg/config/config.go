package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "shopsphere"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "SHOPSPHERE_APP_ENV"
	EnvPort   = "SHOPSPHERE_APP_PORT"
)

type Config struct {
	App         AppConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Remote      RemoteConfig
	Checkout    CheckoutConfig
	AdminPoller AdminPollerConfig
	CORS        CORSConfig
	RateLimit   RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHOPSPHERE_APP_ENV" required:"true"`
	Port         string `envconfig:"SHOPSPHERE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SHOPSPHERE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHOPSPHERE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type RedisConfig struct {
	URL          string        `envconfig:"SHOPSPHERE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SHOPSPHERE_REDIS_ADDR"`
	Password     string        `envconfig:"SHOPSPHERE_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHOPSPHERE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHOPSPHERE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHOPSPHERE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHOPSPHERE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHOPSPHERE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHOPSPHERE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SHOPSPHERE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SHOPSPHERE_JWT_ISSUER" default:"shopsphere"`
	ExpirationMinutes int    `envconfig:"SHOPSPHERE_JWT_EXPIRATION_MINUTES" default:"60"`
}

// AccessTokenTTL returns the access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RemoteConfig holds the base URLs of the collaborator services.
type RemoteConfig struct {
	AuthBaseURL     string        `envconfig:"SHOPSPHERE_AUTH_BASE_URL" required:"true"`
	CatalogBaseURL  string        `envconfig:"SHOPSPHERE_CATALOG_BASE_URL" required:"true"`
	WishlistBaseURL string        `envconfig:"SHOPSPHERE_WISHLIST_BASE_URL" required:"true"`
	OrderBaseURL    string        `envconfig:"SHOPSPHERE_ORDER_BASE_URL" required:"true"`
	AddressBaseURL  string        `envconfig:"SHOPSPHERE_ADDRESS_BASE_URL" required:"true"`
	RequestTimeout  time.Duration `envconfig:"SHOPSPHERE_REMOTE_REQUEST_TIMEOUT" default:"15s"`
}

type CheckoutConfig struct {
	TaxRate               string `envconfig:"SHOPSPHERE_CHECKOUT_TAX_RATE" default:"0.18"`
	FreeShippingThreshold string `envconfig:"SHOPSPHERE_CHECKOUT_FREE_SHIPPING_THRESHOLD" default:"500"`
	FlatShippingFee       string `envconfig:"SHOPSPHERE_CHECKOUT_FLAT_SHIPPING_FEE" default:"50"`
}

type AdminPollerConfig struct {
	Enabled  bool          `envconfig:"SHOPSPHERE_ADMIN_POLLER_ENABLED" default:"true"`
	Interval time.Duration `envconfig:"SHOPSPHERE_ADMIN_POLLER_INTERVAL" default:"30s"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"SHOPSPHERE_CORS_ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
}

// RateLimitConfig throttles the login and register surfaces. Zero values
// disable the limiter.
type RateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"SHOPSPHERE_LOGIN_RATE_WINDOW" default:"1m"`
	LoginIPLimit    int           `envconfig:"SHOPSPHERE_LOGIN_RATE_IP_LIMIT" default:"20"`
	LoginEmailLimit int           `envconfig:"SHOPSPHERE_LOGIN_RATE_EMAIL_LIMIT" default:"5"`
}
