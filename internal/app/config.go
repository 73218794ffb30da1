package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (PAWSOME_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (PAWSOME_DATABASE_URL or DATABASE_URL)" flag:"database-url"`

	// SessionPepper keys the HMAC that hashes session tokens at rest.
	SessionPepper string        `usage:"HMAC pepper for session token hashing" flag:"session-pepper"`
	SessionTTL    time.Duration `default:"720h" usage:"Session lifetime" flag:"session-ttl"`
	OTPTTL        time.Duration `default:"5m"   usage:"Verification code lifetime" flag:"otp-ttl"`

	Checkout CheckoutConfig
	Referral ReferralConfig
	Gateway  GatewayConfig
	SMTP     SMTPConfig

	RateLimit RateLimitConfig
	CORS      CORSConfig
	Graceful  GracefulConfig
}

// CheckoutConfig holds the order business constants.
type CheckoutConfig struct {
	DeliveryCharge        float64       `default:"50"    usage:"Flat regular delivery charge" flag:"delivery-charge"`
	ExpressDeliveryCharge float64       `default:"120"   usage:"Flat express delivery charge" flag:"express-delivery-charge"`
	CODLimit              float64       `default:"10000" usage:"Maximum order value for cash on delivery" flag:"cod-limit"`
	ReturnWindow          time.Duration `default:"168h"  usage:"Return window after delivery" flag:"return-window"`
}

// ReferralConfig controls the signup referral bonus.
type ReferralConfig struct {
	Bonus float64 `default:"100" usage:"Wallet bonus credited to the referrer" flag:"referral-bonus"`
}

// GatewayConfig holds the payment gateway credentials.
type GatewayConfig struct {
	BaseURL string `default:"https://api.razorpay.com" usage:"Payment gateway base URL" flag:"gateway-url"`
	KeyID   string `usage:"Payment gateway key id" flag:"gateway-key-id"`
	Secret  string `usage:"Payment gateway secret" flag:"gateway-secret"`
}

// SMTPConfig holds the OTP mail relay settings. With an empty Addr, codes are
// logged instead of mailed.
type SMTPConfig struct {
	Addr     string `usage:"SMTP relay address (host:port); empty logs codes instead" flag:"smtp-addr"`
	Username string `usage:"SMTP username" flag:"smtp-username"`
	Password string `usage:"SMTP password" flag:"smtp-password"`
	From     string `default:"noreply@pawsome.shop" usage:"OTP mail sender address" flag:"smtp-from"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "PAWSOME",
		Files:     []string{"config.yaml", "/etc/pawsome/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set PAWSOME_DATABASE_URL or DATABASE_URL")
	}
	if cfg.SessionPepper == "" {
		return nil, errors.New("session pepper is required: set PAWSOME_SESSION_PEPPER")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's PAWSOME_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
