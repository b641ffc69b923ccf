package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	minSecretLength = 16
	minBcryptCost   = 10
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName  string `envconfig:"APP_NAME" default:"Arihant Coaching API"`
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	Port     string `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile  string `envconfig:"LOG_FILE"`

	DatabaseURL    string   `envconfig:"DATABASE_URL"`
	DBMaxConns     int32    `envconfig:"DB_MAX_CONNS" default:"10"`
	RedisURL       string   `envconfig:"REDIS_URL"`
	AutoMigrate    bool     `envconfig:"AUTO_MIGRATE" default:"true"`
	APIBaseURL     string   `envconfig:"API_BASE_URL" default:"http://localhost:8080/api"`
	AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:5173"`

	JWTSecret   string        `envconfig:"JWT_SECRET"`
	TokenTTL    time.Duration `envconfig:"TOKEN_TTL" default:"24h"`
	BcryptCost  int           `envconfig:"BCRYPT_COST" default:"10"`
	RequireOTP  bool          `envconfig:"REQUIRE_VERIFIED_EMAIL" default:"false"`
	OTPTTL      time.Duration `envconfig:"OTP_TTL" default:"10m"`
	OTPAttempts int           `envconfig:"OTP_MAX_ATTEMPTS" default:"5"`

	RazorpayKeyID     string        `envconfig:"RAZORPAY_KEY_ID"`
	RazorpayKeySecret string        `envconfig:"RAZORPAY_KEY_SECRET"`
	GatewayTimeout    time.Duration `envconfig:"GATEWAY_TIMEOUT" default:"15s"`
	Currency          string        `envconfig:"PAYMENT_CURRENCY" default:"INR"`

	IdempotencyTTL time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`
	LoginPerMinute int           `envconfig:"LOGIN_RATE_LIMIT" default:"5"`
	ShutdownPeriod time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	InstituteName string `envconfig:"INSTITUTE_NAME" default:"Arihant Coaching Classes"`
	ReceiptDir    string `envconfig:"RECEIPT_DIR" default:"uploads"`
	S3Bucket      string `envconfig:"S3_BUCKET"`
	S3Region      string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Endpoint    string `envconfig:"S3_ENDPOINT"`
	S3AccessKey   string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey   string `envconfig:"S3_SECRET_KEY"`

	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"coaching.events"`

	OTelEndpoint  string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	SnowflakeNode int64  `envconfig:"SNOWFLAKE_NODE" default:"1"`
}

// Load reads a best-effort .env file, then decodes and validates the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decode environment: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces the settings that must be present outside development.
func (c Config) Validate() error {
	if c.BcryptCost < minBcryptCost {
		return fmt.Errorf("BCRYPT_COST must be at least %d", minBcryptCost)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.OTPTTL <= 0 || c.OTPAttempts <= 0 {
		return fmt.Errorf("OTP_TTL and OTP_MAX_ATTEMPTS must be positive")
	}
	if c.IsDev() {
		return nil
	}
	if len(c.JWTSecret) < minSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes", minSecretLength)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must be set")
	}
	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL must be set")
	}
	if c.RazorpayKeyID == "" || c.RazorpayKeySecret == "" {
		return fmt.Errorf("RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET must be set")
	}
	if c.AMQPURL == "" {
		return fmt.Errorf("AMQP_URL must be set so verification codes are delivered")
	}
	return nil
}

// IsDev reports whether the app runs in a local development environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// SigningSecret returns the token secret, falling back to a fixed value in development.
func (c Config) SigningSecret() []byte {
	if c.JWTSecret == "" && c.IsDev() {
		return []byte("dev-only-insecure-signing-secret")
	}
	return []byte(c.JWTSecret)
}

// PaymentSecret returns the gateway key secret, falling back to a fixed value in development.
func (c Config) PaymentSecret() string {
	if c.RazorpayKeySecret == "" && c.IsDev() {
		return "dev-only-insecure-payment-secret"
	}
	return c.RazorpayKeySecret
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}
