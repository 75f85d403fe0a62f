package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds process configuration read from the environment.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	OTLPEndpoint string
	Telemetry    TelemetryConfig

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBPath            string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
	DBMigrate         bool

	Checkout  CheckoutConfig
	Email     EmailConfig
	Kafka     KafkaConfig
	RateLimit RateLimitConfig

	AdminToken string
}

// TelemetryConfig holds the logging and OpenTelemetry switches.
type TelemetryConfig struct {
	LogLevel  string
	LogFormat string

	TracingEnabled bool
	// OTLPProtocol is "grpc" or "http".
	OTLPProtocol  string
	SamplingRatio float64
}

type CheckoutConfig struct {
	// DeductStock allocates stock when an order is placed.
	DeductStock       bool
	MaxNumberAttempts int
	PaymentCacheTTL   int
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	// SendTimeout bounds one delivery, dial included, in seconds.
	SendTimeout int
}

func (c EmailConfig) Enabled() bool {
	return strings.TrimSpace(c.SMTPHost) != ""
}

type KafkaConfig struct {
	Brokers    []string
	OrderTopic string
	ClientID   string

	// SendTimeout bounds one publish, dial and retries included, in seconds.
	SendTimeout int
}

func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	CheckoutRate  float64
	CheckoutBurst int
	// IdempotencyTTLSeconds bounds how long a checkout Idempotency-Key stays locked.
	IdempotencyTTLSeconds int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	redisAddr := strings.TrimSpace(getenv("REDIS_ADDR", ""))

	return Config{
		AppName:      getenv("APP_SERVICE", "storefront"),
		AppVersion:   getenv("APP_VERSION", "0.1.0"),
		Environment:  getenv("ENVIRONMENT", "development"),
		HTTPAddr:     getenv("HTTP_ADDR", ":8080"),
		OTLPEndpoint: getenv("OTEL_EXPORTER_OTLP_ENDPOINT", getenv("OTLP_ENDPOINT", "localhost:4317")),

		Telemetry: TelemetryConfig{
			LogLevel:       strings.ToLower(strings.TrimSpace(getenv("LOG_LEVEL", "info"))),
			LogFormat:      strings.ToLower(strings.TrimSpace(getenv("LOG_FORMAT", "json"))),
			TracingEnabled: getenvBool("OTEL_ENABLED", false),
			OTLPProtocol:   strings.ToLower(strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"))),
			SamplingRatio:  getenvFloat("OTEL_SAMPLING_RATIO", 0.1),
		},

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "storefront"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBPath:            getenv("DATABASE_PATH", "storefront.db"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 10),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 50),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
		DBMigrate:         getenvBool("DATABASE_MIGRATE", true),

		Checkout: CheckoutConfig{
			DeductStock:       getenvBool("CHECKOUT_DEDUCT_STOCK", true),
			MaxNumberAttempts: getenvInt("CHECKOUT_ORDER_NUMBER_ATTEMPTS", 5),
			PaymentCacheTTL:   getenvInt("CHECKOUT_PAYMENT_METHOD_CACHE_TTL", 60),
		},
		Email: EmailConfig{
			SMTPHost:     strings.TrimSpace(getenv("SMTP_HOST", "")),
			SMTPPort:     getenvInt("SMTP_PORT", 587),
			SMTPUsername: getenv("SMTP_USERNAME", ""),
			SMTPPassword: getenv("SMTP_PASSWORD", ""),
			SMTPFrom:     getenv("SMTP_FROM", "no-reply@storefront.local"),
			SendTimeout:  getenvInt("SMTP_SEND_TIMEOUT", 10),
		},
		Kafka: KafkaConfig{
			Brokers:     splitList(getenv("KAFKA_BROKERS", "")),
			OrderTopic:  getenv("KAFKA_ORDER_TOPIC", "storefront.orders"),
			ClientID:    getenv("KAFKA_CLIENT_ID", "storefront"),
			SendTimeout: getenvInt("KAFKA_SEND_TIMEOUT", 5),
		},
		RateLimit: RateLimitConfig{
			Enabled:               redisAddr != "" && getenvBool("RATE_LIMIT_ENABLED", true),
			RedisAddr:             redisAddr,
			RedisPassword:         getenv("REDIS_PASSWORD", ""),
			RedisDB:               getenvInt("REDIS_DB", 0),
			CheckoutRate:          getenvFloat("RATE_LIMIT_CHECKOUT_RATE", 0.5),
			CheckoutBurst:         getenvInt("RATE_LIMIT_CHECKOUT_BURST", 5),
			IdempotencyTTLSeconds: getenvInt("RATE_LIMIT_IDEMPOTENCY_TTL", 30),
		},

		AdminToken: strings.TrimSpace(getenv("ADMIN_TOKEN", "")),
	}
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
