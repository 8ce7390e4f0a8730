package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string
	StoreDriver string
	PostgresDSN string
	RedisURL    string

	KafkaBrokers []string
	EnableKafka  bool

	JWTSecret   string
	JWTAudience string

	StripeSecretKey           string
	StripeWebhookSecret       string
	StripeSubscriptionPriceID string
	StripePolicyPriceID       string
	CheckoutSuccessURL        string
	CheckoutCancelURL         string

	ResendAPIKey string
	EmailFrom    string

	EvidenceBucket      string
	EvidenceRegion      string
	EvidenceEndpoint    string
	EvidenceUploadTTL   time.Duration
	ClaimMaxPayoutCents int64

	PaymentEventDedupTTL time.Duration
	OutboxPollInterval   time.Duration
	OutboxBatchSize      int
	EnableSwagger        bool
}

// Load reads an optional .env file and then the process environment.
// Values already present in the environment win over the file.
func Load() (Config, error) {
	envFile := strings.TrimSpace(os.Getenv("ENV_FILE"))
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}

	cfg := Config{
		ServiceName: envString("SERVICE_NAME", "showingcover"),
		HTTPPort:    envString("HTTP_PORT", "8080"),
		StoreDriver: strings.ToLower(envString("STORE_DRIVER", StoreMemory)),
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
		RedisURL:    os.Getenv("REDIS_URL"),

		KafkaBrokers: envList("KAFKA_BROKERS"),
		EnableKafka:  envBool("ENABLE_KAFKA", false),

		JWTSecret:   os.Getenv("JWT_SECRET"),
		JWTAudience: envString("JWT_AUDIENCE", "authenticated"),

		StripeSecretKey:           os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret:       os.Getenv("STRIPE_WEBHOOK_SECRET"),
		StripeSubscriptionPriceID: os.Getenv("STRIPE_SUBSCRIPTION_PRICE_ID"),
		StripePolicyPriceID:       os.Getenv("STRIPE_POLICY_PRICE_ID"),
		CheckoutSuccessURL:        envString("CHECKOUT_SUCCESS_URL", "http://localhost:3000/checkout/success"),
		CheckoutCancelURL:         envString("CHECKOUT_CANCEL_URL", "http://localhost:3000/checkout/cancel"),

		ResendAPIKey: os.Getenv("RESEND_API_KEY"),
		EmailFrom:    envString("EMAIL_FROM", "Showing Cover <claims@showingcover.local>"),

		EvidenceBucket:      envString("EVIDENCE_BUCKET", "claim-evidence"),
		EvidenceRegion:      envString("EVIDENCE_REGION", "us-east-1"),
		EvidenceEndpoint:    os.Getenv("EVIDENCE_ENDPOINT"),
		EvidenceUploadTTL:   envDuration("EVIDENCE_UPLOAD_TTL", 15*time.Minute),
		ClaimMaxPayoutCents: int64(envInt("CLAIM_MAX_PAYOUT_CENTS", 100000)),

		PaymentEventDedupTTL: envDuration("PAYMENT_EVENT_DEDUP_TTL", 30*24*time.Hour),
		OutboxPollInterval:   envDuration("OUTBOX_POLL_INTERVAL", 2*time.Second),
		OutboxBatchSize:      envInt("OUTBOX_BATCH_SIZE", 100),
		EnableSwagger:        envBool("ENABLE_SWAGGER", true),
	}

	if len(cfg.KafkaBrokers) == 0 {
		cfg.KafkaBrokers = []string{"localhost:9092"}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.StoreDriver {
	case StoreMemory:
	case StorePostgres:
		if c.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN is required when STORE_DRIVER=postgres")
		}
	default:
		return errors.New("STORE_DRIVER must be memory or postgres")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.ClaimMaxPayoutCents <= 0 {
		return errors.New("CLAIM_MAX_PAYOUT_CENTS must be positive")
	}
	return nil
}

func envString(name string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envList(name string) []string {
	var items []string
	for _, value := range strings.Split(os.Getenv(name), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			items = append(items, value)
		}
	}
	return items
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
