package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// RefundTier is one parsed tier of the cancellation refund schedule.
type RefundTier struct {
	MinLead time.Duration
	Percent int64
}

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env                string
	HTTPAddr           string
	StorageMode        string
	MongoURI           string
	MongoDB            string
	KafkaBrokers       []string
	KafkaTopicPrefix   string
	KafkaPaymentGroup  string
	IdempotencyTTL     time.Duration
	OutboxPollInterval time.Duration
	RetryBackoff       []time.Duration

	Currency              string
	VATRatePercent        int64
	CommissionRatePercent int64
	RefundTiers           []RefundTier
	PendingTTL            time.Duration
	PendingSweepInterval  time.Duration
}

// Load parses configuration from the current environment.
func Load() (Config, error) {
	cfg := Config{
		Env:               getEnv("APP_ENV", "dev"),
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		StorageMode:       strings.ToLower(getEnv("STORAGE_MODE", "mongo")),
		MongoURI:          os.Getenv("MONGO_URI"),
		MongoDB:           getEnv("MONGO_DB", "khidma"),
		KafkaTopicPrefix:  getEnv("KAFKA_TOPIC_PREFIX", ""),
		KafkaPaymentGroup: getEnv("KAFKA_PAYMENT_GROUP", "khidma-payments"),
		Currency:          getEnv("CURRENCY", "SAR"),
	}
	brokers := getEnv("KAFKA_BROKERS", "")
	if brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	idempotencyTTL, err := parseDurationEnv("IDEMP_TTL", 168*time.Hour)
	if err != nil {
		return Config{}, err
	}
	cfg.IdempotencyTTL = idempotencyTTL

	poll, err := parseDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond)
	if err != nil {
		return Config{}, err
	}
	cfg.OutboxPollInterval = poll

	retryStr := getEnv("RETRY_BACKOFF", "1s,5s,30s")
	for _, raw := range strings.Split(retryStr, ",") {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}

	vat, err := parseIntEnv("VAT_RATE_PERCENT", 15)
	if err != nil {
		return Config{}, err
	}
	cfg.VATRatePercent = vat

	commission, err := parseIntEnv("COMMISSION_RATE_PERCENT", 20)
	if err != nil {
		return Config{}, err
	}
	cfg.CommissionRatePercent = commission

	tiers, err := parseRefundTiers(getEnv("REFUND_TIERS", "4h:100,2h:50"))
	if err != nil {
		return Config{}, err
	}
	cfg.RefundTiers = tiers

	pendingTTL, err := parseDurationEnv("PENDING_TTL", 30*time.Minute)
	if err != nil {
		return Config{}, err
	}
	cfg.PendingTTL = pendingTTL

	sweep, err := parseDurationEnv("PENDING_SWEEP_INTERVAL", time.Minute)
	if err != nil {
		return Config{}, err
	}
	cfg.PendingSweepInterval = sweep

	switch cfg.StorageMode {
	case "memory":
	case "mongo":
		if cfg.MongoURI == "" {
			return Config{}, fmt.Errorf("MONGO_URI is required when STORAGE_MODE=mongo")
		}
	default:
		return Config{}, fmt.Errorf("invalid STORAGE_MODE: %q", cfg.StorageMode)
	}
	if cfg.VATRatePercent < 0 || cfg.VATRatePercent > 100 {
		return Config{}, fmt.Errorf("VAT_RATE_PERCENT out of range: %d", cfg.VATRatePercent)
	}
	if cfg.CommissionRatePercent < 0 || cfg.CommissionRatePercent > 100 {
		return Config{}, fmt.Errorf("COMMISSION_RATE_PERCENT out of range: %d", cfg.CommissionRatePercent)
	}
	return cfg, nil
}

// parseRefundTiers reads "4h:100,2h:50" style tier lists.
func parseRefundTiers(raw string) ([]RefundTier, error) {
	var tiers []RefundTier
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lead, percentStr, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("invalid REFUND_TIERS component %q", part)
		}
		d, err := time.ParseDuration(strings.TrimSpace(lead))
		if err != nil {
			return nil, fmt.Errorf("invalid REFUND_TIERS lead time %q: %w", lead, err)
		}
		percent, err := strconv.ParseInt(strings.TrimSpace(percentStr), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid REFUND_TIERS percent %q: %w", percentStr, err)
		}
		if percent < 0 || percent > 100 {
			return nil, fmt.Errorf("REFUND_TIERS percent out of range: %d", percent)
		}
		tiers = append(tiers, RefundTier{MinLead: d, Percent: percent})
	}
	return tiers, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseIntEnv(key string, def int64) (int64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s integer: %w", key, err)
	}
	return v, nil
}
