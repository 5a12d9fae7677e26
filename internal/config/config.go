package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultListenAddr    = ":8080"
	defaultSweepInterval = "3m"
	defaultCleanupEvery  = "6h"
	defaultSMSTimeout    = "10s"
	defaultCodePepper    = "change-me-verification-pepper"
)

type Config struct {
	AppEnv      string
	DatabaseDSN string
	ListenAddr  string

	// InternalToken protects the back-office/internal HTTP surface.
	InternalToken string

	// VerificationCodePepper is mixed into the OTP hash at rest.
	VerificationCodePepper string

	// SMSGatewayURL empty means SMS is simulated (logged, never sent).
	SMSGatewayURL   string
	SMSGatewayToken string
	SMSTimeout      time.Duration

	SweepInterval   time.Duration
	CleanupInterval time.Duration
}

func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err == nil {
		log.Println("loaded configuration from .env")
	}

	cfg := &Config{
		AppEnv:                 strings.ToLower(getEnv("APP_ENV", "dev")),
		DatabaseDSN:            os.Getenv("DATABASE_URL"),
		ListenAddr:             getEnv("LISTEN_ADDR", defaultListenAddr),
		InternalToken:          os.Getenv("INTERNAL_TOKEN"),
		VerificationCodePepper: getEnv("VERIFICATION_CODE_PEPPER", defaultCodePepper),
		SMSGatewayURL:          os.Getenv("SMS_GATEWAY_URL"),
		SMSGatewayToken:        os.Getenv("SMS_GATEWAY_TOKEN"),
	}

	if cfg.DatabaseDSN == "" {
		return nil, fmt.Errorf("DATABASE_URL is required but not set")
	}

	var err error
	if cfg.SMSTimeout, err = parseDurationEnv("SMS_TIMEOUT", defaultSMSTimeout); err != nil {
		return nil, err
	}
	if cfg.SweepInterval, err = parseDurationEnv("REMINDER_SWEEP_INTERVAL", defaultSweepInterval); err != nil {
		return nil, err
	}
	if cfg.CleanupInterval, err = parseDurationEnv("VERIFICATION_CLEANUP_INTERVAL", defaultCleanupEvery); err != nil {
		return nil, err
	}

	if isProdLike(cfg.AppEnv) {
		if cfg.InternalToken == "" {
			return nil, fmt.Errorf("in prod/release INTERNAL_TOKEN must be set")
		}
		if cfg.VerificationCodePepper == defaultCodePepper {
			return nil, fmt.Errorf("in prod/release VERIFICATION_CODE_PEPPER must be set and not default")
		}
	}

	return cfg, nil
}

func (c *Config) Production() bool { return isProdLike(c.AppEnv) }

func isProdLike(env string) bool {
	return env == "prod" || env == "production" || env == "release"
}

func getEnv(name, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return fallback
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := getEnv(name, fallback)
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be > 0", name)
	}
	return d, nil
}

// IntEnv reads an integer env var with a fallback, for knobs that do not
// warrant a Config field.
func IntEnv(name string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
