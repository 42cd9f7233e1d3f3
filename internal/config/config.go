package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	SourceDisabled  = "disabled"
	SourceMailbox   = "mailbox"
	SourceSynthetic = "synthetic"
)

type Config struct {
	PostgresDSN  string
	RedisAddr    string
	KafkaBrokers []string
	HTTPAddr     string

	UPIID        string
	UPIPayeeName string

	SMTP  SMTPConfig
	IMAP  IMAPConfig
	Recon ReconConfig
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type IMAPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Folder   string
}

type ReconConfig struct {
	Enabled  bool
	Source   string
	Interval time.Duration
	Lookback time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Warn("failed to load .env file, using default values", "error", err)
	}

	cfg := &Config{
		PostgresDSN:  getEnv("POSTGRES_DSN", "host=localhost user=postgres password=postgres dbname=nftmarket sslmode=disable"),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers: []string{getEnv("KAFKA_BROKER", "localhost:9092")},
		HTTPAddr:     getEnv("HTTP_ADDR", ":8080"),
		UPIID:        os.Getenv("UPI_ID"),
		UPIPayeeName: getEnv("UPI_PAYEE_NAME", "NFT Marketplace"),
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:     getEnvInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("SMTP_USER"),
		},
		IMAP: IMAPConfig{
			Host:     getEnv("IMAP_HOST", "imap.gmail.com"),
			Port:     getEnvInt("IMAP_PORT", 993),
			Username: os.Getenv("IMAP_USER"),
			Password: os.Getenv("IMAP_PASSWORD"),
			Folder:   getEnv("IMAP_FOLDER", "INBOX"),
		},
		Recon: ReconConfig{
			Enabled:  getEnvBool("RECON_ENABLED", false),
			Source:   getEnv("RECON_SOURCE", SourceDisabled),
			Interval: time.Duration(getEnvInt("RECON_INTERVAL_SECONDS", 60)) * time.Second,
			Lookback: time.Duration(getEnvInt("RECON_LOOKBACK_MINUTES", 120)) * time.Minute,
		},
	}

	switch cfg.Recon.Source {
	case SourceDisabled, SourceMailbox, SourceSynthetic:
	default:
		slog.Warn("unknown RECON_SOURCE, falling back to disabled", "source", cfg.Recon.Source)
		cfg.Recon.Source = SourceDisabled
	}

	slog.Info("config loaded",
		"postgres_dsn", cfg.PostgresDSN,
		"redis_addr", cfg.RedisAddr,
		"kafka_brokers", cfg.KafkaBrokers,
		"http_addr", cfg.HTTPAddr,
		"recon_enabled", cfg.Recon.Enabled,
		"recon_source", cfg.Recon.Source,
		"recon_interval", cfg.Recon.Interval,
		"recon_lookback", cfg.Recon.Lookback)
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer env value, using fallback", "key", key, "value", v, "fallback", fallback)
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("invalid boolean env value, using fallback", "key", key, "value", v, "fallback", fallback)
		return fallback
	}
	return b
}
