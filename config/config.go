package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/nboulif/doctrack/internal/mailer"
	"github.com/nboulif/doctrack/internal/notify"
)

type Config struct {
	HTTPAddr string

	MongoURI string
	MongoDB  string

	// BaseURL is the public origin mailed links point at.
	BaseURL   string
	UploadDir string

	TokenSecret string
	TokenTTL    time.Duration

	SMTP mailer.SMTPConfig

	// Departments maps department codes to direction mailboxes, JSON form.
	Departments notify.Directory
}

// Load reads the configuration from the environment. Only the token secret
// and the Mongo URI are mandatory; everything else has a workable default.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		MongoURI:    os.Getenv("MONGO_URI"),
		MongoDB:     getenv("MONGO_DB", "doctrack"),
		BaseURL:     getenv("BASE_URL", "http://localhost:8080"),
		UploadDir:   getenv("UPLOAD_DIR", "./data"),
		TokenSecret: os.Getenv("TOKEN_SECRET"),
		SMTP: mailer.SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getenvInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("SMTP_FROM"),
			FromName: getenv("SMTP_FROM_NAME", "Ecole doctorale"),
		},
	}

	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGO_URI environment variable is not set")
	}
	if cfg.TokenSecret == "" {
		return nil, fmt.Errorf("TOKEN_SECRET environment variable is not set")
	}

	if v := os.Getenv("TOKEN_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
		}
		cfg.TokenTTL = ttl
	}

	if raw := os.Getenv("DEPARTMENTS_JSON"); raw != "" {
		d, err := notify.ParseDirectory([]byte(raw))
		if err != nil {
			return nil, err
		}
		cfg.Departments = d
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
