// Package config loads application configuration from the environment,
// with an optional .env file for local development.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Database holds PostgreSQL connection settings.
type Database struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
	Name     string `env:"DB_NAME" envDefault:"fitnu"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
}

// DSN builds a libpq-compatible connection string.
func (d Database) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// Auth holds session-token settings.
type Auth struct {
	JWTSecret string        `env:"JWT_SECRET,required"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"168h"`
}

// Cloudinary holds the unsigned-upload settings for the image host.
type Cloudinary struct {
	CloudName    string `env:"CLOUDINARY_CLOUD_NAME"`
	UploadPreset string `env:"CLOUDINARY_UPLOAD_PRESET"`
}

// Config is the full application configuration.
type Config struct {
	Port                 string `env:"PORT" envDefault:"8080"`
	Database             Database
	Auth                 Auth
	Cloudinary           Cloudinary
	WSInsecureSkipVerify bool `env:"WS_INSECURE_SKIP_VERIFY"`
}

// Load reads .env if present, then parses the environment.
func Load() (Config, error) {
	// Missing .env is fine in production; real env vars win either way.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
