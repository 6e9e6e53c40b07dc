// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full runtime configuration. All variables carry the CREWCAL_
// prefix, so HTTPPort is read from CREWCAL_HTTP_PORT and so on.
type Config struct {
	HTTPPort  int    `env:"HTTP_PORT" envDefault:"8080"`
	SQLiteDSN string `env:"SQLITE_DSN" envDefault:"file:crewcal.db?_pragma=foreign_keys(1)"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`

	JWTSecret string        `env:"JWT_SECRET,required"`
	JWTIssuer string        `env:"JWT_ISSUER" envDefault:"crewcal"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"60m"`

	// FrontendBaseURL is the public origin invite links point at.
	FrontendBaseURL string        `env:"FRONTEND_BASE_URL" envDefault:"http://localhost:5173"`
	InviteTTL       time.Duration `env:"INVITE_TTL" envDefault:"168h"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	MailFrom     string `env:"MAIL_FROM" envDefault:"no-reply@crewcal.local"`
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "CREWCAL_"}); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// SMTPEnabled reports whether an outbound mail relay is configured.
func (c Config) SMTPEnabled() bool {
	return c.SMTPHost != ""
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
