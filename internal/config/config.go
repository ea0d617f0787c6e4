// Package config loads the settings shared by the qdemo commands from the
// environment, optionally seeded by a .env file.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds command defaults. Command-line flags override every field.
type Config struct {
	// Seed seeds the simulator and protocol randomness. Zero draws a fresh
	// seed for each run.
	Seed int64 `env:"QDEMO_SEED"`

	Shots            int     `env:"QDEMO_SHOTS" envDefault:"1024"`
	Rounds           int     `env:"QDEMO_ROUNDS" envDefault:"64"`
	DiscloseFraction float64 `env:"QDEMO_DISCLOSE_FRACTION" envDefault:"0.1"`
	Eavesdrop        float64 `env:"QDEMO_EAVESDROP" envDefault:"0"`
	ReadoutError     float64 `env:"QDEMO_READOUT_ERROR" envDefault:"0"`

	TranscriptCompress bool `env:"QDEMO_TRANSCRIPT_COMPRESS"`
}

// Load reads the given .env files (".env" when none are named) and then the
// environment. Missing files are ignored; variables already set in the
// environment take precedence over file entries.
func Load(files ...string) (Config, error) {
	_ = godotenv.Load(files...)

	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
