// Package config содержит логику чтения конфигурации сервиса FitQuest.
package config

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// defaultTokenRate — курс выплат по умолчанию: 0.1 рупии за токен.
const defaultTokenRate = "0.10"

// Config содержит параметры конфигурации сервиса FitQuest.
type Config struct {
	RunAddress         string `env:"RUN_ADDRESS"`
	DatabaseURI        string `env:"DATABASE_URI"`
	GoogleOAuthAddress string `env:"GOOGLE_OAUTH_ADDRESS"`
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURI  string `env:"GOOGLE_REDIRECT_URI"`
	TokenRate          string `env:"TOKEN_RATE"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных
// окружения. Переменные окружения имеют приоритет над флагами; перед
// разбором подхватывается локальный .env, если он есть.
func Parse() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envOAuthAddress := cfg.GoogleOAuthAddress
	envTokenRate := cfg.TokenRate

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.GoogleOAuthAddress, "o", "", "Google OAuth token endpoint address")
	flag.StringVar(&cfg.TokenRate, "t", defaultTokenRate, "payout rate per token")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envOAuthAddress != "" {
		cfg.GoogleOAuthAddress = envOAuthAddress
	}
	if envTokenRate != "" {
		cfg.TokenRate = envTokenRate
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}
	if cfg.TokenRate == "" {
		cfg.TokenRate = defaultTokenRate
	}

	return cfg, nil
}
