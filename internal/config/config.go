package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type ServerConfig struct {
	Addr            string
	DataFile        string
	DatabaseURL     string
	AdminKey        string
	StartingBalance float64
	BaseTick        time.Duration
	Liquidity       float64
	SaveDebounce    time.Duration
}

type CLIConfig struct {
	APIBaseURL string
}

func LoadServerFromEnv() (ServerConfig, error) {
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("FEST_ADDR", ":8080")
	}

	cfg := ServerConfig{
		Addr:            addr,
		DataFile:        envDefault("FEST_DATA_FILE", "festmarket.json"),
		DatabaseURL:     strings.TrimSpace(os.Getenv("FEST_DATABASE_URL")),
		AdminKey:        strings.TrimSpace(os.Getenv("FEST_ADMIN_KEY")),
		StartingBalance: envFloatDefault("FEST_STARTING_BALANCE", 0),
		BaseTick:        envDurationDefault("FEST_BASE_TICK", 3*time.Second),
		Liquidity:       envFloatDefault("FEST_LIQUIDITY", 800),
		SaveDebounce:    envDurationDefault("FEST_SAVE_DEBOUNCE", 300*time.Millisecond),
	}
	if cfg.AdminKey == "" {
		return cfg, fmt.Errorf("FEST_ADMIN_KEY is required")
	}
	return cfg, nil
}

func LoadCLIFromEnv() CLIConfig {
	return CLIConfig{
		APIBaseURL: strings.TrimRight(envDefault("FEST_API_BASE_URL", "http://localhost:8080"), "/"),
	}
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envFloatDefault(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
