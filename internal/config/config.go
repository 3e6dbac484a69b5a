// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits.
package config

import (
	"fmt"
	"os"
	"strings"
)

// Config holds all runtime configuration for the collector service.
type Config struct {
	Port             string
	DatabaseURL      string
	RedisURL         string
	HHBaseURL        string // e.g. "https://api.hh.ru"
	HHAccessToken    string
	HHUserAgent      string // HH requires an identifying User-Agent
	CollectorEnabled bool   // set false to serve statistics without polling
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	baseURL := os.Getenv("HH_API_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.hh.ru"
	}

	userAgent := os.Getenv("HH_USER_AGENT")
	if userAgent == "" {
		userAgent = "eachjob-collector/1.0"
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	enabled := true
	if s := os.Getenv("COLLECTOR_ENABLED"); s != "" {
		enabled = strings.EqualFold(s, "true") || s == "1"
	}

	return &Config{
		Port:             port,
		DatabaseURL:      dbURL,
		RedisURL:         redisURL,
		HHBaseURL:        baseURL,
		HHAccessToken:    os.Getenv("HH_ACCESS_TOKEN"),
		HHUserAgent:      userAgent,
		CollectorEnabled: enabled,
	}, nil
}
