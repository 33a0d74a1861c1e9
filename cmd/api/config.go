package main

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	Env         string
	ListenAddr  string
	DatabaseURL string
	JWTSecret   string

	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string

	EmailBaseURL string
	EmailAPIKey  string
	EmailFrom    string

	SMSBaseURL string
	SMSSID     string
	SMSToken   string
	SMSFrom    string

	SendConcurrency   int
	AutomationTimeout time.Duration
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var out int
		if _, err := fmt.Sscanf(v, "%d", &out); err == nil {
			return out
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func Load() (Config, error) {
	cfg := Config{
		Env:         getenv("APP_ENV", "development"),
		ListenAddr:  getenv("LISTEN_ADDR", ":8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   getenv("JWT_SECRET", "dev-secret"),

		LLMBaseURL: getenv("LLM_BASE_URL", "https://api.openai.com"),
		LLMAPIKey:  os.Getenv("LLM_API_KEY"),
		LLMModel:   getenv("LLM_MODEL", "gpt-4o-mini"),

		EmailBaseURL: getenv("EMAIL_BASE_URL", "https://api.mailprovider.example"),
		EmailAPIKey:  os.Getenv("EMAIL_API_KEY"),
		EmailFrom:    getenv("EMAIL_FROM", "concierge@dealbrief.example"),

		SMSBaseURL: getenv("SMS_BASE_URL", "https://api.twilio.com"),
		SMSSID:     os.Getenv("SMS_ACCOUNT_SID"),
		SMSToken:   os.Getenv("SMS_AUTH_TOKEN"),
		SMSFrom:    os.Getenv("SMS_FROM"),

		SendConcurrency:   getenvInt("SEND_CONCURRENCY", 4),
		AutomationTimeout: getenvDuration("AUTOMATION_TIMEOUT", 5*time.Minute),
	}
	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL not set")
	}
	return cfg, nil
}
