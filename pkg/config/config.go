package config

import (
	"fmt"
	"os"
	"strconv"

	// this will automatically load your .env file:
	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	Port         string
	DatabasePath string
	LLM          LLMConfig
	Auth         AuthConfig
	Stripe       StripeConfig
	Trial        TrialConfig
}

type LLMConfig struct {
	Provider     string // "anthropic" or "openai"
	GatewayURL   string
	APIKey       string
	Model        string
	MaxTokens    int
	OpenAIAPIKey string
	OpenAIModel  string
}

type AuthConfig struct {
	JWTSecret  string
	Issuer     string
	Audience   string
	JWKSURL    string
	AdminEmail string
}

type StripeConfig struct {
	SecretKey      string
	WebhookSecret  string
	PriceIDMonthly string
	FrontendURL    string
	PortalLoginURL string
}

type TrialConfig struct {
	Queries int
	Days    int
}

const (
	defaultModel     = "claude-sonnet-4-5-20250929"
	defaultMaxTokens = 4000
)

func LoadConfig() (*Config, error) {
	maxTokens, err := intFromEnv("LLM_MAX_TOKENS", defaultMaxTokens)
	if err != nil {
		return nil, err
	}
	trialQueries, err := intFromEnv("TRIAL_QUERIES", 5)
	if err != nil {
		return nil, err
	}
	trialDays, err := intFromEnv("TRIAL_DAYS", 30)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:         envOrDefault("PORT", "5801"),
		DatabasePath: envOrDefault("DATABASE_PATH", "./writestuff.db"),
		LLM: LLMConfig{
			Provider:     envOrDefault("LLM_PROVIDER", "anthropic"),
			GatewayURL:   envOrDefault("LLM_GATEWAY_URL", "https://api.anthropic.com/v1/messages"),
			APIKey:       os.Getenv("LLM_API_KEY"),
			Model:        envOrDefault("LLM_MODEL", defaultModel),
			MaxTokens:    maxTokens,
			OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
			OpenAIModel:  os.Getenv("OPENAI_MODEL"),
		},
		Auth: AuthConfig{
			JWTSecret:  os.Getenv("AUTH_JWT_SECRET"),
			Issuer:     os.Getenv("AUTH_ISSUER"),
			Audience:   os.Getenv("AUTH_AUDIENCE"),
			JWKSURL:    os.Getenv("AUTH_JWKS_URL"),
			AdminEmail: os.Getenv("ADMIN_EMAIL"),
		},
		Stripe: StripeConfig{
			SecretKey:      os.Getenv("STRIPE_SECRET_KEY"),
			WebhookSecret:  os.Getenv("STRIPE_WEBHOOK_SECRET"),
			PriceIDMonthly: os.Getenv("STRIPE_PRICE_ID_MONTHLY"),
			FrontendURL:    envOrDefault("FRONTEND_URL", "https://writestuffassistant.com"),
			PortalLoginURL: os.Getenv("STRIPE_PORTAL_LOGIN_URL"),
		},
		Trial: TrialConfig{
			Queries: trialQueries,
			Days:    trialDays,
		},
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intFromEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
