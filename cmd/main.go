package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/writestuff/writestuff-api/internal/auth"
	"github.com/writestuff/writestuff-api/pkg/api"
	"github.com/writestuff/writestuff-api/pkg/config"
	"github.com/writestuff/writestuff-api/pkg/repository/history"
	"github.com/writestuff/writestuff-api/pkg/repository/prompts"
	"github.com/writestuff/writestuff-api/pkg/repository/sqlitedb"
	"github.com/writestuff/writestuff-api/pkg/repository/subscriptions"
	"github.com/writestuff/writestuff-api/pkg/service/billing"
	"github.com/writestuff/writestuff-api/pkg/service/generate"
	"github.com/writestuff/writestuff-api/pkg/service/llm"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	db, err := sqlitedb.Open(sqlitedb.Config{DatabasePath: cfg.DatabasePath})
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	subsStore := subscriptions.NewStore(db)
	histStore := history.NewStore(db)
	promptStore := prompts.NewStore(db)

	client, err := newLLMClient(cfg)
	if err != nil {
		log.Fatal(err)
	}

	generator := generate.NewService(subsStore, histStore, promptStore, client)

	billingSvc := billing.NewService(subsStore, billing.Config{
		SecretKey:      cfg.Stripe.SecretKey,
		WebhookSecret:  cfg.Stripe.WebhookSecret,
		PriceIDMonthly: cfg.Stripe.PriceIDMonthly,
		FrontendURL:    cfg.Stripe.FrontendURL,
		PortalLoginURL: cfg.Stripe.PortalLoginURL,
		TrialDays:      cfg.Trial.Days,
	})

	verifier, err := auth.NewVerifier(auth.Config{
		Issuer:     cfg.Auth.Issuer,
		Audience:   cfg.Auth.Audience,
		HMACSecret: cfg.Auth.JWTSecret,
		JWKSURL:    cfg.Auth.JWKSURL,
	})
	if err != nil {
		// Tolerable in local development where auth is switched off.
		if !auth.AuthDisabled() {
			log.Fatal(err)
		}
		log.Printf("auth verifier unavailable, auth disabled: %v", err)
	}

	handler := api.NewHandler(generator, billingSvc, subsStore, histStore, promptStore, verifier, api.HandlerConfig{
		AdminEmail: cfg.Auth.AdminEmail,
		TrialSize:  cfg.Trial.Queries,
	})

	router := handler.Router()

	serverAddr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Server starting on port %s", cfg.Port)

	if err := http.ListenAndServe(serverAddr, router); err != nil {
		log.Fatal(err)
	}
}

func newLLMClient(cfg *config.Config) (llm.Client, error) {
	switch cfg.LLM.Provider {
	case "openai":
		if cfg.LLM.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required")
		}
		return llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey:    cfg.LLM.OpenAIAPIKey,
			Model:     cfg.LLM.OpenAIModel,
			MaxTokens: cfg.LLM.MaxTokens,
		}), nil
	case "anthropic", "":
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("LLM_API_KEY environment variable is required")
		}
		return llm.NewAnthropicClient(llm.AnthropicConfig{
			GatewayURL: cfg.LLM.GatewayURL,
			APIKey:     cfg.LLM.APIKey,
			Model:      cfg.LLM.Model,
			MaxTokens:  cfg.LLM.MaxTokens,
		}), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLM.Provider)
	}
}
