package recommend

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"google.golang.org/genai"

	"github.com/movie-night-core/server/internal/agent/model"
	logx "github.com/movie-night-core/server/pkg/logger"
)

// GeminiConfig holds the credentials for the Gemini API.
type GeminiConfig struct {
	APIKey  string `envconfig:"GEMINI_API_KEY" validate:"required"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`
}

// NewGeminiChatModel creates the chat model backing the recommendation engine.
func NewGeminiChatModel(ctx context.Context, creds GeminiConfig, cfg model.RecommendationModelConfig) (*gemini.ChatModel, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  creds.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if creds.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = creds.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	temperature := cfg.Temperature
	maxTokens := cfg.MaxTokens
	geminiCfg := &gemini.Config{
		Client:      client,
		Model:       cfg.Model,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	}
	if cfg.ThinkingBudget > 0 {
		geminiCfg.ThinkingConfig = &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  genai.Ptr(cfg.ThinkingBudget),
		}
	}

	chatModel, err := gemini.NewChatModel(ctx, geminiCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating recommendation model")
		return nil, fmt.Errorf("error creating recommendation model: %w", err)
	}
	return chatModel, nil
}
