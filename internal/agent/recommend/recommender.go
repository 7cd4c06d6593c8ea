package recommend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	einomodel "github.com/cloudwego/eino/components/model"

	"github.com/movie-night-core/server/internal/agent/graph/parsers"
	"github.com/movie-night-core/server/internal/agent/graph/prompts"
	"github.com/movie-night-core/server/internal/agent/model"
	errx "github.com/movie-night-core/server/internal/core/error"
	logx "github.com/movie-night-core/server/pkg/logger"
)

const msgNoCandidates = "None of the saved movies are %s titles. Send \"reset\" to plan a new movie night."

// NoCandidatesMessage is the reply when no saved movie matches the chosen genre.
func NoCandidatesMessage(genre string) string {
	return fmt.Sprintf(msgNoCandidates, genre)
}

// ChatRecommender picks one candidate movie with a chat model.
type ChatRecommender struct {
	chatModel einomodel.BaseChatModel
	modelName string
	pricing   model.Pricing
}

func NewChatRecommender(chatModel einomodel.BaseChatModel, modelName string) *ChatRecommender {
	return &ChatRecommender{
		chatModel: chatModel,
		modelName: modelName,
		pricing:   model.ResolvePricing(modelName),
	}
}

// Recommend returns a free-text recommendation naming one of req.Candidates.
// With no candidates it answers without calling the model.
func (r *ChatRecommender) Recommend(ctx context.Context, req model.RecommendationRequest) (string, error) {
	if len(req.Candidates) == 0 {
		return NoCandidatesMessage(req.Genre), nil
	}

	promptCtx := callbacks.ReuseHandlers(ctx, &callbacks.RunInfo{
		Name:      "RecommendationPrompt",
		Type:      "GoTemplate",
		Component: components.ComponentOfPrompt,
	})
	msgs, err := prompts.RenderRecommendation(promptCtx, req)
	if err != nil {
		return "", errx.New(err, http.StatusInternalServerError, errx.SystemErrorMessage)
	}

	modelCtx := callbacks.ReuseHandlers(ctx, &callbacks.RunInfo{
		Name:      r.modelName,
		Type:      "Gemini",
		Component: components.ComponentOfChatModel,
	})
	out, err := r.chatModel.Generate(modelCtx, msgs)
	if err != nil {
		return "", errx.Dependency(err, "recommendation engine unavailable")
	}
	if out == nil {
		return "", errx.Dependency(fmt.Errorf("nil message"), "recommendation engine returned no text")
	}

	if out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
		in, outCost, total := model.ComputeCost(out.ResponseMeta.Usage, r.pricing)
		logx.Ctx(ctx).Debug().
			Str("model", r.modelName).
			Int("prompt_tokens", out.ResponseMeta.Usage.PromptTokens).
			Int("completion_tokens", out.ResponseMeta.Usage.CompletionTokens).
			Float64("input_cost_usd", in).
			Float64("output_cost_usd", outCost).
			Float64("total_cost_usd", total).
			Msg("Recommendation usage")
	}

	return parsers.ParseRecommendation(out.Content, req.Candidates)
}
