package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/movie-night-core/server/internal/agent/model"
)

//go:embed template/recommendation_prompt.txt
var recommendationSystemPrompt string

const recommendationUserPrompt = `Genre: {{.Genre}}
Mood: {{.Mood}}
Candidates:
{{range .Candidates}}- {{.Title}}{{if .Genre}} ({{.Genre}}){{end}}
{{end}}`

// RenderRecommendation renders the system and user messages for one
// recommendation request through the Eino prompt component, so prompt
// callbacks fire.
func RenderRecommendation(ctx context.Context, req model.RecommendationRequest) ([]*schema.Message, error) {
	if len(req.Candidates) == 0 {
		return nil, fmt.Errorf("recommendation prompt: no candidates")
	}

	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(recommendationSystemPrompt),
		schema.UserMessage(recommendationUserPrompt),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"Genre":      strings.TrimSpace(req.Genre),
		"Mood":       strings.ToLower(strings.TrimSpace(req.Mood)),
		"Candidates": req.Candidates,
	})
	if err != nil {
		return nil, fmt.Errorf("recommendation prompt render: %w", err)
	}
	if len(msgs) != 2 || msgs[0] == nil || msgs[1] == nil {
		return nil, fmt.Errorf("recommendation prompt render: unexpected result")
	}
	return msgs, nil
}
