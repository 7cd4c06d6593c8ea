package recommend

import (
	"context"
	"errors"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movie-night-core/server/internal/agent/model"
	errx "github.com/movie-night-core/server/internal/core/error"
)

type fakeChatModel struct {
	reply *schema.Message
	err   error
	calls int
	input []*schema.Message
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	f.calls++
	f.input = input
	return f.reply, f.err
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

var comedies = []model.Movie{
	{Title: "Paddington 2", Genre: "Comedy"},
	{Title: "Hot Fuzz", Genre: "Comedy"},
}

func TestRecommendReturnsModelText(t *testing.T) {
	cm := &fakeChatModel{reply: &schema.Message{
		Role:    schema.Assistant,
		Content: "Hot Fuzz is a perfect happy watch.",
		ResponseMeta: &schema.ResponseMeta{
			Usage: &schema.TokenUsage{PromptTokens: 120, CompletionTokens: 20},
		},
	}}
	r := NewChatRecommender(cm, "gemini-2.5-flash")

	text, err := r.Recommend(context.Background(), model.RecommendationRequest{Genre: "Comedy", Mood: "Happy", Candidates: comedies})
	require.NoError(t, err)
	assert.Equal(t, "Hot Fuzz is a perfect happy watch.", text)
	assert.Equal(t, 1, cm.calls)
	require.Len(t, cm.input, 2)
	assert.Contains(t, cm.input[1].Content, "Paddington 2")
}

func TestRecommendWithoutCandidatesSkipsModel(t *testing.T) {
	cm := &fakeChatModel{}
	r := NewChatRecommender(cm, "gemini-2.5-flash")

	text, err := r.Recommend(context.Background(), model.RecommendationRequest{Genre: "Horror", Mood: "Sad"})
	require.NoError(t, err)
	assert.Equal(t, NoCandidatesMessage("Horror"), text)
	assert.Zero(t, cm.calls)
}

func TestRecommendModelFailure(t *testing.T) {
	cm := &fakeChatModel{err: errors.New("quota exceeded")}
	r := NewChatRecommender(cm, "gemini-2.5-flash")

	_, err := r.Recommend(context.Background(), model.RecommendationRequest{Genre: "Comedy", Mood: "Happy", Candidates: comedies})
	require.Error(t, err)
	assert.Equal(t, errx.KindDependency, errx.KindOf(err))
}

func TestRecommendRejectsOffListReply(t *testing.T) {
	cm := &fakeChatModel{reply: schema.AssistantMessage("Watch Inception.", nil)}
	r := NewChatRecommender(cm, "gemini-2.5-flash")

	_, err := r.Recommend(context.Background(), model.RecommendationRequest{Genre: "Comedy", Mood: "Happy", Candidates: comedies})
	require.Error(t, err)
	assert.Equal(t, errx.KindDependency, errx.KindOf(err))
}
