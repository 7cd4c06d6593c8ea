package model

import "time"

// ================ Config ================
type SessionConfig struct {
	Backend   string        `envconfig:"SESSION_BACKEND" default:"redis" validate:"oneof=redis badger"`
	TTL       time.Duration `envconfig:"SESSION_TTL" default:"30m" validate:"gt=0"`
	KeyPrefix string        `envconfig:"SESSION_KEY_PREFIX" default:"movienight" validate:"required"`
}

type FlowConfig struct {
	MaxFriends int      `envconfig:"FLOW_MAX_FRIENDS" default:"5" validate:"min=1,max=5"`
	Genres     []string `envconfig:"FLOW_GENRES" default:"Action,Comedy,Drama,Horror,Romance,Sci-Fi,Thriller,Animation,Documentary" validate:"min=1"`
	Moods      []string `envconfig:"FLOW_MOODS" default:"Happy,Sad,Excited,Relaxed" validate:"min=1"`
}

type RecommendationModelConfig struct {
	Model          string        `envconfig:"RECOMMENDATION_MODEL" default:"gemini-2.5-flash" validate:"required"`
	MaxTokens      int           `envconfig:"RECOMMENDATION_MAX_TOKENS" default:"1024" validate:"gt=0"`
	Temperature    float32       `envconfig:"RECOMMENDATION_TEMPERATURE" default:"0.7" validate:"gte=0,lte=2"`
	ThinkingBudget int32         `envconfig:"RECOMMENDATION_THINKING_BUDGET" default:"0"`
	Timeout        time.Duration `envconfig:"RECOMMENDATION_TIMEOUT" default:"5s" validate:"gt=0"`
}

// DefaultFlowConfig mirrors the envconfig defaults for callers that build the graph directly.
func DefaultFlowConfig() FlowConfig {
	return FlowConfig{
		MaxFriends: 5,
		Genres:     []string{"Action", "Comedy", "Drama", "Horror", "Romance", "Sci-Fi", "Thriller", "Animation", "Documentary"},
		Moods:      []string{"Happy", "Sad", "Excited", "Relaxed"},
	}
}
