package model

import (
	"testing"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecommendationConfigDefaults(t *testing.T) {
	var cfg RecommendationModelConfig
	require.NoError(t, envconfig.Process("", &cfg))

	// one engine call is bounded like any other dependency call
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "gemini-2.5-flash", cfg.Model)
}

func TestRecommendationTimeoutOverride(t *testing.T) {
	t.Setenv("RECOMMENDATION_TIMEOUT", "12s")

	var cfg RecommendationModelConfig
	require.NoError(t, envconfig.Process("", &cfg))
	assert.Equal(t, 12*time.Second, cfg.Timeout)
}

func TestDefaultFlowConfigMatchesEnvDefaults(t *testing.T) {
	var cfg FlowConfig
	require.NoError(t, envconfig.Process("", &cfg))
	assert.Equal(t, DefaultFlowConfig(), cfg)
}
