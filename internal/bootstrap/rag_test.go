package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"career-constellation/internal/ai"
	"career-constellation/internal/config"
)

func TestNewGeneratorGeminiWithoutKey(t *testing.T) {
	gen, err := NewGenerator(context.Background(), config.LLMConfig{Provider: "gemini", MaxRetries: 2})
	require.NoError(t, err)

	retrying, ok := gen.(*ai.RetryingGenerator)
	require.True(t, ok)
	assert.Equal(t, 2, retrying.MaxRetries)
	assert.Equal(t, ai.DefaultAttemptTimeout, retrying.AttemptTimeout)
	assert.IsType(t, &ai.GeminiClient{}, retrying.Next)
	assert.False(t, gen.Configured())
}

func TestNewGeneratorOpenAI(t *testing.T) {
	gen, err := NewGenerator(context.Background(), config.LLMConfig{
		Provider:              "openai",
		BaseURL:               "http://localhost:11434/v1",
		APIKey:                "k",
		Model:                 "llama3",
		AttemptTimeoutSeconds: 5,
	})
	require.NoError(t, err)

	retrying := gen.(*ai.RetryingGenerator)
	assert.IsType(t, &ai.OpenAICompatibleClient{}, retrying.Next)
	assert.Equal(t, 5*time.Second, retrying.AttemptTimeout)
	assert.True(t, gen.Configured())
}

func TestNewGeneratorUnknownProvider(t *testing.T) {
	_, err := NewGenerator(context.Background(), config.LLMConfig{Provider: "bard"})
	assert.Error(t, err)
}

func TestNewSourcesSkipsBlankOptionalFiles(t *testing.T) {
	src := NewSources(config.DataConfig{ReportsDir: "r", JobsFile: "jobs.csv"}, 0.9)
	assert.NotNil(t, src.Reports)
	assert.NotNil(t, src.Jobs)
	assert.Nil(t, src.Stats)
	assert.Nil(t, src.Similarity)
	assert.Equal(t, 0.9, src.DuplicateThreshold)
}

func TestCloseGeneratorUnwrapsRetrying(t *testing.T) {
	gen, err := NewGenerator(context.Background(), config.LLMConfig{})
	require.NoError(t, err)
	assert.NoError(t, CloseGenerator(gen))
}
