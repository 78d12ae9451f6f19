package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"site-rag/internal/domain"
	"site-rag/internal/usecase"
)

func TestSitePromptBuilder_Build(t *testing.T) {
	builder := usecase.NewSitePromptBuilder("Answer in English.")

	msgs, err := builder.Build(usecase.PromptInput{
		Question: "What apps does Jio offer?",
		Context:  "URL: https://x/apps\nTitle: Apps\nContent:\nMyJio\n\n---\n",
	})
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	assert.Equal(t, "user", msgs[0].Role)
	content := msgs[0].Content
	assert.Contains(t, content, "Question: What apps does Jio offer?")
	assert.Contains(t, content, "Content:\nMyJio")
	assert.Contains(t, content, domain.NotFoundAnswer)
	assert.Contains(t, content, "Sources:")
	assert.Contains(t, content, "Answer in English.")
	assert.Contains(t, content, "without extra detail")
}

func TestSitePromptBuilder_DetailedMode(t *testing.T) {
	msgs, err := usecase.NewSitePromptBuilder().Build(usecase.PromptInput{Question: "q", Detailed: true})
	require.NoError(t, err)
	assert.Contains(t, msgs[0].Content, "short bullet for each item")
	assert.NotContains(t, msgs[0].Content, "without extra detail")
}

func TestSitePromptBuilder_RequiresQuestion(t *testing.T) {
	_, err := usecase.NewSitePromptBuilder().Build(usecase.PromptInput{Question: "  "})
	assert.Error(t, err)
}
