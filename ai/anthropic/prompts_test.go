package anthropic

import (
	"strings"
	"testing"

	"github.com/poiesic/audiomind/ai"
	"github.com/stretchr/testify/assert"
)

func TestSystemPrompt(t *testing.T) {
	t.Run("each style appends its instruction", func(t *testing.T) {
		seen := map[string]bool{}
		for _, style := range ai.Styles {
			prompt := systemPrompt(style)
			assert.Contains(t, prompt, "podcast excerpts")
			seen[prompt] = true
		}
		assert.Len(t, seen, len(ai.Styles), "styles must produce distinct prompts")
	})

	t.Run("unknown style falls back to normal", func(t *testing.T) {
		assert.Equal(t, systemPrompt(ai.StyleNormal), systemPrompt(ai.Style("bogus")))
	})
}

func TestUserPrompt(t *testing.T) {
	excerpts := []ai.Excerpt{
		{EpisodeTitle: "Ep1", Text: "alpha"},
		{EpisodeTitle: "Ep2", Text: "beta"},
	}

	prompt := userPrompt("what is alpha?", excerpts)

	assert.Contains(t, prompt, `From episode "Ep1": alpha`)
	assert.Contains(t, prompt, `From episode "Ep2": beta`)
	assert.Contains(t, prompt, "Question: what is alpha?")
	// Excerpts appear in retrieval order.
	assert.Less(t, strings.Index(prompt, "alpha"), strings.Index(prompt, "beta"))
}
