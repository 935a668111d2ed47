package anthropic

import (
	"fmt"
	"strings"

	"github.com/poiesic/audiomind/ai"
)

const basePrompt = "You are a direct and factual assistant. Your role is to analyze the provided podcast excerpts and answer questions using ONLY the information contained within them. Do not add personal opinions, recommendations, or commentary beyond what is explicitly stated in the excerpts. If the information needed isn't in the excerpts, simply state that fact without elaboration."

var styleInstructions = map[ai.Style]string{
	ai.StyleNormal:      "Respond in a balanced, straightforward manner.",
	ai.StyleConcise:     "Keep responses brief and to the point, focusing only on essential information.",
	ai.StyleExplanatory: "Provide detailed explanations with examples and context where relevant.",
	ai.StyleFormal:      "Use professional language and maintain a scholarly tone.",
}

// systemPrompt combines the grounding instructions with the style fragment.
func systemPrompt(style ai.Style) string {
	instruction, ok := styleInstructions[style]
	if !ok {
		instruction = styleInstructions[ai.StyleNormal]
	}
	return basePrompt + " " + instruction
}

// userPrompt renders the question over the retrieved excerpts, one
// excerpt paragraph per retrieval, in retrieval order.
func userPrompt(query string, excerpts []ai.Excerpt) string {
	lines := make([]string, len(excerpts))
	for i, e := range excerpts {
		lines[i] = fmt.Sprintf("From episode %q: %s", e.EpisodeTitle, e.Text)
	}

	return fmt.Sprintf(`Based solely on these podcast excerpts:

%s

Question: %s

Provide a response using only information from these excerpts. If the information isn't in the excerpts, simply state that.`,
		strings.Join(lines, "\n\n"), query)
}
