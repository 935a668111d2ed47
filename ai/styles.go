package ai

import "fmt"

// Style selects the tone of generated answers.
type Style string

const (
	// StyleNormal produces balanced, straightforward responses.
	StyleNormal Style = "normal"
	// StyleConcise keeps responses brief, focusing on essential information.
	StyleConcise Style = "concise"
	// StyleExplanatory produces detailed explanations with examples.
	StyleExplanatory Style = "explanatory"
	// StyleFormal uses professional language and a scholarly tone.
	StyleFormal Style = "formal"
)

// Styles lists every valid response style.
var Styles = []Style{StyleNormal, StyleConcise, StyleExplanatory, StyleFormal}

// ParseStyle validates a style name. The empty string parses to StyleNormal.
func ParseStyle(name string) (Style, error) {
	if name == "" {
		return StyleNormal, nil
	}
	for _, s := range Styles {
		if Style(name) == s {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown response style %q", name)
}
