package llmprompt

import (
	"google.golang.org/genai"

	"github.com/jonwraymond/tracekit/calltrace"
)

// FromGenAI converts Google GenAI contents into prompt parts, one per part,
// labelled with the content role. Nil contents and parts are skipped.
func FromGenAI(contents []*genai.Content) []calltrace.PromptPart {
	parts := make([]calltrace.PromptPart, 0, len(contents))
	for _, c := range contents {
		if c == nil {
			continue
		}
		for _, p := range c.Parts {
			if p == nil {
				continue
			}
			parts = append(parts, genaiPart(c.Role, p))
		}
	}
	return parts
}

func genaiPart(role string, p *genai.Part) calltrace.PromptPart {
	if p.Text != "" {
		return calltrace.PromptPart{Role: role, Text: p.Text}
	}
	return calltrace.PromptPart{Role: role, Data: p}
}
