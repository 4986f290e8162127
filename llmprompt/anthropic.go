package llmprompt

import (
	"github.com/anthropics/anthropic-sdk-go"

	"github.com/jonwraymond/tracekit/calltrace"
)

// SystemRole labels parts built from system instructions.
const SystemRole = "system"

// FromAnthropic converts Anthropic messages into prompt parts, one per content
// block, labelled with the message role.
func FromAnthropic(messages []anthropic.MessageParam) []calltrace.PromptPart {
	parts := make([]calltrace.PromptPart, 0, len(messages))
	for _, m := range messages {
		role := string(m.Role)
		for _, block := range m.Content {
			parts = append(parts, anthropicBlock(role, block))
		}
	}
	return parts
}

// FromAnthropicSystem converts Anthropic system text blocks into prompt parts.
func FromAnthropicSystem(system []anthropic.TextBlockParam) []calltrace.PromptPart {
	parts := make([]calltrace.PromptPart, 0, len(system))
	for _, b := range system {
		parts = append(parts, calltrace.PromptPart{Role: SystemRole, Text: b.Text})
	}
	return parts
}

func anthropicBlock(role string, block anthropic.ContentBlockParamUnion) calltrace.PromptPart {
	if block.OfText != nil {
		return calltrace.PromptPart{Role: role, Text: block.OfText.Text}
	}
	return calltrace.PromptPart{Role: role, Data: block}
}
