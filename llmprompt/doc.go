// Package llmprompt converts prompts built for LLM SDKs into
// calltrace.PromptPart sequences, so the exact prompt sent to a model can be
// written with calltrace.Tracer.LogLLMPrompt.
//
// Text blocks become the part's Text. Every other block (tool use, tool
// result, function call, inline data) becomes the part's Data and is printed
// as JSON.
//
//	tr.LogLLMPrompt(llmprompt.FromAnthropic(params.Messages), map[string]any{
//		"model": string(params.Model),
//	})
package llmprompt
