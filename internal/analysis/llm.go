package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Aden1ke/Thera/internal/llm"
)

const llmSystemPrompt = `You classify the emotional content of a journal entry.
Reply with a JSON object only, shaped as
{"emotions": {"<emotion>": <confidence 0-1>, ...}, "distress_score": <number 0-10>}.
Use short lowercase emotion words such as sad, anxious, angry, lonely, hopeful, calm.
Include at most five emotions.`

// LLMAnalyzer asks a chat model for a JSON classification.
type LLMAnalyzer struct {
	provider llm.Provider
	model    string
}

// NewLLMAnalyzer creates an analyzer over provider. An empty model uses
// the provider default.
func NewLLMAnalyzer(provider llm.Provider, model string) *LLMAnalyzer {
	return &LLMAnalyzer{provider: provider, model: model}
}

func (a *LLMAnalyzer) Name() string { return "llm" }

func (a *LLMAnalyzer) Analyze(ctx context.Context, text string) (Result, error) {
	resp, err := a.provider.Complete(ctx, llm.CompletionRequest{
		Model: a.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: llmSystemPrompt},
			{Role: llm.RoleUser, Content: text},
		},
		MaxTokens:   200,
		Temperature: 0,
		JSONMode:    true,
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrFailed, err)
	}

	var p payload
	if err := json.Unmarshal([]byte(stripFence(resp.Content)), &p); err != nil {
		return Result{}, fmt.Errorf("%w: decoding model output: %w", ErrFailed, err)
	}
	return p.result(), nil
}

// stripFence removes a Markdown code fence some models add even in JSON
// mode.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
