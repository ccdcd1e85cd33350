package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Aden1ke/Thera/internal/llm"
)

const (
	// DefaultTemperature is the sampling temperature for replies.
	DefaultTemperature = 0.7

	systemPrompt = "You are a compassionate therapist."

	userPromptTemplate = `The user is feeling %s and rates their distress as %s/10.
They wrote: "%s"
Here is some context you may use: %s
Make the conversation flow while and sounding human while making sure to maintain the qualities of a counsellor(A counselor does not talk too much)
Respond with empathy.`
)

// Completer produces the therapist reply for one entry.
type Completer interface {
	Complete(ctx context.Context, entry string, emotions []string, distress float64, contextText string) (string, error)
}

// LLMCompleter is a Completer backed by a chat-completion provider.
type LLMCompleter struct {
	provider    llm.Provider
	model       string
	temperature float64
	logger      *slog.Logger
}

// NewLLMCompleter creates a completer. An empty model uses the provider's
// configured model.
func NewLLMCompleter(provider llm.Provider, model string, temperature float64, logger *slog.Logger) *LLMCompleter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMCompleter{provider: provider, model: model, temperature: temperature, logger: logger}
}

// Prompt renders the user message sent to the model.
func Prompt(entry string, emotions []string, distress float64, contextText string) string {
	return fmt.Sprintf(userPromptTemplate,
		strings.Join(emotions, ", "),
		strconv.FormatFloat(distress, 'f', -1, 64),
		entry,
		contextText,
	)
}

func (c *LLMCompleter) Complete(ctx context.Context, entry string, emotions []string, distress float64, contextText string) (string, error) {
	resp, err := c.provider.Complete(ctx, llm.CompletionRequest{
		Model: c.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: systemPrompt},
			{Role: llm.RoleUser, Content: Prompt(entry, emotions, distress, contextText)},
		},
		Temperature: c.temperature,
	})
	if err != nil {
		return "", err
	}

	reply := strings.TrimSpace(resp.Content)
	if reply == "" {
		return "", fmt.Errorf("%s returned an empty reply", c.provider.Name())
	}

	c.logger.Debug("completion finished",
		"provider", c.provider.Name(),
		"model", resp.Model,
		"input_tokens", resp.InputTokens,
		"output_tokens", resp.OutputTokens,
		"cost_usd", llm.EstimateCost(resp.Model, resp.InputTokens, resp.OutputTokens),
	)
	return reply, nil
}
