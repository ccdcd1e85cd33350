package chat

import "errors"

var (
	// ErrAnalysis wraps failures to analyze or persist a journal entry.
	ErrAnalysis = errors.New("chat: analysis failed")
	// ErrCompletion wraps failures of the completion backend.
	ErrCompletion = errors.New("chat: completion failed")
)
