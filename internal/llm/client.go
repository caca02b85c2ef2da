// Package llm talks to a local language model (an Ollama server) for
// summarization, keyword extraction, definitions, related-content prompts
// and translation, and degrades every operation to a deterministic
// rule-based fallback when the model is unreachable or misbehaves.
package llm

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Availability is the result of probing the local model.
type Availability string

const (
	Unavailable  Availability = "unavailable"  // server unreachable
	Downloadable Availability = "downloadable" // server up, model not pulled
	Downloading  Availability = "downloading"  // pull in flight
	Available    Availability = "available"    // model ready
)

// Client is the raw model interface. Generate returns the model's text for
// a prompt; parsing and fallback policy live above it in Service. Pull
// downloads the model and reports Downloading from Availability while it
// runs.
type Client interface {
	Availability(ctx context.Context) Availability
	Generate(ctx context.Context, prompt string) (string, error)
	Pull(ctx context.Context) error
	Model() string
}

// RetryableError marks a transient model failure worth retrying before
// falling back.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// stripCodeBlock removes a markdown fence the model may wrap JSON output in.
func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
