package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mbrennan/marginalia/internal/logger"
	"github.com/mbrennan/marginalia/internal/textproc"
)

// Source says which path produced a result.
type Source string

const (
	SourceModel    Source = "model"
	SourceFallback Source = "fallback"
)

// Result is a text outcome plus its provenance.
type Result struct {
	Text   string `json:"text"`
	Source Source `json:"source"`
}

// KeywordsResult is a ranked keyword list plus its provenance.
type KeywordsResult struct {
	Keywords []textproc.Keyword `json:"keywords"`
	Source   Source             `json:"source"`
}

// RelatedResult is a list of follow-up suggestions plus provenance.
type RelatedResult struct {
	Suggestions []string `json:"suggestions"`
	Source      Source   `json:"source"`
}

// Options tune the service's budgets and retry behavior.
type Options struct {
	Retries          int // transient-error retries per model call
	ChunkMaxChars    int // summarization chunk budget
	SummarySentences int // fallback summary length
	KeywordCount     int // default keyword list size
}

// Service layers availability checks, retries, output parsing and the
// deterministic fallbacks over a raw model client. Every operation
// succeeds: a model failure degrades the source, never errors out.
type Service struct {
	client Client
	stats  *Stats
	opts   Options

	// backoff is swapped out in tests to avoid real sleeps.
	backoff func(int) time.Duration
}

// NewService wraps client. A nil client pins every operation to the
// fallback path, which keeps the server useful with no model installed.
func NewService(client Client, stats *Stats, opts Options) *Service {
	if opts.Retries <= 0 {
		opts.Retries = DefaultMaxRetries
	}
	if opts.ChunkMaxChars <= 0 {
		opts.ChunkMaxChars = textproc.DefaultMaxChars
	}
	if opts.SummarySentences <= 0 {
		opts.SummarySentences = 3
	}
	if opts.KeywordCount <= 0 {
		opts.KeywordCount = textproc.DefaultKeywordCount
	}
	return &Service{client: client, stats: stats, opts: opts, backoff: Backoff}
}

// Availability probes the underlying model.
func (s *Service) Availability(ctx context.Context) Availability {
	if s.client == nil {
		return Unavailable
	}
	return s.client.Availability(ctx)
}

// Model names the configured model, or "" without a client.
func (s *Service) Model() string {
	if s.client == nil {
		return ""
	}
	return s.client.Model()
}

// Pull downloads the configured model. It runs synchronously; callers that
// must not block run it on their own goroutine and watch Availability.
func (s *Service) Pull(ctx context.Context) error {
	if s.client == nil {
		return errors.New("no model client configured")
	}
	return s.client.Pull(ctx)
}

// StatsSnapshot returns per-operation latency aggregates.
func (s *Service) StatsSnapshot() map[string]StatsSnapshot {
	if s.stats == nil {
		return nil
	}
	return s.stats.Snapshot()
}

// Summarize condenses text. Long input is chunked and summarized chunk by
// chunk, sequentially, then the partial summaries are condensed once more.
func (s *Service) Summarize(ctx context.Context, text string) Result {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{Source: SourceFallback}
	}

	if s.modelReady(ctx) {
		if summary, err := s.summarizeChunked(ctx, text); err == nil {
			return Result{Text: summary, Source: SourceModel}
		} else {
			logger.L().Warnw("model summary failed, falling back", "error", err)
		}
	}
	return Result{
		Text:   textproc.SummarizeLead(text, s.opts.SummarySentences, 0),
		Source: SourceFallback,
	}
}

func (s *Service) summarizeChunked(ctx context.Context, text string) (string, error) {
	chunks := textproc.Chunk(text, s.opts.ChunkMaxChars)
	partials := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		out, err := s.generate(ctx, "summarize", buildSummaryPrompt(chunk))
		if err != nil {
			return "", err
		}
		partials = append(partials, out)
	}
	if len(partials) == 1 {
		return partials[0], nil
	}
	return s.generate(ctx, "summarize", buildSummaryPrompt(strings.Join(partials, "\n\n")))
}

// Keywords extracts ranked keywords. Model output must be a JSON array of
// {word, count}; anything else counts as a model failure.
func (s *Service) Keywords(ctx context.Context, text string, max int) KeywordsResult {
	if max <= 0 {
		max = s.opts.KeywordCount
	}
	if s.modelReady(ctx) {
		out, err := s.generate(ctx, "keywords", buildKeywordsPrompt(text, max))
		if err == nil {
			if kws, perr := parseKeywords(out, max); perr == nil {
				return KeywordsResult{Keywords: kws, Source: SourceModel}
			} else {
				logger.L().Warnw("model keywords unparseable, falling back", "error", perr)
			}
		} else {
			logger.L().Warnw("model keywords failed, falling back", "error", err)
		}
	}
	return KeywordsResult{Keywords: textproc.Keywords(text, max), Source: SourceFallback}
}

// Define explains a term in the passage it was highlighted in.
func (s *Service) Define(ctx context.Context, term, passage string) Result {
	if strings.TrimSpace(term) == "" {
		return Result{Source: SourceFallback}
	}
	if s.modelReady(ctx) {
		if out, err := s.generate(ctx, "define", buildDefinePrompt(term, passage)); err == nil {
			return Result{Text: out, Source: SourceModel}
		} else {
			logger.L().Warnw("model definition failed, falling back", "error", err)
		}
	}
	return Result{Text: textproc.TemplateDefinition(term, passage), Source: SourceFallback}
}

// Related suggests follow-up topics for a passage.
func (s *Service) Related(ctx context.Context, text string, max int) RelatedResult {
	if max <= 0 {
		max = 5
	}
	if s.modelReady(ctx) {
		if out, err := s.generate(ctx, "related", buildRelatedPrompt(text, max)); err == nil {
			if lines := splitSuggestions(out, max); len(lines) > 0 {
				return RelatedResult{Suggestions: lines, Source: SourceModel}
			}
		} else {
			logger.L().Warnw("model suggestions failed, falling back", "error", err)
		}
	}
	kws := textproc.Keywords(text, max)
	return RelatedResult{Suggestions: textproc.TemplateRelated(kws, max), Source: SourceFallback}
}

// Translate renders text in targetLang. The deterministic floor returns
// the source text unchanged, flagged as fallback output.
func (s *Service) Translate(ctx context.Context, text, targetLang string) Result {
	if strings.TrimSpace(text) == "" || strings.TrimSpace(targetLang) == "" {
		return Result{Text: text, Source: SourceFallback}
	}
	if s.modelReady(ctx) {
		if out, err := s.generate(ctx, "translate", buildTranslatePrompt(text, targetLang)); err == nil {
			return Result{Text: out, Source: SourceModel}
		} else {
			logger.L().Warnw("model translation failed, falling back", "error", err)
		}
	}
	return Result{Text: text, Source: SourceFallback}
}

func (s *Service) modelReady(ctx context.Context) bool {
	return s.client != nil && s.client.Availability(ctx) == Available
}

// generate runs one model call with transient-error retries and latency
// recording.
func (s *Service) generate(ctx context.Context, op, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < s.opts.Retries; attempt++ {
		start := time.Now()
		out, err := s.client.Generate(ctx, prompt)
		if err == nil {
			if s.stats != nil {
				s.stats.Record(op, time.Since(start).Milliseconds())
			}
			return out, nil
		}
		lastErr = err
		if !IsRetryable(err) {
			break
		}
		select {
		case <-time.After(s.backoff(attempt)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", lastErr
}

// parseKeywords decodes and validates the model's keyword JSON. The whole
// output is rejected when it is not a JSON array; individual entries with
// an empty word or non-positive count are dropped.
func parseKeywords(raw string, max int) ([]textproc.Keyword, error) {
	var parsed []textproc.Keyword
	if err := json.Unmarshal([]byte(stripCodeBlock(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("parse keywords json: %w (raw: %s)", err, truncate(raw, 200))
	}
	out := make([]textproc.Keyword, 0, len(parsed))
	for _, kw := range parsed {
		kw.Word = strings.TrimSpace(kw.Word)
		if kw.Word == "" || kw.Count < 1 {
			continue
		}
		out = append(out, kw)
		if len(out) == max {
			break
		}
	}
	if len(out) == 0 {
		return nil, errors.New("no valid keywords in model output")
	}
	return out, nil
}

func splitSuggestions(raw string, max int) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "-*0123456789. "))
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) == max {
			break
		}
	}
	return out
}
