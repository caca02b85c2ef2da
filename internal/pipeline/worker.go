package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/mbrennan/marginalia/internal/llm"
	"github.com/mbrennan/marginalia/internal/logger"
	"github.com/mbrennan/marginalia/internal/reader"
	"github.com/mbrennan/marginalia/internal/textproc"
)

// Summarizer is the slice of llm.Service the worker needs.
type Summarizer interface {
	Summarize(ctx context.Context, text string) llm.Result
	Keywords(ctx context.Context, text string, max int) llm.KeywordsResult
}

// Worker turns one queued snapshot into a digest.
type Worker struct {
	svc Summarizer
}

func NewWorker(svc Summarizer) *Worker {
	return &Worker{svc: svc}
}

// Process runs the digest phases in order: read, chunk, summarize,
// keywords. Model failures never fail the job — the service degrades to
// its deterministic fallbacks — so the only failure modes are unreadable
// snapshots and cancellation.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := logger.L().With("job_id", job.ID, "url", job.URL)

	job.SetStatus(StatusReading)
	article, err := reader.FromSnapshot(job.format, job.snapshot, job.URL)
	if err != nil {
		log.Errorw("snapshot unreadable", "error", err)
		job.AddError(fmt.Sprintf("read: %s", err))
		job.SetStatus(StatusFailed)
		return
	}

	job.SetStatus(StatusChunking)
	chunks := textproc.Chunk(article.Text, 0)
	job.SetTotalChunks(len(chunks))
	if len(chunks) == 0 {
		job.AddError("no extractable content")
		job.SetStatus(StatusFailed)
		return
	}
	log.Infow("chunked page", "chunks", len(chunks))

	// Chunk summaries run sequentially: one model conversation per page,
	// never concurrent calls within a job.
	job.SetStatus(StatusSummarizing)
	partials := make([]string, 0, len(chunks))
	summarySource := llm.SourceModel
	for _, chunk := range chunks {
		if ctx.Err() != nil {
			job.AddError(ctx.Err().Error())
			job.SetStatus(StatusFailed)
			return
		}
		r := w.svc.Summarize(ctx, chunk)
		if r.Source == llm.SourceFallback {
			summarySource = llm.SourceFallback
		}
		if r.Text != "" {
			partials = append(partials, r.Text)
		}
		job.IncrChunksSummarized()
	}

	summary := strings.Join(partials, " ")
	if len(partials) > 1 {
		combined := w.svc.Summarize(ctx, summary)
		if combined.Text != "" {
			summary = combined.Text
		}
		if combined.Source == llm.SourceFallback {
			summarySource = llm.SourceFallback
		}
	}

	job.SetStatus(StatusKeywords)
	kw := w.svc.Keywords(ctx, article.Text, 0)

	job.SetDigest(&Digest{
		Title:          article.Title,
		Summary:        summary,
		SummarySource:  summarySource,
		Keywords:       kw.Keywords,
		KeywordsSource: kw.Source,
	})
	job.SetStatus(StatusCompleted)
	log.Infow("digest complete", "summary_source", summarySource, "keywords", len(kw.Keywords))
}
