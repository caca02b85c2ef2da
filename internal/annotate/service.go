// Package annotate orchestrates the core anchoring components around the
// record store: create a highlight from a live selection, restore every
// stored highlight on a fresh copy of a page, remove a highlight and its
// markers. The core packages stay pure; this is where persistence order
// and fallback policy live.
package annotate

import (
	"context"
	"fmt"

	"golang.org/x/net/html"

	"github.com/mbrennan/marginalia/internal/anchor"
	"github.com/mbrennan/marginalia/internal/dom"
	"github.com/mbrennan/marginalia/internal/highlight"
	"github.com/mbrennan/marginalia/internal/logger"
	"github.com/mbrennan/marginalia/internal/metrics"
	"github.com/mbrennan/marginalia/internal/record"
)

// Service wires the anchoring core to a record store.
type Service struct {
	store         record.Store
	metrics       *metrics.Metrics
	contextLength int
}

// New builds a Service. metrics may be nil (tests); contextLength <= 0
// selects the anchor default.
func New(store record.Store, m *metrics.Metrics, contextLength int) *Service {
	if contextLength <= 0 {
		contextLength = anchor.DefaultContextLength
	}
	return &Service{store: store, metrics: m, contextLength: contextLength}
}

// HighlightResult reports one created highlight. Marked is false when the
// record persisted but no marker could be placed (the selection did not
// wrap and the anchor did not relocate) — the record is kept, not rolled
// back, since it will render on the next visit if the page settles.
type HighlightResult struct {
	Record record.Record
	Marker *html.Node
	Marked bool
}

// HighlightSelection captures a live selection as a record and marks it in
// doc. The selection is serialized first (input errors surface to the
// caller), the record is persisted, then the marker is placed carrying the
// record id. If wrapping the live range fails, the freshly captured anchor
// is relocated and wrapped instead before giving up.
func (s *Service) HighlightSelection(ctx context.Context, doc *html.Node, url string, r dom.Range, typ record.Type, note, color string) (HighlightResult, error) {
	a, err := anchor.Serialize(doc, r, s.contextLength)
	if err != nil {
		return HighlightResult{}, err
	}

	rec, err := s.store.Add(ctx, record.Record{
		URL:    url,
		Quote:  a.Quote,
		Prefix: a.Prefix,
		Suffix: a.Suffix,
		Type:   typ,
		Note:   note,
		Color:  color,
	})
	if err != nil {
		return HighlightResult{}, fmt.Errorf("persist record: %w", err)
	}
	s.countRecordOp("add")

	marker := highlight.WrapRange(doc, r, classFor(typ), rec.ID)
	if marker == nil {
		if m := anchor.FindMatch(doc, a); m != nil {
			marker = highlight.WrapMatch(m, a.Quote, classFor(typ), rec.ID)
		}
	}
	if marker != nil {
		s.countHighlightApplied()
	} else {
		logger.L().Warnw("selection persisted but not marked", "record_id", rec.ID, "url", url)
	}
	return HighlightResult{Record: rec, Marker: marker, Marked: marker != nil}, nil
}

// HighlightOffsets is HighlightSelection for callers that address the
// selection as [start, end) byte offsets into the flattened text view, the
// form in which a remote client reports a selection.
func (s *Service) HighlightOffsets(ctx context.Context, doc *html.Node, url string, start, end int, typ record.Type, note, color string) (HighlightResult, error) {
	view := dom.NewTextView(doc)
	if start < 0 || end > len(view.Text) || start >= end {
		return HighlightResult{}, anchor.ErrInvalidSelection
	}
	startNode, startOff := view.Locate(start)
	endNode, endOff := view.Locate(end - 1)
	if startNode == nil || endNode == nil {
		return HighlightResult{}, anchor.ErrInvalidSelection
	}
	r := dom.Range{
		Start: dom.Boundary{Node: startNode, Offset: startOff},
		End:   dom.Boundary{Node: endNode, Offset: endOff + 1},
	}
	return s.HighlightSelection(ctx, doc, url, r, typ, note, color)
}

// RestoreOutcome reports one record's relocation on a page.
type RestoreOutcome struct {
	RecordID string `json:"record_id"`
	Quote    string `json:"quote"`
	Matched  bool   `json:"matched"`
	Drifted  bool   `json:"drifted"` // matched, but surrounding text changed
}

// Restore relocates and marks every stored record for url, in list order.
// A record that no longer matches is skipped silently — it stays stored
// and simply does not render on this visit.
func (s *Service) Restore(ctx context.Context, doc *html.Node, url string) ([]RestoreOutcome, error) {
	recs, err := s.store.ListByURL(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}

	outcomes := make([]RestoreOutcome, 0, len(recs))
	for _, rec := range recs {
		out := RestoreOutcome{RecordID: rec.ID, Quote: rec.Quote}

		m := anchor.FindMatch(doc, anchor.Anchor{
			Quote:  rec.Quote,
			Prefix: rec.Prefix,
			Suffix: rec.Suffix,
		})
		if m == nil {
			s.countMatch("missed")
			outcomes = append(outcomes, out)
			continue
		}
		s.countMatch("matched")
		out.Drifted = drifted(m, rec.Quote)

		if marker := highlight.WrapMatch(m, rec.Quote, classFor(rec.Type), rec.ID); marker != nil {
			out.Matched = true
			s.countHighlightApplied()
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

// RemoveRecord deletes a record and unwraps its markers from doc. Returns
// the number of marker pieces removed; record.ErrNotFound when the id is
// unknown (any stray markers are still cleaned up).
func (s *Service) RemoveRecord(ctx context.Context, doc *html.Node, id string) (int, error) {
	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("delete record: %w", err)
	}

	removed := highlight.RemoveByID(doc, id)
	if removed > 0 {
		s.countHighlightsRemoved(removed)
	}
	if !deleted {
		return removed, record.ErrNotFound
	}
	s.countRecordOp("delete")
	return removed, nil
}

func classFor(t record.Type) highlight.Class {
	if t == record.TypeConfused {
		return highlight.ClassConfused
	}
	return highlight.ClassImportant
}

// drifted reports whether the text at the match site differs from the
// stored quote — the match was chosen by context, not exact position.
func drifted(m *anchor.Match, quote string) bool {
	data := m.Node.Data
	off := min(max(m.Offset, 0), len(data))
	end := min(off+m.Length, len(data))
	return data[off:end] != quote
}

func (s *Service) countMatch(outcome string) {
	if s.metrics != nil {
		s.metrics.MatchOutcomes.WithLabelValues(outcome).Inc()
	}
}

func (s *Service) countHighlightApplied() {
	if s.metrics != nil {
		s.metrics.HighlightsApplied.Inc()
	}
}

func (s *Service) countHighlightsRemoved(n int) {
	if s.metrics != nil {
		s.metrics.HighlightsRemoved.Add(float64(n))
	}
}

func (s *Service) countRecordOp(op string) {
	if s.metrics != nil {
		s.metrics.RecordOps.WithLabelValues(op).Inc()
	}
}
