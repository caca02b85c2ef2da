// Package record defines the persisted unit of a highlight and the storage
// contract its backends implement. The record list is the single source of
// truth; markers in a document tree are disposable projections of records,
// regenerated on every visit, never the reverse.
package record

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type is the closed set of highlight styles.
type Type string

const (
	TypeImportant Type = "important"
	TypeConfused  Type = "confused"
)

// Valid reports whether t is a known highlight style.
func (t Type) Valid() bool {
	return t == TypeImportant || t == TypeConfused
}

// Record is one persisted highlight: an anchor plus the page it belongs to.
// URL partitions records per page. Note and Color are optional presentation
// extras carried alongside the anchor.
type Record struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Quote  string `json:"quote"`
	Prefix string `json:"prefix"`
	Suffix string `json:"suffix"`
	Type   Type   `json:"type"`

	Note  string `json:"note,omitempty"`
	Color string `json:"color,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the fields required at the persistence boundary.
func (r Record) Validate() error {
	if r.URL == "" {
		return errors.New("record url is required")
	}
	if r.Quote == "" {
		return errors.New("record quote is required")
	}
	if !r.Type.Valid() {
		return fmt.Errorf("record type %q is not one of important, confused", r.Type)
	}
	return nil
}

// Stamp assigns identity to a new record: a fresh id and creation time.
// Store implementations call it inside Add.
func Stamp(r Record) Record {
	r.ID = uuid.NewString()
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now
	return r
}

// Patch is a partial update. Nil fields stay untouched; id and created_at
// are immutable.
type Patch struct {
	URL    *string `json:"url,omitempty"`
	Quote  *string `json:"quote,omitempty"`
	Prefix *string `json:"prefix,omitempty"`
	Suffix *string `json:"suffix,omitempty"`
	Type   *Type   `json:"type,omitempty"`
	Note   *string `json:"note,omitempty"`
	Color  *string `json:"color,omitempty"`
}

// Apply merges p into r and stamps the update time.
func (p Patch) Apply(r Record) Record {
	if p.URL != nil {
		r.URL = *p.URL
	}
	if p.Quote != nil {
		r.Quote = *p.Quote
	}
	if p.Prefix != nil {
		r.Prefix = *p.Prefix
	}
	if p.Suffix != nil {
		r.Suffix = *p.Suffix
	}
	if p.Type != nil {
		r.Type = *p.Type
	}
	if p.Note != nil {
		r.Note = *p.Note
	}
	if p.Color != nil {
		r.Color = *p.Color
	}
	r.UpdatedAt = time.Now().UTC()
	return r
}

// ErrNotFound reports an id with no stored record. Restoration callers
// treat it as "skip this record", not as a failure.
var ErrNotFound = errors.New("record not found")

// Store is the persistence contract. The list order is insertion order and
// survives save/load round trips.
type Store interface {
	LoadAll(ctx context.Context) ([]Record, error)
	SaveAll(ctx context.Context, recs []Record) error
	Add(ctx context.Context, r Record) (Record, error)
	Update(ctx context.Context, id string, p Patch) (Record, error)
	ListByURL(ctx context.Context, url string) ([]Record, error)
	Delete(ctx context.Context, id string) (bool, error)
	Count(ctx context.Context) (int, error)
	ClearByURL(ctx context.Context, url string) (int, error)
}
