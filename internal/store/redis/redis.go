// Package redis persists the record list as one JSON value under a fixed
// key, for deployments where the service does not own local disk. The list
// is small (one user's highlights), so whole-value read-modify-write under
// the store mutex beats per-record keys in simplicity and keeps ordering
// trivially correct.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/mbrennan/marginalia/internal/record"
)

// DefaultKey is the fixed key holding the record list.
const DefaultKey = "marginalia:records"

// Backend stores the encoded list under a single key.
type Backend struct {
	client *goredis.Client
	key    string
}

// New returns a record store over the given client. An empty key selects
// DefaultKey.
func New(client *goredis.Client, key string) *record.ListStore {
	if key == "" {
		key = DefaultKey
	}
	return record.NewListStore(&Backend{client: client, key: key})
}

func (b *Backend) Load(ctx context.Context) ([]record.Record, error) {
	data, err := b.client.Get(ctx, b.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", b.key, err)
	}
	var recs []record.Record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", b.key, err)
	}
	return recs, nil
}

func (b *Backend) Save(ctx context.Context, recs []record.Record) error {
	data, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	if err := b.client.Set(ctx, b.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", b.key, err)
	}
	return nil
}
