package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/mediadex/internal/db"
)

// envelope is the JSON stored per document. The FT schema indexes source
// fields under $.source and routing metadata at the root.
type envelope struct {
	Type   string          `json:"type"`
	ID     string          `json:"id"`
	Parent string          `json:"parent,omitempty"`
	Source json.RawMessage `json:"source"`
}

// Get reads one document with JSON.GET. A child whose stored parent differs
// from ref.Parent is reported as not found.
func (s *Store) Get(ctx context.Context, ref db.DocRef) (*db.Document, error) {
	cmd := s.b().Arbitrary("JSON.GET").Keys(s.docKey(ref.Index, ref.Type, ref.ID)).Build()
	raw, err := s.do(ctx, cmd).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpJSONGet, Err: err}
	}
	if raw == "" {
		return nil, db.ErrKeyNotFound
	}

	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, &db.Error{Op: db.OpJSONGet, Err: fmt.Errorf("decode envelope: %w", err)}
	}
	if ref.Parent != "" && env.Parent != ref.Parent {
		return nil, db.ErrKeyNotFound
	}

	return &db.Document{
		Index:  ref.Index,
		Type:   ref.Type,
		ID:     ref.ID,
		Parent: env.Parent,
		Source: env.Source,
	}, nil
}

// Bulk writes every item with JSON.SET in a single DoMulti round-trip.
// Rejected items are reported per document.
func (s *Store) Bulk(ctx context.Context, items []db.BulkItem) (*db.BulkResult, error) {
	res := &db.BulkResult{Items: len(items)}
	if len(items) == 0 {
		return res, nil
	}

	cmds := make([]rueidis.Completed, 0, len(items))
	pending := make([]int, 0, len(items))
	for i := range items {
		it := &items[i]
		data, err := encodeEnvelope(it)
		if err != nil {
			res.Failures = append(res.Failures, bulkFailure(it, err))
			continue
		}
		cmds = append(cmds, s.b().Arbitrary("JSON.SET").
			Keys(s.docKey(it.Index, it.Type, it.ID)).
			Args("$", string(data)).Build())
		pending = append(pending, i)
	}
	if len(cmds) == 0 {
		return res, nil
	}

	results := s.client.DoMulti(ctx, cmds...)
	if err := ctx.Err(); err != nil {
		return nil, &db.Error{Op: db.OpBulk, Err: err}
	}
	for j, r := range results {
		if err := r.Error(); err != nil {
			it := &items[pending[j]]
			res.Failures = append(res.Failures, bulkFailure(it, &db.Error{Op: db.OpJSONSet, Err: err}))
		}
	}
	return res, nil
}

func encodeEnvelope(it *db.BulkItem) ([]byte, error) {
	if it.Type == "" || it.ID == "" {
		return nil, fmt.Errorf("document type and id are required")
	}
	src, err := json.Marshal(it.Source)
	if err != nil {
		return nil, fmt.Errorf("marshal source: %w", err)
	}
	return json.Marshal(envelope{Type: it.Type, ID: it.ID, Parent: it.Parent, Source: src})
}

func bulkFailure(it *db.BulkItem, err error) db.BulkFailure {
	return db.BulkFailure{Index: it.Index, Type: it.Type, ID: it.ID, Err: err}
}
