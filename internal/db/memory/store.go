// Package memory is an in-process document store with the same query
// semantics as the Redis driver. Used for local runs and tests.
package memory

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/kailas-cloud/mediadex/internal/db"
	"github.com/kailas-cloud/mediadex/internal/db/match"
)

type docKey struct {
	typ string
	id  string
}

type entry struct {
	parent string
	source json.RawMessage
	doc    map[string]any
	seq    uint64
}

type index struct {
	def  *db.IndexDefinition
	docs map[docKey]*entry
}

// Store implements db.Store in memory.
type Store struct {
	mu      sync.RWMutex
	indexes map[string]*index
	seq     uint64
}

var _ db.Store = (*Store)(nil)

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{indexes: map[string]*index{}}
}

// Ping always succeeds unless ctx is done.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op.
func (s *Store) Close() {}

// WaitForReady returns immediately.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

// CreateIndex registers a mapping.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := def.Validate(); err != nil {
		return fmt.Errorf("validate index: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indexes[def.Name]; ok {
		return &db.Error{Op: db.OpCreateIndex, Err: db.ErrIndexExists}
	}
	s.indexes[def.Name] = &index{def: def.WithName(def.Name), docs: map[docKey]*entry{}}
	return nil
}

// DropIndex removes an index and its documents.
func (s *Store) DropIndex(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indexes[name]; !ok {
		return &db.Error{Op: db.OpDropIndex, Err: db.ErrIndexNotFound}
	}
	delete(s.indexes, name)
	return nil
}

// IndexExists reports whether name is defined.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.indexes[name]
	return ok, nil
}

// ListIndexes returns index names in ascending order.
func (s *Store) ListIndexes(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.indexes))
	for n := range s.indexes {
		names = append(names, n)
	}
	slices.Sort(names)
	return names, nil
}

// Get returns one document.
func (s *Store) Get(ctx context.Context, ref db.DocRef) (*db.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.indexes[ref.Index]
	if !ok {
		return nil, &db.Error{Op: db.OpJSONGet, Err: db.ErrIndexNotFound}
	}
	e, ok := idx.docs[docKey{typ: ref.Type, id: ref.ID}]
	if !ok || (ref.Parent != "" && e.parent != ref.Parent) {
		return nil, db.ErrKeyNotFound
	}
	return &db.Document{
		Index:  ref.Index,
		Type:   ref.Type,
		ID:     ref.ID,
		Parent: e.parent,
		Source: slices.Clone(e.source),
	}, nil
}

// Bulk writes every item independently. Items targeting an undefined index
// are rejected.
func (s *Store) Bulk(ctx context.Context, items []db.BulkItem) (*db.BulkResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res := &db.BulkResult{Items: len(items)}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range items {
		it := &items[i]
		if err := s.put(it); err != nil {
			res.Failures = append(res.Failures, db.BulkFailure{Index: it.Index, Type: it.Type, ID: it.ID, Err: err})
		}
	}
	return res, nil
}

func (s *Store) put(it *db.BulkItem) error {
	if it.Type == "" || it.ID == "" {
		return errors.New("document type and id are required")
	}
	idx, ok := s.indexes[it.Index]
	if !ok {
		return db.ErrIndexNotFound
	}
	raw, err := json.Marshal(it.Source)
	if err != nil {
		return fmt.Errorf("marshal source: %w", err)
	}
	doc, err := match.Decode(raw)
	if err != nil {
		return err
	}
	s.seq++
	idx.docs[docKey{typ: it.Type, id: it.ID}] = &entry{parent: it.Parent, source: raw, doc: doc, seq: s.seq}
	return nil
}

// Search evaluates the request over every document of the target indexes.
func (s *Store) Search(ctx context.Context, req *db.SearchRequest) (*db.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	type seqCandidate struct {
		seq uint64
		c   match.Candidate
	}
	var all []seqCandidate
	for _, name := range req.Indexes {
		idx, ok := s.indexes[name]
		if !ok {
			s.mu.RUnlock()
			return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("%w: %s", db.ErrIndexNotFound, name)}
		}
		for k, e := range idx.docs {
			all = append(all, seqCandidate{seq: e.seq, c: match.Candidate{
				Hit: db.Hit{Index: name, Type: k.typ, ID: k.id, Parent: e.parent, Source: e.source},
				Doc: e.doc,
			}})
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(all, func(a, b seqCandidate) int { return cmp.Compare(a.seq, b.seq) })
	candidates := make([]match.Candidate, len(all))
	for i := range all {
		candidates[i] = all[i].c
	}
	return match.Execute(req, candidates), nil
}
