package redis

import (
	"context"
	"errors"
	"strings"

	"github.com/kailas-cloud/mediadex/internal/db"
)

// tagSeparator keeps whole string values as single tags.
const tagSeparator = "\x1f"

// Routing metadata attributes present in every FT schema.
const (
	typeAttr   = "_type"
	parentAttr = "_parent"
)

// CreateIndex creates an FT index over the JSON documents of def.Name.
// The definition is remembered for query translation, also when the index
// already exists.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	args, err := s.buildCreateArgs(def)
	if err != nil {
		return err
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			s.remember(def)
			return db.ErrIndexExists
		}
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	s.remember(def)
	return nil
}

// DropIndex removes an FT index and its documents.
func (s *Store) DropIndex(ctx context.Context, name string) error {
	cmd := s.b().Arbitrary("FT.DROPINDEX").Args(s.ftName(name), "DD").Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "unknown index name") {
			return db.ErrIndexNotFound
		}
		return &db.Error{Op: db.OpDropIndex, Err: err}
	}
	s.forget(name)
	return nil
}

// IndexExists probes index existence via FT.INFO; "unknown index name" means absent.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(s.ftName(name)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "unknown index name") {
			return false, nil
		}
		return false, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
	return true, nil
}

// ListIndexes returns the logical names of the indexes under this prefix.
func (s *Store) ListIndexes(ctx context.Context) ([]string, error) {
	cmd := s.b().Arbitrary("FT._LIST").Build()
	names, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		return nil, &db.Error{Op: db.OpListIndexes, Err: err}
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		if index, ok := s.indexFromFT(n); ok {
			out = append(out, index)
		}
	}
	return out, nil
}

func (s *Store) buildCreateArgs(def *db.IndexDefinition) ([]string, error) {
	if def.Name == "" {
		return nil, errors.New("index name is required")
	}

	args := []string{
		s.ftName(def.Name),
		"ON", "JSON",
		"PREFIX", "1", s.keyPrefix(def.Name),
		"SCHEMA",
		"$.type", "AS", typeAttr, "TAG",
		"$.parent", "AS", parentAttr, "TAG",
	}

	for i := range def.Fields {
		args = append(args, buildFieldArgs(def, &def.Fields[i])...)
	}
	return args, nil
}

// buildFieldArgs maps one document field to its FT schema entry. Booleans and
// timestamps are not indexed; queries on them are evaluated after retrieval.
func buildFieldArgs(def *db.IndexDefinition, f *db.IndexField) []string {
	path := jsonPath(def, f.Name)
	alias := db.FieldAlias(f.Name)
	switch f.Type {
	case db.IndexFieldKeyword:
		return []string{path, "AS", alias, "TAG", "SEPARATOR", tagSeparator, "CASESENSITIVE"}
	case db.IndexFieldNumeric:
		return []string{path, "AS", alias, "NUMERIC"}
	case db.IndexFieldText:
		return []string{path, "AS", alias, "TEXT"}
	default:
		return nil
	}
}

// jsonPath renders a dotted source path as a JSONPath, expanding nested
// arrays: "broadcasts.channel" -> "$.source.broadcasts[*].channel".
func jsonPath(def *db.IndexDefinition, field string) string {
	segs := strings.Split(field, ".")
	var b strings.Builder
	b.WriteString("$.source")
	for i, seg := range segs {
		b.WriteByte('.')
		b.WriteString(seg)
		if i < len(segs)-1 && def.IsNested(strings.Join(segs[:i+1], ".")) {
			b.WriteString("[*]")
		}
	}
	return b.String()
}
