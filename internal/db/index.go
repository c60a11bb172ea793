package db

import (
	"errors"
	"strconv"
	"strings"
)

// IndexFieldType enumerates supported index field types.
type IndexFieldType int

const (
	// IndexFieldKeyword is an exact-match string field.
	IndexFieldKeyword IndexFieldType = iota
	// IndexFieldNumeric is a numeric field.
	IndexFieldNumeric
	// IndexFieldText is an analyzed full-text field.
	IndexFieldText
	// IndexFieldBoolean is a boolean field.
	IndexFieldBoolean
	// IndexFieldTimestamp is an RFC 3339 timestamp field.
	IndexFieldTimestamp
)

func (t IndexFieldType) String() string {
	switch t {
	case IndexFieldKeyword:
		return "keyword"
	case IndexFieldNumeric:
		return "numeric"
	case IndexFieldText:
		return "text"
	case IndexFieldBoolean:
		return "boolean"
	case IndexFieldTimestamp:
		return "timestamp"
	default:
		return "unknown(" + strconv.Itoa(int(t)) + ")"
	}
}

// IndexField describes a single field of a document mapping. Name is the
// dotted document path.
type IndexField struct {
	Name string
	Type IndexFieldType
}

// IndexDefinition is a complete document mapping for one index. Nested
// lists the dotted paths that hold arrays of objects matched per element.
type IndexDefinition struct {
	Name   string
	Fields []IndexField
	Nested []string
}

// Validate checks that the index definition is well-formed.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return errors.New("index name is required")
	}
	if !IsValidIdentifier(idx.Name) {
		return errors.New("index name contains invalid characters")
	}
	if len(idx.Fields) == 0 {
		return errors.New("at least one field is required")
	}

	nested := make(map[string]bool, len(idx.Nested))
	for _, p := range idx.Nested {
		if p == "" {
			return errors.New("nested path is required")
		}
		nested[p] = true
	}

	seen := make(map[string]bool)
	for i := range idx.Fields {
		f := &idx.Fields[i]
		if f.Name == "" {
			return errors.New("field name is required at index " + strconv.Itoa(i))
		}
		if seen[f.Name] {
			return errors.New("duplicate field name: " + f.Name)
		}
		if nested[f.Name] {
			return errors.New("field " + f.Name + " is declared as a nested path")
		}
		seen[f.Name] = true
	}

	return nil
}

// IsNested reports whether path is one of the nested paths.
func (idx *IndexDefinition) IsNested(path string) bool {
	for _, p := range idx.Nested {
		if p == path {
			return true
		}
	}
	return false
}

// Field returns the field mapped at path.
func (idx *IndexDefinition) Field(path string) (IndexField, bool) {
	for _, f := range idx.Fields {
		if f.Name == path {
			return f, true
		}
	}
	return IndexField{}, false
}

// IsValidIdentifier returns true if s matches [a-zA-Z0-9_:-]+.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		isSpecial := r == '_' || r == ':' || r == '-'
		if !isAlpha && !isDigit && !isSpecial {
			return false
		}
	}
	return true
}

// FieldAlias flattens a dotted path into an identifier usable as a
// schema attribute name ("broadcasts.channel" -> "broadcasts_channel").
func FieldAlias(path string) string {
	return strings.ReplaceAll(path, ".", "_")
}
