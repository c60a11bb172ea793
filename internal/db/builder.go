package db

import "strings"

// IndexBuilder is a fluent builder for index definitions.
type IndexBuilder struct {
	def IndexDefinition
}

// NewIndex starts building an index definition.
func NewIndex(name string) *IndexBuilder {
	return &IndexBuilder{def: IndexDefinition{Name: name}}
}

// Nested declares dotted paths holding arrays of objects.
func (b *IndexBuilder) Nested(paths ...string) *IndexBuilder {
	b.def.Nested = append(b.def.Nested, paths...)
	return b
}

// Keyword adds exact-match string fields.
func (b *IndexBuilder) Keyword(names ...string) *IndexBuilder {
	return b.add(IndexFieldKeyword, names)
}

// Numeric adds numeric fields.
func (b *IndexBuilder) Numeric(names ...string) *IndexBuilder {
	return b.add(IndexFieldNumeric, names)
}

// Text adds analyzed text fields.
func (b *IndexBuilder) Text(names ...string) *IndexBuilder {
	return b.add(IndexFieldText, names)
}

// Boolean adds boolean fields.
func (b *IndexBuilder) Boolean(names ...string) *IndexBuilder {
	return b.add(IndexFieldBoolean, names)
}

// Timestamp adds RFC 3339 timestamp fields.
func (b *IndexBuilder) Timestamp(names ...string) *IndexBuilder {
	return b.add(IndexFieldTimestamp, names)
}

func (b *IndexBuilder) add(t IndexFieldType, names []string) *IndexBuilder {
	for _, n := range names {
		b.def.Fields = append(b.def.Fields, IndexField{Name: n, Type: t})
	}
	return b
}

// Build validates and returns the index definition.
func (b *IndexBuilder) Build() (*IndexDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	def := b.def
	def.Fields = append([]IndexField(nil), b.def.Fields...)
	def.Nested = append([]string(nil), b.def.Nested...)
	return &def, nil
}

// MustBuild calls Build and panics on error.
func (b *IndexBuilder) MustBuild() *IndexDefinition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}

// WithName returns a copy of the definition under another index name.
func (idx *IndexDefinition) WithName(name string) *IndexDefinition {
	cp := *idx
	cp.Name = name
	cp.Fields = append([]IndexField(nil), idx.Fields...)
	cp.Nested = append([]string(nil), idx.Nested...)
	return &cp
}

// String returns a compact debug representation of the mapping.
func (idx *IndexDefinition) String() string {
	parts := []string{"INDEX", idx.Name}
	if len(idx.Nested) > 0 {
		parts = append(parts, "NESTED")
		parts = append(parts, idx.Nested...)
	}
	parts = append(parts, "FIELDS")
	for i := range idx.Fields {
		parts = append(parts, idx.Fields[i].Name+":"+idx.Fields[i].Type.String())
	}
	return strings.Join(parts, " ")
}
