package query

// Order is a sort direction.
type Order string

// Sort orders.
const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// Sort orders hits by a possibly nested, possibly multi-valued field.
// Multi-valued fields sort by their maximum value descending and their
// minimum value ascending. Documents without the field sort last.
type Sort struct {
	Field string
	Order Order
}

// TermsAggregation counts documents per distinct value of Field.
type TermsAggregation struct {
	Field string
	Size  int
}
