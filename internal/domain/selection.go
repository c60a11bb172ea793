package domain

// DefaultLimit is the page size used when a selection has no limit.
const DefaultLimit = 50

// Selection is an offset/limit page request.
type Selection struct {
	Offset int
	Limit  int
}

// All selects the first page with the default limit.
var All = Selection{}

// Normalize clamps negative offsets and applies defaultLimit when Limit <= 0.
func (s Selection) Normalize(defaultLimit int) Selection {
	if s.Offset < 0 {
		s.Offset = 0
	}
	if s.Limit <= 0 {
		s.Limit = defaultLimit
	}
	return s
}

// End is the exclusive upper bound of the selection.
func (s Selection) End() int { return s.Offset + s.Limit }
