package stream

// SeenSet tracks the identifiers already accepted into the result list
type SeenSet struct {
	ids map[int]struct{}
}

// NewSeenSet creates an empty set
func NewSeenSet() *SeenSet {
	return &SeenSet{ids: make(map[int]struct{})}
}

// Has reports whether id was accepted before
func (s *SeenSet) Has(id int) bool {
	_, ok := s.ids[id]
	return ok
}

// Add records id and reports whether it was new
func (s *SeenSet) Add(id int) bool {
	if s.Has(id) {
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

func (s *SeenSet) Len() int {
	return len(s.ids)
}

// Reset forgets every id
func (s *SeenSet) Reset() {
	clear(s.ids)
}
