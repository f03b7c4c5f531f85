package table

// HeaderState is the tri-state of the select-all checkbox.
type HeaderState string

const (
	HeaderUnchecked     HeaderState = "unchecked"
	HeaderChecked       HeaderState = "checked"
	HeaderIndeterminate HeaderState = "indeterminate"
)

// Selection is the set of selected row identifiers. Order carries no meaning;
// IDs keeps insertion order so responses are deterministic.
type Selection struct {
	ids   []string
	index map[string]int
}

func (s *Selection) init() {
	if s.index == nil {
		s.index = make(map[string]int)
	}
}

// SelectAll selects exactly visibleIDs when checked, and nothing otherwise.
func (s *Selection) SelectAll(checked bool, visibleIDs []string) {
	s.ids = nil
	s.index = make(map[string]int)
	if !checked {
		return
	}
	for _, id := range visibleIDs {
		s.add(id)
	}
}

// Toggle inserts id if absent and removes it if present.
func (s *Selection) Toggle(id string) {
	s.init()
	if _, ok := s.index[id]; ok {
		s.remove(id)
		return
	}
	s.add(id)
}

func (s *Selection) add(id string) {
	if _, ok := s.index[id]; ok {
		return
	}
	s.index[id] = len(s.ids)
	s.ids = append(s.ids, id)
}

func (s *Selection) remove(id string) {
	i := s.index[id]
	s.ids = append(s.ids[:i], s.ids[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.ids); j++ {
		s.index[s.ids[j]] = j
	}
}

// IsSelected reports whether id is in the set.
func (s *Selection) IsSelected(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Len is the number of selected ids.
func (s *Selection) Len() int { return len(s.ids) }

// IDs returns a copy of the selected ids.
func (s *Selection) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Clear empties the set.
func (s *Selection) Clear() { s.SelectAll(false, nil) }

// Header computes the select-all checkbox state from the selected ids among
// the visible ones. Selected rows hidden by search or filters do not count.
func (s *Selection) Header(visibleIDs []string) HeaderState {
	n := 0
	for _, id := range visibleIDs {
		if s.IsSelected(id) {
			n++
		}
	}
	switch {
	case n == 0:
		return HeaderUnchecked
	case n == len(visibleIDs):
		return HeaderChecked
	default:
		return HeaderIndeterminate
	}
}
