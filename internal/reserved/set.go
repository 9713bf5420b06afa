package reserved

import "strings"

// mapSet implements Set using a map for O(1) lookups.
type mapSet struct {
	codes map[string]struct{}
}

// NewMapSet creates a set holding the given codes.
func NewMapSet(codes ...string) Set {
	s := newMapSet(len(codes))
	for _, c := range codes {
		s.add(c)
	}
	return s
}

func newMapSet(capacity int) *mapSet {
	return &mapSet{codes: make(map[string]struct{}, capacity)}
}

func (s *mapSet) Contains(code string) bool {
	_, exists := s.codes[strings.ToUpper(code)]
	return exists
}

func (s *mapSet) Size() int {
	return len(s.codes)
}

func (s *mapSet) add(code string) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code != "" {
		s.codes[code] = struct{}{}
	}
}
