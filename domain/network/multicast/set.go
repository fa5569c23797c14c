package multicast

import (
	"slices"
)

// Set is a sorted, de-duplicated collection of groups. The zero value is empty.
type Set struct {
	groups []Group
}

func NewSet(groups ...Group) Set {
	var s Set
	for _, g := range groups {
		s.Add(g)
	}
	return s
}

// Add inserts g keeping order; it reports whether g was new.
func (s *Set) Add(g Group) bool {
	i, found := slices.BinarySearchFunc(s.groups, g, Group.Compare)
	if found {
		return false
	}
	s.groups = slices.Insert(s.groups, i, g)
	return true
}

func (s Set) Contains(g Group) bool {
	_, found := slices.BinarySearchFunc(s.groups, g, Group.Compare)
	return found
}

func (s Set) Len() int {
	return len(s.groups)
}

// Groups returns a copy of the members in ascending order.
func (s Set) Groups() []Group {
	return slices.Clone(s.groups)
}

func (s Set) Equal(o Set) bool {
	return slices.Equal(s.groups, o.groups)
}

// Diff returns the groups present in s but not in prev (added) and those
// present in prev but not in s (removed).
func (s Set) Diff(prev Set) (added, removed []Group) {
	i, j := 0, 0
	for i < len(s.groups) && j < len(prev.groups) {
		switch c := s.groups[i].Compare(prev.groups[j]); {
		case c < 0:
			added = append(added, s.groups[i])
			i++
		case c > 0:
			removed = append(removed, prev.groups[j])
			j++
		default:
			i++
			j++
		}
	}
	added = append(added, s.groups[i:]...)
	removed = append(removed, prev.groups[j:]...)
	return added, removed
}
