package folders

import "sort"

// FolderSet is a set of folder ids. The empty set is a sentinel meaning
// "no folder restriction", never "nothing allowed": see Unrestricted.
type FolderSet map[string]struct{}

// NewFolderSet returns a set holding ids.
func NewFolderSet(ids ...string) FolderSet {
	s := make(FolderSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}

	return s
}

// Contains reports whether id is in the set.
func (s FolderSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// ContainsAny reports whether any of ids is in the set.
func (s FolderSet) ContainsAny(ids []string) bool {
	for _, id := range ids {
		if s.Contains(id) {
			return true
		}
	}

	return false
}

// Unrestricted reports whether the set is the "no restriction" sentinel.
func (s FolderSet) Unrestricted() bool {
	return len(s) == 0
}

// Sorted returns the ids in lexical order.
func (s FolderSet) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}
