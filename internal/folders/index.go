// Package folders resolves a root-folder allow-list into the set of every
// folder underneath it. The whole folder corpus is listed once, indexed by
// parent, and walked breadth-first from the roots.
package folders

import (
	"iter"

	"github.com/ghive/ghive/internal/drive"
)

// Query lists every non-trashed folder. Only ids and parents are needed to
// build the index.
var Query = drive.ListQuery{
	Q:      drive.And("trashed = false", "mimeType = "+drive.Literal(drive.FolderMimeType)),
	Fields: "files(id, parents)",
}

// ChildIndex maps a folder id to the ids of its child folders in the order
// they were listed. It is append-only while being built and read-only after.
type ChildIndex map[string][]string

// BuildChildIndex drains folders into a ChildIndex. A folder with several
// parents is a child of each; a folder without parents adds no edge; a
// record without an id is skipped.
//
// If the stream fails, the error is returned with a nil index: a partial
// index would silently shrink the allowed set.
func BuildChildIndex(folders iter.Seq2[drive.File, error]) (ChildIndex, error) {
	idx := make(ChildIndex)

	for folder, err := range folders {
		if err != nil {
			return nil, err
		}

		if folder.ID == "" {
			continue
		}

		for _, parent := range folder.Parents {
			idx[parent] = append(idx[parent], folder.ID)
		}
	}

	return idx, nil
}

// Edges returns the total number of parent→child edges.
func (idx ChildIndex) Edges() int {
	n := 0
	for _, children := range idx {
		n += len(children)
	}

	return n
}

// Closure returns roots plus every folder reachable from them through the
// index. The walk is breadth-first with an explicit queue, so depth is not
// bounded by the stack, and the visited set makes cycles harmless.
func (idx ChildIndex) Closure(roots []string) FolderSet {
	allowed := make(FolderSet, len(roots))
	queue := append([]string(nil), roots...)

	for head := 0; head < len(queue); head++ {
		current := queue[head]
		if allowed.Contains(current) {
			continue
		}

		allowed[current] = struct{}{}

		for _, child := range idx[current] {
			if !allowed.Contains(child) {
				queue = append(queue, child)
			}
		}
	}

	return allowed
}
