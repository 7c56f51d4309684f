package osm2act

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/tidwall/rtree"
)

// Bounded is anything which could be put into SpatialIndex
type Bounded interface {
	Bound() orb.Bound
}

// SpatialIndex is append-only bounding box index which owns its items.
// Identifier in the R-tree is always the position of the item in insertion order.
//
// Note: index stores bounding box at insertion time. Changing geometry of an item
// after insertion silently breaks queries, it is on the caller not to do so.
type SpatialIndex[T Bounded] struct {
	tree    rtree.RTreeG[int]
	items   []T
	counter int
}

// NewSpatialIndex returns empty index
func NewSpatialIndex[T Bounded]() *SpatialIndex[T] {
	return &SpatialIndex[T]{
		items: make([]T, 0),
	}
}

// Insert appends item and registers its bounding box under the next identifier
func (idx *SpatialIndex[T]) Insert(item T) {
	bound := item.Bound()
	idx.tree.Insert(
		[2]float64{bound.Min.X(), bound.Min.Y()},
		[2]float64{bound.Max.X(), bound.Max.Y()},
		idx.counter,
	)
	idx.items = append(idx.items, item)
	idx.counter++
}

// Query returns items which bounding boxes intersect given one (edges are inclusive).
// Only boxes are tested: callers have to filter candidates with exact geometry predicates.
// Items are ordered by insertion
func (idx *SpatialIndex[T]) Query(bound orb.Bound) []T {
	ids := make([]int, 0)
	idx.tree.Search(
		[2]float64{bound.Min.X(), bound.Min.Y()},
		[2]float64{bound.Max.X(), bound.Max.Y()},
		func(min, max [2]float64, id int) bool {
			ids = append(ids, id)
			return true
		},
	)
	sort.Ints(ids)
	output := make([]T, len(ids))
	for i, id := range ids {
		output[i] = idx.items[id]
	}
	return output
}

// Len returns number of inserted items
func (idx *SpatialIndex[T]) Len() int {
	return idx.counter
}

// Items returns owned items in insertion order. Slice must not be modified
func (idx *SpatialIndex[T]) Items() []T {
	return idx.items
}
