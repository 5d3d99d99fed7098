// Package comparison computes structural differences between two graph
// snapshots and reduces them to a similarity score.
package comparison

import (
	"graphdiff/domain/core/entities"
	"graphdiff/domain/core/valueobjects"
	"graphdiff/domain/identity"
)

// PropertyChange is the old and new value of a single key
type PropertyChange struct {
	Old valueobjects.Value `json:"old"`
	New valueobjects.Value `json:"new"`
}

// ChangeMap holds the keys whose values differ between two documents
type ChangeMap map[string]PropertyChange

// PropertyChanges compares two maps key by key. A key missing on one side
// counts as null there, so an absent key and an explicit null are equal.
func PropertyChanges(before, after valueobjects.Value) ChangeMap {
	changes := make(ChangeMap)

	seen := make(map[string]struct{}, before.Len()+after.Len())
	keys := append(before.Keys(), after.Keys()...)
	for _, key := range keys {
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		oldVal, _ := before.Get(key)
		newVal, _ := after.Get(key)
		if !oldVal.Equal(newVal) {
			changes[key] = PropertyChange{Old: oldVal, New: newVal}
		}
	}

	return changes
}

// NodeChange describes a node present on both sides with different content
type NodeChange struct {
	ID      string        `json:"id"`
	Old     entities.Node `json:"old"`
	New     entities.Node `json:"new"`
	Changes ChangeMap     `json:"changes"`
}

// LinkChange describes a link present on both sides with different content.
// The change map covers link properties only.
type LinkChange struct {
	Link    identity.LinkIdentity `json:"link"`
	Old     entities.Link         `json:"old"`
	New     entities.Link         `json:"new"`
	Changes ChangeMap             `json:"changes"`
}

// DiffSet is the four-way partition of two identity-indexed collections.
// Element order carries no meaning.
type DiffSet[T any, C any] struct {
	Added          []T `json:"added"`
	Removed        []T `json:"removed"`
	Modified       []C `json:"modified"`
	Unchanged      []T `json:"unchanged"`
	CountAdded     int `json:"countAdded"`
	CountRemoved   int `json:"countRemoved"`
	CountModified  int `json:"countModified"`
	CountUnchanged int `json:"countUnchanged"`
}

// NodeDiff is the node partition
type NodeDiff = DiffSet[entities.Node, NodeChange]

// LinkDiff is the link partition
type LinkDiff = DiffSet[entities.Link, LinkChange]

// Changed returns added + removed + modified
func (d DiffSet[T, C]) Changed() int {
	return d.CountAdded + d.CountRemoved + d.CountModified
}

// CompareNodes partitions two node collections by normalized identity
func CompareNodes(nodes1, nodes2 []entities.Node) NodeDiff {
	return partition(
		identity.IndexNodes(nodes1),
		identity.IndexNodes(nodes2),
		entities.Node.Equal,
		func(id string, before, after entities.Node) NodeChange {
			return NodeChange{
				ID:      id,
				Old:     before,
				New:     after,
				Changes: PropertyChanges(before.Content(), after.Content()),
			}
		},
	)
}

// CompareLinks partitions two link collections by (source, target, type)
func CompareLinks(links1, links2 []entities.Link) LinkDiff {
	return partition(
		identity.IndexLinks(links1),
		identity.IndexLinks(links2),
		entities.Link.Equal,
		func(id identity.LinkIdentity, before, after entities.Link) LinkChange {
			return LinkChange{
				Link:    id,
				Old:     before,
				New:     after,
				Changes: PropertyChanges(before.Properties(), after.Properties()),
			}
		},
	)
}

func partition[K comparable, T any, C any](
	side1, side2 *identity.Index[K, T],
	equal func(a, b T) bool,
	change func(key K, before, after T) C,
) DiffSet[T, C] {
	d := DiffSet[T, C]{
		Added:     make([]T, 0),
		Removed:   make([]T, 0),
		Modified:  make([]C, 0),
		Unchanged: make([]T, 0),
	}

	for _, key := range side2.Keys() {
		if !side1.Has(key) {
			v, _ := side2.Get(key)
			d.Added = append(d.Added, v)
		}
	}

	for _, key := range side1.Keys() {
		before, _ := side1.Get(key)
		after, ok := side2.Get(key)
		switch {
		case !ok:
			d.Removed = append(d.Removed, before)
		case equal(before, after):
			d.Unchanged = append(d.Unchanged, before)
		default:
			d.Modified = append(d.Modified, change(key, before, after))
		}
	}

	d.CountAdded = len(d.Added)
	d.CountRemoved = len(d.Removed)
	d.CountModified = len(d.Modified)
	d.CountUnchanged = len(d.Unchanged)
	return d
}
