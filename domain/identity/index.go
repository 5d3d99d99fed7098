package identity

import (
	"graphdiff/domain/core/entities"
)

// Index is an identity-keyed view over a collection.
// Keys keep first-appearance order; on a repeated key the later value wins.
type Index[K comparable, V any] struct {
	keys   []K
	values map[K]V
}

// NewIndex creates an empty index sized for n entries
func NewIndex[K comparable, V any](n int) *Index[K, V] {
	return &Index[K, V]{
		keys:   make([]K, 0, n),
		values: make(map[K]V, n),
	}
}

// Put stores v under k, overwriting any previous value
func (ix *Index[K, V]) Put(k K, v V) {
	if _, exists := ix.values[k]; !exists {
		ix.keys = append(ix.keys, k)
	}
	ix.values[k] = v
}

// Get looks up a key
func (ix *Index[K, V]) Get(k K) (V, bool) {
	v, ok := ix.values[k]
	return v, ok
}

// Has reports whether a key is present
func (ix *Index[K, V]) Has(k K) bool {
	_, ok := ix.values[k]
	return ok
}

// Len returns the number of distinct keys
func (ix *Index[K, V]) Len() int {
	return len(ix.keys)
}

// Keys returns the keys in first-appearance order
func (ix *Index[K, V]) Keys() []K {
	out := make([]K, len(ix.keys))
	copy(out, ix.keys)
	return out
}

// Values returns the values in key order
func (ix *Index[K, V]) Values() []V {
	out := make([]V, len(ix.keys))
	for i, k := range ix.keys {
		out[i] = ix.values[k]
	}
	return out
}

// IndexNodes indexes nodes by normalized identity
func IndexNodes(nodes []entities.Node) *Index[string, entities.Node] {
	ix := NewIndex[string, entities.Node](len(nodes))
	for _, n := range nodes {
		ix.Put(NormalizeNodeIdentity(n), n)
	}
	return ix
}

// IndexLinks indexes links by normalized identity triple
func IndexLinks(links []entities.Link) *Index[LinkIdentity, entities.Link] {
	ix := NewIndex[LinkIdentity, entities.Link](len(links))
	for _, l := range links {
		ix.Put(NormalizeLinkIdentity(l), l)
	}
	return ix
}
