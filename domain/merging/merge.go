// Package merging combines two graph snapshots under a selectable strategy.
package merging

import (
	"fmt"
	"strings"

	"graphdiff/domain/core/aggregates"
	"graphdiff/domain/core/entities"
	"graphdiff/domain/identity"
	pkgerrors "graphdiff/pkg/errors"
)

// Strategy selects how colliding identities are resolved
type Strategy string

const (
	StrategyUnion        Strategy = "union"
	StrategyIntersection Strategy = "intersection"
	StrategyPreferFirst  Strategy = "preferFirst"
	StrategyPreferSecond Strategy = "preferSecond"
)

// Strategies lists every supported strategy
var Strategies = []Strategy{StrategyUnion, StrategyIntersection, StrategyPreferFirst, StrategyPreferSecond}

// ParseStrategy accepts camelCase and snake_case spellings. An empty
// strategy means union.
func ParseStrategy(raw string) (Strategy, error) {
	switch strings.TrimSpace(raw) {
	case "", "union":
		return StrategyUnion, nil
	case "intersection":
		return StrategyIntersection, nil
	case "preferFirst", "prefer_first":
		return StrategyPreferFirst, nil
	case "preferSecond", "prefer_second":
		return StrategyPreferSecond, nil
	}

	return "", pkgerrors.NewValidationError(fmt.Sprintf("unknown merge strategy %q", raw)).
		WithCode("INVALID_MERGE_STRATEGY").
		WithDetails(map[string]interface{}{"allowed": Strategies})
}

// Statistics attributes merged identities to their sources.
// An identity present in both sources counts toward both tallies,
// whichever side's value was kept.
type Statistics struct {
	NodesFrom1 int `json:"nodesFrom1"`
	NodesFrom2 int `json:"nodesFrom2"`
	LinksFrom1 int `json:"linksFrom1"`
	LinksFrom2 int `json:"linksFrom2"`
	TotalNodes int `json:"totalNodes"`
	TotalLinks int `json:"totalLinks"`
}

// MergedGraph is the merged node and link collections
type MergedGraph struct {
	Nodes []entities.Node `json:"nodes"`
	Links []entities.Link `json:"links"`
}

// Snapshot returns the merged graph as a snapshot
func (g MergedGraph) Snapshot() aggregates.Snapshot {
	return aggregates.NewSnapshot(g.Nodes, g.Links)
}

// Result is the outcome of a merge
type Result struct {
	MergedGraph   MergedGraph `json:"mergedGraph"`
	Statistics    Statistics  `json:"statistics"`
	MergeStrategy Strategy    `json:"mergeStrategy"`
}

// Merge combines two snapshots. Node and link maps are merged independently.
func Merge(a, b aggregates.Snapshot, strategy Strategy) (*Result, error) {
	strategy, err := ParseStrategy(string(strategy))
	if err != nil {
		return nil, err
	}

	nodes1, nodes2 := identity.IndexNodes(a.Nodes), identity.IndexNodes(b.Nodes)
	links1, links2 := identity.IndexLinks(a.Links), identity.IndexLinks(b.Links)

	mergedNodes := combine(nodes1, nodes2, strategy)
	mergedLinks := combine(links1, links2, strategy)

	nodesFrom1, nodesFrom2 := attribute(mergedNodes, nodes1, nodes2)
	linksFrom1, linksFrom2 := attribute(mergedLinks, links1, links2)

	return &Result{
		MergedGraph: MergedGraph{
			Nodes: mergedNodes.Values(),
			Links: mergedLinks.Values(),
		},
		Statistics: Statistics{
			NodesFrom1: nodesFrom1,
			NodesFrom2: nodesFrom2,
			LinksFrom1: linksFrom1,
			LinksFrom2: linksFrom2,
			TotalNodes: mergedNodes.Len(),
			TotalLinks: mergedLinks.Len(),
		},
		MergeStrategy: strategy,
	}, nil
}

func combine[K comparable, V any](first, second *identity.Index[K, V], strategy Strategy) *identity.Index[K, V] {
	merged := identity.NewIndex[K, V](first.Len() + second.Len())

	switch strategy {
	case StrategyIntersection:
		for _, k := range first.Keys() {
			if second.Has(k) {
				v, _ := first.Get(k)
				merged.Put(k, v)
			}
		}
	case StrategyPreferFirst:
		overlay(merged, first, true)
		overlay(merged, second, false)
	case StrategyPreferSecond:
		overlay(merged, second, true)
		overlay(merged, first, false)
	default:
		overlay(merged, first, true)
		overlay(merged, second, true)
	}

	return merged
}

// overlay copies src into dst, replacing existing entries only when replace is set
func overlay[K comparable, V any](dst, src *identity.Index[K, V], replace bool) {
	for _, k := range src.Keys() {
		if !replace && dst.Has(k) {
			continue
		}
		v, _ := src.Get(k)
		dst.Put(k, v)
	}
}

func attribute[K comparable, V any](merged, first, second *identity.Index[K, V]) (from1, from2 int) {
	for _, k := range merged.Keys() {
		if first.Has(k) {
			from1++
		}
		if second.Has(k) {
			from2++
		}
	}
	return from1, from2
}
