package comparison

import (
	"graphdiff/domain/core/aggregates"
)

// AxisSimilarity is unchanged / max(len1, len2, 1).
// When both sides are empty the denominator floors to 1 and the axis scores 0.
func AxisSimilarity(unchanged, len1, len2 int) float64 {
	return float64(unchanged) / float64(max(len1, len2, 1))
}

// Score averages node and link similarity. Lengths are the raw collection
// sizes as supplied, duplicates included.
func Score(nodes NodeDiff, links LinkDiff, a, b aggregates.Snapshot) float64 {
	nodeSim := AxisSimilarity(nodes.CountUnchanged, a.NodeCount(), b.NodeCount())
	linkSim := AxisSimilarity(links.CountUnchanged, a.LinkCount(), b.LinkCount())
	return (nodeSim + linkSim) / 2
}

// Differences is the full structural comparison of two snapshots
type Differences struct {
	Nodes           NodeDiff `json:"nodes"`
	Links           LinkDiff `json:"links"`
	SimilarityScore float64  `json:"similarityScore"`
	TotalChanges    int      `json:"totalChanges"`
}

// Compare diffs two snapshots. Added is relative to b; removed to a.
func Compare(a, b aggregates.Snapshot) Differences {
	nodes := CompareNodes(a.Nodes, b.Nodes)
	links := CompareLinks(a.Links, b.Links)

	return Differences{
		Nodes:           nodes,
		Links:           links,
		SimilarityScore: Score(nodes, links, a, b),
		TotalChanges:    nodes.Changed() + links.Changed(),
	}
}
