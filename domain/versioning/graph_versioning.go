package versioning

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"graphdiff/domain/comparison"
	"graphdiff/domain/core/aggregates"
	pkgerrors "graphdiff/pkg/errors"
)

// MinVersions is the smallest sequence that has an evolution
const MinVersions = 2

// StepChanges holds the full diff behind a step
type StepChanges struct {
	Nodes comparison.NodeDiff `json:"nodes"`
	Links comparison.LinkDiff `json:"links"`
}

// Step is the pairwise diff between consecutive versions
type Step struct {
	FromVersion     int         `json:"fromVersion"`
	ToVersion       int         `json:"toVersion"`
	Timestamp       string      `json:"timestamp"`
	NodesAdded      int         `json:"nodesAdded"`
	NodesRemoved    int         `json:"nodesRemoved"`
	NodesModified   int         `json:"nodesModified"`
	LinksAdded      int         `json:"linksAdded"`
	LinksRemoved    int         `json:"linksRemoved"`
	LinksModified   int         `json:"linksModified"`
	SimilarityScore float64     `json:"similarityScore"`
	Changes         StepChanges `json:"changes"`
}

// Summary aggregates additions and removals across all steps.
// Modification counts stay per step.
type Summary struct {
	TotalNodeAdditions int `json:"totalNodeAdditions"`
	TotalNodeRemovals  int `json:"totalNodeRemovals"`
	TotalLinkAdditions int `json:"totalLinkAdditions"`
	TotalLinkRemovals  int `json:"totalLinkRemovals"`
}

// Report is the evolution of an ordered sequence of snapshots
type Report struct {
	TotalVersions  int     `json:"totalVersions"`
	EvolutionSteps []Step  `json:"evolutionSteps"`
	Summary        Summary `json:"summary"`
}

// Tracker diffs consecutive snapshots
type Tracker struct {
	workers int
}

// NewTracker creates a tracker computing up to workers steps at once
func NewTracker(workers int) *Tracker {
	if workers < 1 {
		workers = 1
	}
	return &Tracker{workers: workers}
}

// Track computes one step per consecutive pair, in order
func (t *Tracker) Track(ctx context.Context, snapshots []aggregates.Snapshot) (*Report, error) {
	if len(snapshots) < MinVersions {
		return nil, pkgerrors.NewValidationError(
			fmt.Sprintf("at least %d versions required, got %d", MinVersions, len(snapshots)),
		).WithCode("INSUFFICIENT_VERSIONS")
	}

	steps := make([]Step, len(snapshots)-1)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(t.workers)

	for i := 1; i < len(snapshots); i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			steps[i-1] = step(i-1, i, snapshots[i-1], snapshots[i])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Report{
		TotalVersions:  len(snapshots),
		EvolutionSteps: steps,
		Summary:        summarize(steps),
	}, nil
}

func step(from, to int, prev, curr aggregates.Snapshot) Step {
	diff := comparison.Compare(prev, curr)

	return Step{
		FromVersion:     from,
		ToVersion:       to,
		Timestamp:       curr.Timestamp,
		NodesAdded:      diff.Nodes.CountAdded,
		NodesRemoved:    diff.Nodes.CountRemoved,
		NodesModified:   diff.Nodes.CountModified,
		LinksAdded:      diff.Links.CountAdded,
		LinksRemoved:    diff.Links.CountRemoved,
		LinksModified:   diff.Links.CountModified,
		SimilarityScore: diff.SimilarityScore,
		Changes: StepChanges{
			Nodes: diff.Nodes,
			Links: diff.Links,
		},
	}
}

func summarize(steps []Step) Summary {
	var s Summary
	for _, st := range steps {
		s.TotalNodeAdditions += st.NodesAdded
		s.TotalNodeRemovals += st.NodesRemoved
		s.TotalLinkAdditions += st.LinksAdded
		s.TotalLinkRemovals += st.LinksRemoved
	}
	return s
}
