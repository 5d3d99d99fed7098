package validators

import (
	"fmt"

	"graphdiff/domain/config"
	"graphdiff/domain/core/aggregates"
	"graphdiff/pkg/errors"
)

// SnapshotValidator enforces the configured size limits on incoming snapshots.
// Snapshot content itself is never rejected: malformed entries are compared
// as given.
type SnapshotValidator struct {
	maxNodes    int
	maxLinks    int
	maxVersions int
}

// NewSnapshotValidator creates a validator from the domain configuration
func NewSnapshotValidator(cfg *config.DomainConfig) *SnapshotValidator {
	return &SnapshotValidator{
		maxNodes:    cfg.MaxNodesPerSnapshot,
		maxLinks:    cfg.MaxLinksPerSnapshot,
		maxVersions: cfg.MaxVersions,
	}
}

// ValidateSnapshot checks a single snapshot. The field name is reported in
// the error details.
func (v *SnapshotValidator) ValidateSnapshot(field string, s aggregates.Snapshot) error {
	violations := make(map[string]interface{})

	if v.maxNodes > 0 && s.NodeCount() > v.maxNodes {
		violations[field+".nodes"] = fmt.Sprintf("%d nodes exceeds the limit of %d", s.NodeCount(), v.maxNodes)
	}
	if v.maxLinks > 0 && s.LinkCount() > v.maxLinks {
		violations[field+".links"] = fmt.Sprintf("%d links exceeds the limit of %d", s.LinkCount(), v.maxLinks)
	}

	if len(violations) > 0 {
		return errors.NewValidationError("snapshot exceeds configured limits").
			WithCode("SNAPSHOT_TOO_LARGE").
			WithDetails(violations)
	}
	return nil
}

// ValidatePair checks both sides of a compare or merge
func (v *SnapshotValidator) ValidatePair(a, b aggregates.Snapshot) error {
	if err := v.ValidateSnapshot("graph1", a); err != nil {
		return err
	}
	return v.ValidateSnapshot("graph2", b)
}

// ValidateSequence checks an evolution sequence. The minimum length is the
// tracker's concern; only the upper bound and per-snapshot limits are
// enforced here.
func (v *SnapshotValidator) ValidateSequence(snapshots []aggregates.Snapshot) error {
	if v.maxVersions > 0 && len(snapshots) > v.maxVersions {
		return errors.NewValidationError(
			fmt.Sprintf("%d versions exceeds the limit of %d", len(snapshots), v.maxVersions),
		).WithCode("TOO_MANY_VERSIONS")
	}

	for i, s := range snapshots {
		if err := v.ValidateSnapshot(fmt.Sprintf("graphVersions[%d]", i), s); err != nil {
			return err
		}
	}
	return nil
}
