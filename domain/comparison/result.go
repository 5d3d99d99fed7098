package comparison

import (
	"time"

	"github.com/google/uuid"

	"graphdiff/domain/core/aggregates"
	"graphdiff/domain/core/valueobjects"
)

const (
	DefaultName1 = "Graph 1"
	DefaultName2 = "Graph 2"
)

// GraphVersion is one named side of a comparison
type GraphVersion struct {
	VersionID string              `json:"versionId"`
	Name      string              `json:"name"`
	GraphData aggregates.Snapshot `json:"graphData"`
	Timestamp string              `json:"timestamp"`
	Metadata  valueobjects.Value  `json:"metadata"`
	Checksum  string              `json:"checksum,omitempty"`
}

// Result is a complete comparison of two graph versions.
// ComparisonID is only set once the result has been persisted.
type Result struct {
	ComparisonID string       `json:"comparisonId,omitempty"`
	Version1     GraphVersion `json:"version1"`
	Version2     GraphVersion `json:"version2"`
	Differences  Differences  `json:"differences"`
	CreatedAt    string       `json:"createdAt"`
}

// NewResult compares two snapshots and wraps them as named versions
func NewResult(a, b aggregates.Snapshot, name1, name2 string, now time.Time) (*Result, error) {
	if name1 == "" {
		name1 = DefaultName1
	}
	if name2 == "" {
		name2 = DefaultName2
	}

	stamp := FormatTimestamp(now)

	v1, err := newGraphVersion(a, name1, stamp)
	if err != nil {
		return nil, err
	}
	v2, err := newGraphVersion(b, name2, stamp)
	if err != nil {
		return nil, err
	}

	return &Result{
		Version1:    v1,
		Version2:    v2,
		Differences: Compare(a, b),
		CreatedAt:   stamp,
	}, nil
}

func newGraphVersion(s aggregates.Snapshot, name, stamp string) (GraphVersion, error) {
	checksum, err := s.Checksum()
	if err != nil {
		return GraphVersion{}, err
	}

	metadata := s.Metadata
	if metadata.Kind() != valueobjects.KindMap {
		metadata = valueobjects.Map(nil)
	}

	return GraphVersion{
		VersionID: uuid.New().String(),
		Name:      name,
		GraphData: s,
		Timestamp: stamp,
		Metadata:  metadata,
		Checksum:  checksum,
	}, nil
}

// Summary is the listing view of a stored comparison
type Summary struct {
	ComparisonID    string  `json:"comparisonId"`
	Name1           string  `json:"name1"`
	Name2           string  `json:"name2"`
	SimilarityScore float64 `json:"similarityScore"`
	TotalChanges    int     `json:"totalChanges"`
	CreatedAt       string  `json:"createdAt"`
}

// Summarize returns the listing view of the result
func (r *Result) Summarize() Summary {
	return Summary{
		ComparisonID:    r.ComparisonID,
		Name1:           r.Version1.Name,
		Name2:           r.Version2.Name,
		SimilarityScore: r.Differences.SimilarityScore,
		TotalChanges:    r.Differences.TotalChanges,
		CreatedAt:       r.CreatedAt,
	}
}

// CreatedTime parses CreatedAt; unparseable values sort as the zero time
func (r *Result) CreatedTime() time.Time {
	return ParseTimestamp(r.CreatedAt)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

// FormatTimestamp renders a UTC ISO-8601 timestamp
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseTimestamp accepts RFC 3339 and zone-less ISO-8601 timestamps
func ParseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
