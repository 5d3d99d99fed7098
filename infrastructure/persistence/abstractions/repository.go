// Package abstractions holds storage helpers shared by every comparison
// store backend.
package abstractions

import (
	"sort"

	"graphdiff/application/ports"
	"graphdiff/domain/comparison"
	"graphdiff/pkg/common"
)

// SortSummaries orders summaries newest first. Ties and unparseable
// timestamps fall back to the comparison id so listings are stable.
func SortSummaries(items []comparison.Summary) {
	sort.SliceStable(items, func(i, j int) bool {
		ti := comparison.ParseTimestamp(items[i].CreatedAt)
		tj := comparison.ParseTimestamp(items[j].CreatedAt)
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return items[i].ComparisonID < items[j].ComparisonID
	})
}

// Page sorts summaries and returns the requested window plus the total
func Page(items []comparison.Summary, opts ports.ListOptions) ([]comparison.Summary, int) {
	SortSummaries(items)
	start, end := common.Window(len(items), opts.Offset, opts.Limit)
	page := make([]comparison.Summary, end-start)
	copy(page, items[start:end])
	return page, len(items)
}
