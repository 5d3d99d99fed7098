package commands

import (
	"graphdiff/application/queries"
	"graphdiff/domain/comparison"
	"graphdiff/pkg/errors"
)

// SaveComparisonCommand persists a computed comparison under a new id
type SaveComparisonCommand struct {
	ComparisonID string
	Result       *comparison.Result
}

// Validate validates the command
func (c SaveComparisonCommand) Validate() error {
	if c.Result == nil {
		return errors.NewValidationError("comparison result is required")
	}
	return queries.ValidateComparisonID(c.ComparisonID)
}

// DeleteComparisonCommand removes a persisted comparison
type DeleteComparisonCommand struct {
	ComparisonID string
}

// Validate validates the command
func (c DeleteComparisonCommand) Validate() error {
	return queries.ValidateComparisonID(c.ComparisonID)
}
