package events

import (
	"time"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

const (
	TypeComparisonSaved   = "comparison.saved"
	TypeComparisonDeleted = "comparison.deleted"
)

// Comparison Events

// ComparisonSaved is raised after a comparison result has been persisted
type ComparisonSaved struct {
	BaseEvent
	ComparisonID    string  `json:"comparison_id"`
	Name1           string  `json:"name1"`
	Name2           string  `json:"name2"`
	SimilarityScore float64 `json:"similarity_score"`
	TotalChanges    int     `json:"total_changes"`
	Backend         string  `json:"backend"`
}

// NewComparisonSaved creates a ComparisonSaved event
func NewComparisonSaved(comparisonID, name1, name2 string, similarity float64, totalChanges int, backend string, timestamp time.Time) ComparisonSaved {
	return ComparisonSaved{
		BaseEvent: BaseEvent{
			AggregateID: comparisonID,
			EventType:   TypeComparisonSaved,
			Timestamp:   timestamp,
			Version:     1,
		},
		ComparisonID:    comparisonID,
		Name1:           name1,
		Name2:           name2,
		SimilarityScore: similarity,
		TotalChanges:    totalChanges,
		Backend:         backend,
	}
}

// ComparisonDeleted is raised after a stored comparison has been removed
type ComparisonDeleted struct {
	BaseEvent
	ComparisonID string `json:"comparison_id"`
	Backend      string `json:"backend"`
}

// NewComparisonDeleted creates a ComparisonDeleted event
func NewComparisonDeleted(comparisonID, backend string, timestamp time.Time) ComparisonDeleted {
	return ComparisonDeleted{
		BaseEvent: BaseEvent{
			AggregateID: comparisonID,
			EventType:   TypeComparisonDeleted,
			Timestamp:   timestamp,
			Version:     1,
		},
		ComparisonID: comparisonID,
		Backend:      backend,
	}
}
