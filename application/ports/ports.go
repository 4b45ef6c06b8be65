package ports

import (
	"context"
	"time"

	"questionnaire-builder/domain/config"
	"questionnaire-builder/domain/core/aggregates"
	"questionnaire-builder/domain/events"
)

// IDProvider mints opaque identifiers for questionnaires, questions and
// exported records. Tests swap in a deterministic sequence.
type IDProvider interface {
	NewID() string
}

// QuestionnaireRepository holds the editing sessions. Implementations
// serialise access per questionnaire: the callbacks run while the session
// is locked and must not retain the aggregate.
type QuestionnaireRepository interface {
	// Create stores a new questionnaire; an existing id is a conflict
	Create(ctx context.Context, q *aggregates.Questionnaire) error

	// Replace stores q under its id, creating or swapping the session
	Replace(ctx context.Context, q *aggregates.Questionnaire) error

	// View runs fn with read access to a questionnaire
	View(ctx context.Context, id string, fn func(q *aggregates.Questionnaire) error) error

	// Update runs fn with write access to a questionnaire
	Update(ctx context.Context, id string, fn func(q *aggregates.Questionnaire) error) error

	// Delete removes a questionnaire
	Delete(ctx context.Context, id string) error

	// List returns the ids of every stored questionnaire
	List(ctx context.Context) ([]string, error)
}

// EventPublisher delivers committed domain events.
type EventPublisher interface {
	Publish(ctx context.Context, evts []events.DomainEvent) error
}

// Position is the centre of a laid out node.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LayoutEdge is a directed edge handed to the layout engine.
type LayoutEdge struct {
	Source string
	Target string
}

// LayoutEngine computes node coordinates. It never validates topology.
type LayoutEngine interface {
	Layout(ctx context.Context, nodes []string, edges []LayoutEdge) (map[string]Position, error)
}

// DomainConfigProvider returns the domain configuration currently in force.
type DomainConfigProvider interface {
	Current() *config.DomainConfig
}

// MetricsRecorder receives application level measurements.
type MetricsRecorder interface {
	ObserveOperation(operation string, duration time.Duration, err error)
	ObserveImport(outcome string, diagnostics map[string]int)
	ObserveExport(records int)
	ObserveConnectionRejected(code string)
	SetSessions(n int)
}
