// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/dkotov/pitchlab/internal/domain"
	"github.com/dkotov/pitchlab/internal/learning"
)

// Repository defines the interface for persisting users, the scenario
// catalog and archived session reports.
type Repository interface {
	// GetUser retrieves a user by their user ID. Returns (nil, nil) when the
	// user does not exist.
	GetUser(ctx context.Context, userID string) (*domain.User, error)

	// UpsertUser creates or updates a user record.
	UpsertUser(ctx context.Context, user *domain.User) error

	// UpdateLastSeen updates the last_seen_at timestamp for a user.
	UpdateLastSeen(ctx context.Context, userID string, lastSeen time.Time) error

	// ListScenarios returns the scenario catalog, optionally only active
	// entries, ordered by difficulty then title.
	ListScenarios(ctx context.Context, activeOnly bool) ([]*domain.Scenario, error)

	// GetScenario retrieves one scenario. Returns (nil, nil) when absent.
	GetScenario(ctx context.Context, id string) (*domain.Scenario, error)

	// UpsertScenario creates or updates a catalog entry.
	UpsertScenario(ctx context.Context, scenario *domain.Scenario) error

	// IncrementScenarioCompletion bumps the completion counter after a
	// session using the scenario ends.
	IncrementScenarioCompletion(ctx context.Context, scenarioType string) error

	// SaveSessionReport archives the final report of an ended session.
	SaveSessionReport(ctx context.Context, report *learning.FinalReport) error

	// ListSessionReports returns a user's archived reports, newest first.
	ListSessionReports(ctx context.Context, userID string, limit int) ([]*learning.FinalReport, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
