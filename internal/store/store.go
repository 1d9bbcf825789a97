// Package store provides report persistence interfaces and implementations.
package store

import (
	"context"

	"github.com/yeoul-ai/debate-server/internal/domain"
)

// Repository defines the interface for persisting debate growth reports.
// Write failures are logged and swallowed by the report handler; a report is
// still returned to the caller when the sink is down.
type Repository interface {
	// SaveReport persists one generated report record.
	SaveReport(ctx context.Context, rec *domain.ReportRecord) error

	// ListReports returns all reports stored for a session, newest first.
	ListReports(ctx context.Context, sessionID string) ([]*domain.ReportRecord, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
