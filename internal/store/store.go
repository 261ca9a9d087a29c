// Package store persists decision packages for audit and replay.
package store

import (
	"context"

	"github.com/jlowen/riskgate/internal/decision"
)

// Store persists and retrieves decision packages.
type Store interface {
	Record(ctx context.Context, pkg *decision.DecisionPackage) error
	ListByTransaction(ctx context.Context, transactionID string, limit int) ([]*decision.DecisionPackage, error)
}
