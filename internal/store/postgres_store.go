package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jlowen/riskgate/internal/decision"
	"github.com/jlowen/riskgate/internal/idgen"
)

// PostgresStore persists decision packages in PostgreSQL. The full envelope
// is stored as JSONB so audit replay gets back exactly what was decided;
// score, level, and action are projected into columns for querying.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed decision store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Record(ctx context.Context, pkg *decision.DecisionPackage) error {
	envelope, err := json.Marshal(pkg)
	if err != nil {
		return fmt.Errorf("failed to marshal decision package: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO decisions (id, transaction_id, risk_score, risk_level, recommended_action, hard_block, package, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		idgen.WithPrefix("dec_"),
		pkg.Input.TransactionID,
		pkg.Output.RiskScore,
		string(pkg.Output.RiskLevel),
		string(pkg.Output.RecommendedAction),
		len(pkg.Output.HardBlocks) > 0,
		envelope,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record decision: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByTransaction(ctx context.Context, transactionID string, limit int) ([]*decision.DecisionPackage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT package
		FROM decisions
		WHERE transaction_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, transactionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list decisions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*decision.DecisionPackage
	for rows.Next() {
		var envelope []byte
		if err := rows.Scan(&envelope); err != nil {
			continue
		}
		var pkg decision.DecisionPackage
		if err := json.Unmarshal(envelope, &pkg); err != nil {
			continue
		}
		result = append(result, &pkg)
	}
	return result, rows.Err()
}
