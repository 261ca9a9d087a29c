package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jlowen/riskgate/internal/decision"
	"github.com/jlowen/riskgate/internal/testutil"
)

func TestPostgresStore_RecordAndList(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	s := NewPostgresStore(db)
	ctx := context.Background()

	pkg := pkgFor("txn_pg_1", 42.5)
	pkg.Output.RiskLevel = decision.RiskMedium
	pkg.Output.RecommendedAction = decision.ActionHold
	pkg.Output.Reasons = []decision.ReasonCode{
		{Code: "VELOCITY_SPIKE_24H", Weight: decision.ReasonWeight},
	}
	require.NoError(t, s.Record(ctx, pkg))

	got, err := s.ListByTransaction(ctx, "txn_pg_1", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 42.5, got[0].Output.RiskScore)
	assert.Equal(t, decision.RiskMedium, got[0].Output.RiskLevel)
	assert.Equal(t, decision.ActionHold, got[0].Output.RecommendedAction)
	require.Len(t, got[0].Output.Reasons, 1)
	assert.Equal(t, "VELOCITY_SPIKE_24H", got[0].Output.Reasons[0].Code)
}

func TestPostgresStore_HardBlockProjection(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	s := NewPostgresStore(db)
	ctx := context.Background()

	pkg := pkgFor("txn_pg_2", 100)
	pkg.Output.RiskLevel = decision.RiskHigh
	pkg.Output.RecommendedAction = decision.ActionBlock
	pkg.Output.HardBlocks = []string{"SANCTIONS_MATCH_CONFIDENCE>=0.9"}
	require.NoError(t, s.Record(ctx, pkg))

	var hardBlock bool
	err := db.QueryRowContext(ctx,
		"SELECT hard_block FROM decisions WHERE transaction_id = $1", "txn_pg_2").
		Scan(&hardBlock)
	require.NoError(t, err)
	assert.True(t, hardBlock)
}

func TestPostgresStore_ListOrderAndLimit(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	s := NewPostgresStore(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Record(ctx, pkgFor("txn_pg_3", float64(i*10))))
	}

	got, err := s.ListByTransaction(ctx, "txn_pg_3", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	none, err := s.ListByTransaction(ctx, "txn_pg_absent", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}
