package store

import (
	"context"
	"sync"

	"github.com/jlowen/riskgate/internal/decision"
)

// MemoryStore is an in-memory implementation of Store for demo/test use.
type MemoryStore struct {
	mu        sync.RWMutex
	decisions map[string][]*decision.DecisionPackage // transaction ID → packages
}

// NewMemoryStore creates an in-memory decision store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		decisions: make(map[string][]*decision.DecisionPackage),
	}
}

func (s *MemoryStore) Record(ctx context.Context, pkg *decision.DecisionPackage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *pkg
	s.decisions[pkg.Input.TransactionID] = append(s.decisions[pkg.Input.TransactionID], &cp)
	return nil
}

func (s *MemoryStore) ListByTransaction(ctx context.Context, transactionID string, limit int) ([]*decision.DecisionPackage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.decisions[transactionID]
	if len(all) == 0 {
		return nil, nil
	}

	// Return most recent first, up to limit
	start := len(all) - limit
	if start < 0 {
		start = 0
	}

	result := make([]*decision.DecisionPackage, 0, len(all)-start)
	for i := len(all) - 1; i >= start; i-- {
		cp := *all[i]
		result = append(result, &cp)
	}
	return result, nil
}
