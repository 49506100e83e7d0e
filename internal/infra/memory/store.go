package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dvloznov/statement-scoring/internal/domain"
	"github.com/dvloznov/statement-scoring/internal/storage"
)

// Store is an in-memory storage.Store. It is safe for concurrent use;
// data is lost on restart.
type Store struct {
	mu         sync.RWMutex
	ledger     map[string][]domain.Transaction
	keys       map[string]map[domain.LedgerKey]struct{}
	aggregates map[string]*domain.Aggregates
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		ledger:     make(map[string][]domain.Transaction),
		keys:       make(map[string]map[domain.LedgerKey]struct{}),
		aggregates: make(map[string]*domain.Aggregates),
	}
}

// InsertLedger implements storage.LedgerRepository.
func (s *Store) InsertLedger(ctx context.Context, txs []domain.Transaction) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := 0
	for _, tx := range txs {
		if tx.StatementID == "" {
			return inserted, fmt.Errorf("InsertLedger: statement ID is required")
		}
		seen, ok := s.keys[tx.StatementID]
		if !ok {
			seen = make(map[domain.LedgerKey]struct{})
			s.keys[tx.StatementID] = seen
		}
		k := tx.Key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		s.ledger[tx.StatementID] = append(s.ledger[tx.StatementID], tx)
		inserted++
	}
	return inserted, nil
}

// ListLedger implements storage.LedgerRepository.
func (s *Store) ListLedger(ctx context.Context, statementID string) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := append([]domain.Transaction(nil), s.ledger[statementID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// ReplaceAggregates implements storage.AggregateRepository.
func (s *Store) ReplaceAggregates(ctx context.Context, agg *domain.Aggregates) error {
	if agg == nil || agg.StatementID == "" {
		return fmt.Errorf("ReplaceAggregates: statement ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.aggregates[agg.StatementID] = cloneAggregates(agg)
	return nil
}

// GetAggregates implements storage.AggregateRepository.
func (s *Store) GetAggregates(ctx context.Context, statementID string) (*domain.Aggregates, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agg, ok := s.aggregates[statementID]
	if !ok {
		return nil, fmt.Errorf("GetAggregates: %s: %w", statementID, domain.ErrStatementNotFound)
	}
	return cloneAggregates(agg), nil
}

// DeleteStatement implements storage.Store.
func (s *Store) DeleteStatement(ctx context.Context, statementID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ledger, statementID)
	delete(s.keys, statementID)
	delete(s.aggregates, statementID)
	return nil
}

// Close implements storage.Store.
func (s *Store) Close() error {
	return nil
}

func cloneAggregates(a *domain.Aggregates) *domain.Aggregates {
	c := &domain.Aggregates{
		StatementID: a.StatementID,
		Monthly:     append([]domain.MonthlySummary(nil), a.Monthly...),
		Recurring:   append([]domain.RecurringBill(nil), a.Recurring...),
	}
	if a.Loan != nil {
		loan := *a.Loan
		c.Loan = &loan
	}
	return c
}

var _ storage.Store = (*Store)(nil)
