// Package mongo is a MongoDB-backed storage.Store. Ledger rows are keyed by
// statement and ledger key so repeated inserts are no-ops; aggregates live in
// one document per statement, so a replace is a single atomic write.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/statement-scoring/internal/domain"
	"github.com/dvloznov/statement-scoring/internal/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	TransactionsCollection = "transactions_raw"
	AggregatesCollection   = "aggregates"
)

type ledgerDoc struct {
	ID          string           `bson:"_id"`
	StatementID string           `bson:"statement_id"`
	Date        time.Time        `bson:"date"`
	Description string           `bson:"description"`
	Amount      float64          `bson:"amount"`
	Direction   domain.Direction `bson:"direction"`
	Category    domain.Category  `bson:"category"`
}

func toLedgerDoc(tx domain.Transaction) ledgerDoc {
	return ledgerDoc{
		ID:          tx.StatementID + "|" + tx.Key().String(),
		StatementID: tx.StatementID,
		Date:        tx.Date.UTC(),
		Description: tx.Description,
		Amount:      tx.Amount,
		Direction:   tx.Direction,
		Category:    tx.Category,
	}
}

func (d ledgerDoc) transaction() domain.Transaction {
	return domain.Transaction{
		StatementID: d.StatementID,
		Date:        d.Date.UTC(),
		Description: d.Description,
		Amount:      d.Amount,
		Direction:   d.Direction,
		Category:    d.Category,
	}
}

// Repository implements storage.Store on MongoDB.
type Repository struct {
	provider CollectionProvider
	client   *mongo.Client
}

// NewRepository wraps a CollectionProvider. client may be nil, in which
// case Close is a no-op.
func NewRepository(provider CollectionProvider, client *mongo.Client) *Repository {
	return &Repository{provider: provider, client: client}
}

// InsertLedger implements storage.LedgerRepository.
func (r *Repository) InsertLedger(ctx context.Context, txs []domain.Transaction) (int, error) {
	if len(txs) == 0 {
		return 0, nil
	}

	models := make([]mongo.WriteModel, 0, len(txs))
	for _, tx := range txs {
		doc := toLedgerDoc(tx)
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": doc.ID}).
			SetUpdate(bson.M{"$setOnInsert": doc}).
			SetUpsert(true))
	}

	res, err := r.provider.Collection(TransactionsCollection).BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, fmt.Errorf("InsertLedger: %w", err)
	}
	return int(res.UpsertedCount), nil
}

// ListLedger implements storage.LedgerRepository.
func (r *Repository) ListLedger(ctx context.Context, statementID string) ([]domain.Transaction, error) {
	var docs []ledgerDoc
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	if err := r.provider.Collection(TransactionsCollection).FindAll(ctx, bson.M{"statement_id": statementID}, &docs, opts); err != nil {
		return nil, fmt.Errorf("ListLedger: %w", err)
	}

	out := make([]domain.Transaction, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.transaction())
	}
	return out, nil
}

// ReplaceAggregates implements storage.AggregateRepository.
func (r *Repository) ReplaceAggregates(ctx context.Context, agg *domain.Aggregates) error {
	if agg == nil || agg.StatementID == "" {
		return fmt.Errorf("ReplaceAggregates: statement ID is required")
	}
	_, err := r.provider.Collection(AggregatesCollection).ReplaceOne(ctx,
		bson.M{"_id": agg.StatementID}, agg, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("ReplaceAggregates: %w", err)
	}
	return nil
}

// GetAggregates implements storage.AggregateRepository.
func (r *Repository) GetAggregates(ctx context.Context, statementID string) (*domain.Aggregates, error) {
	var agg domain.Aggregates
	err := r.provider.Collection(AggregatesCollection).FindOne(ctx, bson.M{"_id": statementID}, &agg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("GetAggregates: %s: %w", statementID, domain.ErrStatementNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetAggregates: %w", err)
	}
	return &agg, nil
}

// DeleteStatement implements storage.Store.
func (r *Repository) DeleteStatement(ctx context.Context, statementID string) error {
	if _, err := r.provider.Collection(TransactionsCollection).DeleteMany(ctx, bson.M{"statement_id": statementID}); err != nil {
		return fmt.Errorf("DeleteStatement: %w", err)
	}
	if _, err := r.provider.Collection(AggregatesCollection).DeleteMany(ctx, bson.M{"_id": statementID}); err != nil {
		return fmt.Errorf("DeleteStatement: %w", err)
	}
	return nil
}

// Close disconnects the underlying client.
func (r *Repository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Disconnect(context.Background())
}

var _ storage.Store = (*Repository)(nil)
