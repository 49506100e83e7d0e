package mongo_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/dvloznov/statement-scoring/internal/domain"
	mongostore "github.com/dvloznov/statement-scoring/internal/infra/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mockDataStore implements DataStore for testing.
type mockDataStore struct {
	bulkWriteFunc  func(ctx context.Context, models []mongo.WriteModel, opts ...*options.BulkWriteOptions) (*mongo.BulkWriteResult, error)
	replaceOneFunc func(ctx context.Context, filter interface{}, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error)
	deleteManyFunc func(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
	findAllFunc    func(ctx context.Context, filter interface{}, results interface{}, opts ...*options.FindOptions) error
	findOneFunc    func(ctx context.Context, filter interface{}, result interface{}) error
}

func (m *mockDataStore) BulkWrite(ctx context.Context, models []mongo.WriteModel, opts ...*options.BulkWriteOptions) (*mongo.BulkWriteResult, error) {
	if m.bulkWriteFunc != nil {
		return m.bulkWriteFunc(ctx, models, opts...)
	}
	return &mongo.BulkWriteResult{}, nil
}

func (m *mockDataStore) ReplaceOne(ctx context.Context, filter interface{}, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error) {
	if m.replaceOneFunc != nil {
		return m.replaceOneFunc(ctx, filter, replacement, opts...)
	}
	return &mongo.UpdateResult{}, nil
}

func (m *mockDataStore) DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	if m.deleteManyFunc != nil {
		return m.deleteManyFunc(ctx, filter, opts...)
	}
	return &mongo.DeleteResult{}, nil
}

func (m *mockDataStore) FindAll(ctx context.Context, filter interface{}, results interface{}, opts ...*options.FindOptions) error {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, filter, results, opts...)
	}
	return nil
}

func (m *mockDataStore) FindOne(ctx context.Context, filter interface{}, result interface{}) error {
	if m.findOneFunc != nil {
		return m.findOneFunc(ctx, filter, result)
	}
	return mongo.ErrNoDocuments
}

// mockCollectionProvider implements CollectionProvider for testing.
type mockCollectionProvider struct {
	collectionFunc func(name string) mongostore.DataStore
}

func (m *mockCollectionProvider) Collection(name string) mongostore.DataStore {
	if m.collectionFunc != nil {
		return m.collectionFunc(name)
	}
	return &mockDataStore{}
}

func providerFor(t *testing.T, want string, ds *mockDataStore) *mockCollectionProvider {
	return &mockCollectionProvider{collectionFunc: func(name string) mongostore.DataStore {
		if name != want {
			t.Errorf("collection = %s, want %s", name, want)
		}
		return ds
	}}
}

// decodeInto fills a *[]T the way a cursor would, one bson document per element.
func decodeInto(results interface{}, docs ...bson.M) error {
	slice := reflect.ValueOf(results).Elem()
	for _, d := range docs {
		raw, err := bson.Marshal(d)
		if err != nil {
			return err
		}
		elem := reflect.New(slice.Type().Elem())
		if err := bson.Unmarshal(raw, elem.Interface()); err != nil {
			return err
		}
		slice.Set(reflect.Append(slice, elem.Elem()))
	}
	return nil
}

func TestInsertLedger_UpsertsWithSetOnInsert(t *testing.T) {
	date := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	txs := []domain.Transaction{
		{StatementID: "s1", Date: date, Description: "Rent", Amount: -1000},
		{StatementID: "s1", Date: date, Description: "Coffee", Amount: -3},
	}

	ds := &mockDataStore{bulkWriteFunc: func(ctx context.Context, models []mongo.WriteModel, opts ...*options.BulkWriteOptions) (*mongo.BulkWriteResult, error) {
		if len(models) != 2 {
			t.Fatalf("expected 2 write models, got %d", len(models))
		}
		m, ok := models[0].(*mongo.UpdateOneModel)
		if !ok {
			t.Fatalf("expected UpdateOneModel, got %T", models[0])
		}
		if m.Upsert == nil || !*m.Upsert {
			t.Error("expected upsert to be enabled")
		}
		update, ok := m.Update.(bson.M)
		if !ok {
			t.Fatalf("unexpected update type %T", m.Update)
		}
		if _, ok := update["$setOnInsert"]; !ok {
			t.Errorf("expected $setOnInsert update, got %v", update)
		}
		filter := m.Filter.(bson.M)
		if filter["_id"] != "s1|2024-01-05|Rent|1000.0000" {
			t.Errorf("unexpected _id filter %v", filter["_id"])
		}
		return &mongo.BulkWriteResult{UpsertedCount: 1, MatchedCount: 1}, nil
	}}

	repo := mongostore.NewRepository(providerFor(t, mongostore.TransactionsCollection, ds), nil)
	n, err := repo.InsertLedger(context.Background(), txs)
	if err != nil {
		t.Fatalf("InsertLedger() error = %v", err)
	}
	if n != 1 {
		t.Errorf("inserted = %d, want 1", n)
	}
}

func TestInsertLedger_Empty(t *testing.T) {
	repo := mongostore.NewRepository(&mockCollectionProvider{collectionFunc: func(string) mongostore.DataStore {
		t.Error("no collection should be touched for an empty batch")
		return &mockDataStore{}
	}}, nil)

	n, err := repo.InsertLedger(context.Background(), nil)
	if err != nil || n != 0 {
		t.Errorf("InsertLedger(nil) = %d, %v", n, err)
	}
}

func TestInsertLedger_Error(t *testing.T) {
	ds := &mockDataStore{bulkWriteFunc: func(context.Context, []mongo.WriteModel, ...*options.BulkWriteOptions) (*mongo.BulkWriteResult, error) {
		return nil, errors.New("connection reset")
	}}
	repo := mongostore.NewRepository(providerFor(t, mongostore.TransactionsCollection, ds), nil)

	_, err := repo.InsertLedger(context.Background(), []domain.Transaction{{StatementID: "s1"}})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestReplaceAggregates_UpsertsWholeDocument(t *testing.T) {
	agg := &domain.Aggregates{StatementID: "s1", Monthly: []domain.MonthlySummary{{YearMonth: "2024-01"}}}
	called := false

	ds := &mockDataStore{replaceOneFunc: func(ctx context.Context, filter interface{}, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error) {
		called = true
		if filter.(bson.M)["_id"] != "s1" {
			t.Errorf("unexpected filter %v", filter)
		}
		if replacement != agg {
			t.Error("expected the aggregates document to be written as-is")
		}
		if len(opts) != 1 || opts[0].Upsert == nil || !*opts[0].Upsert {
			t.Error("expected upsert option")
		}
		return &mongo.UpdateResult{UpsertedCount: 1}, nil
	}}

	repo := mongostore.NewRepository(providerFor(t, mongostore.AggregatesCollection, ds), nil)
	if err := repo.ReplaceAggregates(context.Background(), agg); err != nil {
		t.Fatalf("ReplaceAggregates() error = %v", err)
	}
	if !called {
		t.Error("ReplaceOne was not called")
	}

	if err := repo.ReplaceAggregates(context.Background(), &domain.Aggregates{}); err == nil {
		t.Error("expected error for missing statement ID")
	}
}

func TestGetAggregates_NotFound(t *testing.T) {
	repo := mongostore.NewRepository(providerFor(t, mongostore.AggregatesCollection, &mockDataStore{}), nil)

	_, err := repo.GetAggregates(context.Background(), "missing")
	if !errors.Is(err, domain.ErrStatementNotFound) {
		t.Errorf("expected ErrStatementNotFound, got %v", err)
	}
}

func TestGetAggregates_Found(t *testing.T) {
	ds := &mockDataStore{findOneFunc: func(ctx context.Context, filter interface{}, result interface{}) error {
		agg := result.(*domain.Aggregates)
		agg.StatementID = "s1"
		agg.Monthly = []domain.MonthlySummary{{YearMonth: "2024-01", Deposits: 10}}
		return nil
	}}
	repo := mongostore.NewRepository(providerFor(t, mongostore.AggregatesCollection, ds), nil)

	agg, err := repo.GetAggregates(context.Background(), "s1")
	if err != nil {
		t.Fatalf("GetAggregates() error = %v", err)
	}
	if len(agg.Monthly) != 1 || agg.Monthly[0].Deposits != 10 {
		t.Errorf("unexpected aggregates %+v", agg)
	}
}

func TestListLedger(t *testing.T) {
	ds := &mockDataStore{findAllFunc: func(ctx context.Context, filter interface{}, results interface{}, opts ...*options.FindOptions) error {
		if filter.(bson.M)["statement_id"] != "s1" {
			t.Errorf("unexpected filter %v", filter)
		}
		return decodeInto(results, bson.M{
			"_id": "a", "statement_id": "s1", "date": time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			"description": "Rent", "amount": -900.0, "direction": "debit", "category": "Rent",
		})
	}}
	repo := mongostore.NewRepository(providerFor(t, mongostore.TransactionsCollection, ds), nil)

	got, err := repo.ListLedger(context.Background(), "s1")
	if err != nil {
		t.Fatalf("ListLedger() error = %v", err)
	}
	if len(got) != 1 || got[0].Category != domain.CategoryRent || got[0].Amount != -900 {
		t.Errorf("unexpected ledger %+v", got)
	}
}

func TestDeleteStatement_ClearsBothCollections(t *testing.T) {
	touched := map[string]interface{}{}
	provider := &mockCollectionProvider{collectionFunc: func(name string) mongostore.DataStore {
		return &mockDataStore{deleteManyFunc: func(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
			touched[name] = filter
			return &mongo.DeleteResult{DeletedCount: 1}, nil
		}}
	}}

	if err := mongostore.NewRepository(provider, nil).DeleteStatement(context.Background(), "s1"); err != nil {
		t.Fatalf("DeleteStatement() error = %v", err)
	}
	if len(touched) != 2 {
		t.Errorf("expected both collections to be cleared, got %v", touched)
	}
	if f, ok := touched[mongostore.AggregatesCollection].(bson.M); !ok || f["_id"] != "s1" {
		t.Errorf("unexpected aggregates filter %v", touched[mongostore.AggregatesCollection])
	}
}
