package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/statement-scoring/internal/logger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DataStore is the subset of collection operations the repository needs.
type DataStore interface {
	BulkWrite(ctx context.Context, models []mongo.WriteModel, opts ...*options.BulkWriteOptions) (*mongo.BulkWriteResult, error)
	ReplaceOne(ctx context.Context, filter interface{}, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error)
	DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
	// FindAll decodes every document matching filter into results (a pointer to a slice).
	FindAll(ctx context.Context, filter interface{}, results interface{}, opts ...*options.FindOptions) error
	// FindOne decodes the first match into result, returning mongo.ErrNoDocuments on a miss.
	FindOne(ctx context.Context, filter interface{}, result interface{}) error
}

// CollectionProvider hands out DataStores by collection name.
type CollectionProvider interface {
	Collection(name string) DataStore
}

// Collection adapts *mongo.Collection to DataStore.
type Collection struct {
	*mongo.Collection
}

// BulkWrite performs a bulk write operation.
func (c *Collection) BulkWrite(ctx context.Context, models []mongo.WriteModel, opts ...*options.BulkWriteOptions) (*mongo.BulkWriteResult, error) {
	res, err := c.Collection.BulkWrite(ctx, models, opts...)
	if err != nil {
		return nil, fmt.Errorf("bulk write on %s: %w", c.Name(), err)
	}
	return res, nil
}

// ReplaceOne replaces a single document.
func (c *Collection) ReplaceOne(ctx context.Context, filter interface{}, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error) {
	res, err := c.Collection.ReplaceOne(ctx, filter, replacement, opts...)
	if err != nil {
		return nil, fmt.Errorf("replace on %s: %w", c.Name(), err)
	}
	return res, nil
}

// DeleteMany removes every matching document.
func (c *Collection) DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	res, err := c.Collection.DeleteMany(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("delete on %s: %w", c.Name(), err)
	}
	return res, nil
}

// FindAll runs Find and drains the cursor into results.
func (c *Collection) FindAll(ctx context.Context, filter interface{}, results interface{}, opts ...*options.FindOptions) error {
	cur, err := c.Collection.Find(ctx, filter, opts...)
	if err != nil {
		return fmt.Errorf("find on %s: %w", c.Name(), err)
	}
	if err := cur.All(ctx, results); err != nil {
		return fmt.Errorf("decoding %s: %w", c.Name(), err)
	}
	return nil
}

// FindOne decodes a single document.
func (c *Collection) FindOne(ctx context.Context, filter interface{}, result interface{}) error {
	err := c.Collection.FindOne(ctx, filter).Decode(result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return err
	}
	if err != nil {
		return fmt.Errorf("find one on %s: %w", c.Name(), err)
	}
	return nil
}

// Provider adapts a database handle to CollectionProvider.
type Provider struct {
	db *mongo.Database
}

// NewProvider creates a Provider for the named database.
func NewProvider(client *mongo.Client, database string) *Provider {
	return &Provider{db: client.Database(database)}
}

// Collection implements CollectionProvider.
func (p *Provider) Collection(name string) DataStore {
	return &Collection{p.db.Collection(name)}
}

// Connect dials MongoDB and verifies the connection with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	log := logger.FromContext(ctx)
	log.Debug().Msg("Connecting to MongoDB")

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("Connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("Connect: ping: %w", err)
	}

	log.Info().Msg("Connected to MongoDB")
	return client, nil
}
