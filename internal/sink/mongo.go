package sink

import (
	"context"
	"fmt"
	"time"

	dm "github.com/andrej220/netaudit/pkg/shared-models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoConnectTimeout = 10 * time.Second

type inserter interface {
	InsertMany(ctx context.Context, documents []interface{}, opts ...*options.InsertManyOptions) (*mongo.InsertManyResult, error)
}

// Mongo stores one document per device in a collection.
type Mongo struct {
	collection inserter
	disconnect func(context.Context) error
}

// NewMongo connects to uri and verifies the connection with a ping.
func NewMongo(ctx context.Context, uri, database, collection string) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return &Mongo{
		collection: client.Database(database).Collection(collection),
		disconnect: client.Disconnect,
	}, nil
}

func (m *Mongo) Name() string { return "mongo" }

func (m *Mongo) Publish(ctx context.Context, records []dm.RunRecord) error {
	if len(records) == 0 {
		return nil
	}
	docs := make([]interface{}, len(records))
	for i := range records {
		docs[i] = records[i]
	}
	// Unordered: a rejected document does not stop the remaining inserts.
	if _, err := m.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false)); err != nil {
		return fmt.Errorf("MongoDB InsertMany failed: %w", err)
	}
	return nil
}

func (m *Mongo) Close() error {
	if m.disconnect == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
	defer cancel()
	return m.disconnect(ctx)
}
