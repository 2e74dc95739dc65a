// Package mongostore owns the MongoDB client used when STORE_DRIVER=mongo.
package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const connectTimeout = 10 * time.Second

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials uri and verifies the connection with a ping.
func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	opts := options.Client().ApplyURI(uri).SetAppName("rxpad")
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return &Store{client: client, db: client.Database(dbName)}, nil
}

func (s *Store) Database() *mongo.Database {
	return s.db
}

// Ping satisfies db.Pinger for the /health/db endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// IndexSpec describes one index a repository relies on.
type IndexSpec struct {
	Collection string
	Keys       bson.D
	Unique     bool
}

func (spec IndexSpec) model() mongo.IndexModel {
	m := mongo.IndexModel{Keys: spec.Keys}
	if spec.Unique {
		m.Options = options.Index().SetUnique(true)
	}
	return m
}

// groupByCollection keeps the first-seen collection order.
func groupByCollection(specs []IndexSpec) ([]string, map[string][]mongo.IndexModel) {
	var order []string
	byColl := make(map[string][]mongo.IndexModel)
	for _, spec := range specs {
		if _, ok := byColl[spec.Collection]; !ok {
			order = append(order, spec.Collection)
		}
		byColl[spec.Collection] = append(byColl[spec.Collection], spec.model())
	}
	return order, byColl
}

// EnsureIndexes creates any missing indexes. Creating an index that already
// exists with the same definition is a no-op on the server.
func (s *Store) EnsureIndexes(ctx context.Context, specs []IndexSpec) error {
	order, byColl := groupByCollection(specs)
	for _, coll := range order {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, byColl[coll]); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}
