/*
mongodb.go MongoDB document store. Each grid document is one record keyed by name and
replaced on every save.
*/

package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ohowland/gridflow/internal/pkg/database"
	"github.com/ohowland/gridflow/internal/pkg/grid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Config of the MongoDB store
type Config struct {
	Enabled    bool   `json:"Enabled" yaml:"enabled"`
	URI        string `json:"URI" yaml:"uri"`
	Database   string `json:"Database" yaml:"database"`
	Collection string `json:"Collection" yaml:"collection"`
	Document   string `json:"Document" yaml:"document"`
}

// record is the stored shape of a document
type record struct {
	Name    string           `bson:"name"`
	SavedAt time.Time        `bson:"savedAt"`
	Grid    grid.GridMemento `bson:"grid"`
}

// Store keeps grid documents in a MongoDB collection
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
	config Config
}

// Connect opens the store described by cfg
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	client, err := mongo.NewClient(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}
	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect %v: %w", cfg.URI, err)
	}
	return &Store{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
		config: cfg,
	}, nil
}

func documentFilter(name string) bson.M {
	return bson.M{"name": name}
}

func documentUpdate(name string, m grid.GridMemento, at time.Time) bson.D {
	return bson.D{
		{Key: "$set", Value: record{Name: name, SavedAt: at.UTC().Truncate(time.Millisecond), Grid: m}},
	}
}

func decodeRecord(raw bson.Raw) (record, error) {
	rec := record{}
	if err := bson.Unmarshal(raw, &rec); err != nil {
		return record{}, err
	}
	return rec, nil
}

// Save upserts the document
func (s *Store) Save(ctx context.Context, m grid.GridMemento) error {
	opts := options.Update().SetUpsert(true)
	_, err := s.coll.UpdateOne(ctx, documentFilter(s.config.Document), documentUpdate(s.config.Document, m, time.Now()), opts)
	return err
}

// Load returns the stored document
func (s *Store) Load(ctx context.Context) (grid.GridMemento, error) {
	raw, err := s.coll.FindOne(ctx, documentFilter(s.config.Document)).DecodeBytes()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return grid.GridMemento{}, fmt.Errorf("%w: %v", database.ErrNoDocument, s.config.Document)
	}
	if err != nil {
		return grid.GridMemento{}, err
	}
	rec, err := decodeRecord(raw)
	if err != nil {
		return grid.GridMemento{}, err
	}
	return rec.Grid, nil
}

// Close disconnects the client
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
