package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/profilehub/backend/internal/config"
)

// Collection names. "users" holds profile documents keyed by owner id,
// "usernames" holds one reservation document per lowercase username.
const (
	CollectionProfiles      = "users"
	CollectionReservations  = "usernames"
	CollectionNotifications = "notifications"
)

// DB bundles the Mongo client with the application database handle.
type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect opens a Mongo connection and pings it to fail fast on bad config.
func Connect(ctx context.Context, cfg *config.Config) (*DB, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	log.Println("Connected to document store successfully")
	return &DB{client: client, db: client.Database(cfg.MongoDB)}, nil
}

// EnsureIndexes creates the indexes the read paths depend on. Uniqueness of
// usernames is not enforced here: the reservation collection's _id does that.
func (d *DB) EnsureIndexes(ctx context.Context) error {
	// Public profile pages look profiles up by username.
	_, err := d.db.Collection(CollectionProfiles).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "username", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create username index: %w", err)
	}

	// Notification listing is newest-first per owner.
	_, err = d.db.Collection(CollectionNotifications).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create notification index: %w", err)
	}

	return nil
}

// Collection returns a handle to a named collection.
func (d *DB) Collection(name string) *mongo.Collection {
	return d.db.Collection(name)
}

// Close disconnects the underlying client.
func (d *DB) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}
