package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/profilehub/backend/internal/model"
)

// reservationRepository implements ReservationRepository on a Mongo collection
// keyed by lowercase username.
type reservationRepository struct {
	col *mongo.Collection
}

// NewReservationRepository creates a new reservation repository.
func NewReservationRepository(col *mongo.Collection) ReservationRepository {
	return &reservationRepository{col: col}
}

func (r *reservationRepository) Get(ctx context.Context, username string) (*model.UsernameReservation, error) {
	var res model.UsernameReservation
	err := r.col.FindOne(ctx, bson.M{"_id": username}).Decode(&res)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			// Never claimed: the name is available.
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	return &res, nil
}

func (r *reservationRepository) Release(ctx context.Context, username string) error {
	_, err := r.col.UpdateOne(
		ctx,
		bson.M{"_id": username},
		bson.M{"$set": bson.M{"owner_id": nil, "updated_at": time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to release reservation: %w", err)
	}
	return nil
}

// Claim takes the reservation with one conditional upsert. The filter only
// matches a document that is absent, released, or already ours; when another
// owner holds the name the upsert falls through to an insert that collides on
// _id, which Mongo rejects with a duplicate key error. That collision is the
// losing side of a race, not a storage fault.
func (r *reservationRepository) Claim(ctx context.Context, username, ownerID string) error {
	filter := bson.M{
		"_id": username,
		"$or": []bson.M{
			{"owner_id": nil},
			{"owner_id": ownerID},
		},
	}
	update := bson.M{
		"$set": bson.M{"owner_id": ownerID, "updated_at": time.Now().UTC()},
	}

	_, err := r.col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.ErrUsernameTaken
		}
		return fmt.Errorf("failed to claim reservation: %w", err)
	}
	return nil
}
