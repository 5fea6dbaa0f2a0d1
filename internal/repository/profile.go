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

// profileRepository implements ProfileRepository on a Mongo collection.
type profileRepository struct {
	col *mongo.Collection
}

// NewProfileRepository creates a new profile repository.
func NewProfileRepository(col *mongo.Collection) ProfileRepository {
	return &profileRepository{col: col}
}

func (r *profileRepository) Get(ctx context.Context, ownerID string) (*model.Profile, error) {
	var prof model.Profile
	err := r.col.FindOne(ctx, bson.M{"_id": ownerID}).Decode(&prof)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, model.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &prof, nil
}

func (r *profileRepository) GetByUsername(ctx context.Context, username string) (*model.Profile, error) {
	var prof model.Profile
	err := r.col.FindOne(ctx, bson.M{"username": username}).Decode(&prof)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, model.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile by username: %w", err)
	}
	return &prof, nil
}

// Upsert merges the edited fields into the document with $set and seeds the
// key and created_at with $setOnInsert, the same path for first save and for
// every later edit. Mongo forbids the same field in both operators, so only
// untouched fields get insert defaults.
func (r *profileRepository) Upsert(ctx context.Context, ownerID string, update ProfileUpdate) (*model.Profile, error) {
	now := time.Now().UTC()

	set := bson.M{
		"updated_at": now,
	}
	if update.DisplayName != nil {
		set["display_name"] = *update.DisplayName
	}
	if update.Username != nil {
		set["username"] = *update.Username
	}
	if update.Bio != nil {
		set["bio"] = *update.Bio
	}
	if update.AvatarURL != nil {
		set["avatar_url"] = *update.AvatarURL
	}
	if update.AvatarKey != nil {
		set["avatar_key"] = *update.AvatarKey
	}
	if update.Email != nil {
		set["email"] = *update.Email
	}

	setOnInsert := bson.M{
		"_id":        ownerID,
		"created_at": now,
	}

	_, err := r.col.UpdateOne(
		ctx,
		bson.M{"_id": ownerID},
		bson.M{"$set": set, "$setOnInsert": setOnInsert},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert profile: %w", err)
	}

	var prof model.Profile
	if err := r.col.FindOne(ctx, bson.M{"_id": ownerID}).Decode(&prof); err != nil {
		return nil, fmt.Errorf("failed to read back profile: %w", err)
	}
	return &prof, nil
}
