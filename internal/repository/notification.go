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

type notificationRepository struct {
	col *mongo.Collection
}

// NewNotificationRepository creates a new notification repository.
func NewNotificationRepository(col *mongo.Collection) NotificationRepository {
	return &notificationRepository{col: col}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if _, err := r.col.InsertOne(ctx, n); err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// List returns the newest notifications for a user plus the unread count,
// computed from the fetched page rather than a second query.
func (r *notificationRepository) List(ctx context.Context, ownerID string, limit int) ([]model.Notification, int, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := r.col.Find(ctx, bson.M{"owner_id": ownerID}, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer cur.Close(ctx)

	var notifications []model.Notification
	if err := cur.All(ctx, &notifications); err != nil {
		return nil, 0, fmt.Errorf("failed to decode notifications: %w", err)
	}

	var unread int
	for _, n := range notifications {
		if !n.IsRead {
			unread++
		}
	}
	return notifications, unread, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, ownerID string) error {
	_, err := r.col.UpdateMany(
		ctx,
		bson.M{"owner_id": ownerID, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}
