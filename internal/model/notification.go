package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification severities
const (
	SeverityInfo    = "info"
	SeveritySuccess = "success"
	SeverityError   = "error"
)

// Notification is a single user-visible feedback record. The form UI reads
// these back to render toasts; delivery is fire-and-forget for writers.
type Notification struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID     string             `bson:"owner_id" json:"-"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Severity    string             `bson:"severity" json:"severity"`
	IsRead      bool               `bson:"is_read" json:"is_read"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

// NotificationListResponse is the notification list payload.
type NotificationListResponse struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unread_count"`
}
