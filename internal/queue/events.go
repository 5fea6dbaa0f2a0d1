package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types for the profile stream
const (
	EventUsernameChanged = "username_changed"
	EventProfileUpdated  = "profile_updated"
	EventAvatarUpdated   = "avatar_updated"
)

// Stream names
const (
	StreamProfile = "stream:profile"
)

// Consumer group name for profile workers
const (
	ConsumerGroupProfile = "profile_workers"
)

// ProfileEvent represents an event published to the profile stream.
// All profile-related events share this structure.
type ProfileEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"` // Unix timestamp when event occurred

	OwnerID string `json:"owner_id"`

	// Username change (UsernameChanged)
	OldUsername string `json:"old_username,omitempty"`
	NewUsername string `json:"new_username,omitempty"`

	// Avatar change (AvatarUpdated): superseded object key, if any
	OldAvatarKey string `json:"old_avatar_key,omitempty"`
}

// NewUsernameChangedEvent creates an event for a committed username swap.
// The worker re-verifies reservation/profile agreement and repairs drift.
func NewUsernameChangedEvent(ownerID, oldUsername, newUsername string) ProfileEvent {
	return ProfileEvent{
		Type:        EventUsernameChanged,
		Timestamp:   time.Now().Unix(),
		OwnerID:     ownerID,
		OldUsername: oldUsername,
		NewUsername: newUsername,
	}
}

// NewProfileUpdatedEvent creates an event for a plain profile edit.
func NewProfileUpdatedEvent(ownerID string) ProfileEvent {
	return ProfileEvent{
		Type:      EventProfileUpdated,
		Timestamp: time.Now().Unix(),
		OwnerID:   ownerID,
	}
}

// NewAvatarUpdatedEvent creates an event for a replaced avatar.
// The worker deletes the superseded object and records the notification.
func NewAvatarUpdatedEvent(ownerID, oldAvatarKey string) ProfileEvent {
	return ProfileEvent{
		Type:         EventAvatarUpdated,
		Timestamp:    time.Now().Unix(),
		OwnerID:      ownerID,
		OldAvatarKey: oldAvatarKey,
	}
}

// ToMap converts the event to a map for Redis XADD.
// Redis Streams store field-value pairs, so we serialize to JSON in a "data" field.
func (e ProfileEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseProfileEvent parses a ProfileEvent from Redis stream message values.
func ParseProfileEvent(values map[string]interface{}) (ProfileEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return ProfileEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event ProfileEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return ProfileEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
