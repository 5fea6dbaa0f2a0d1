package service

import (
	"context"
	"fmt"
	"log"

	"github.com/profilehub/backend/internal/model"
	"github.com/profilehub/backend/internal/repository"
)

const defaultNotificationLimit = 50

// NotificationService persists user-visible feedback records and forwards
// them to an optional external webhook sink.
type NotificationService struct {
	repo    repository.NotificationRepository
	webhook *WebhookClient
}

func NewNotificationService(repo repository.NotificationRepository, webhook *WebhookClient) *NotificationService {
	return &NotificationService{
		repo:    repo,
		webhook: webhook,
	}
}

// Notify records a notification for ownerID. Webhook delivery runs in the
// background; a sink failure never blocks or fails the caller.
func (s *NotificationService) Notify(ctx context.Context, ownerID, title, description, severity string) error {
	n := &model.Notification{
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		Severity:    severity,
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	if s.webhook != nil {
		go func() {
			payload := WebhookPayload{
				Title:       title,
				Description: description,
				Severity:    severity,
				OwnerID:     ownerID,
			}
			if err := s.webhook.Send(payload); err != nil {
				log.Printf("[NotificationService] webhook delivery failed: owner=%s err=%v", ownerID, err)
			}
		}()
	}

	return nil
}

// List returns the newest notifications for ownerID with the unread count.
func (s *NotificationService) List(ctx context.Context, ownerID string, limit int) (*model.NotificationListResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = defaultNotificationLimit
	}

	notifications, unread, err := s.repo.List(ctx, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	return &model.NotificationListResponse{
		Notifications: notifications,
		UnreadCount:   unread,
	}, nil
}

// MarkAllRead marks every notification for ownerID as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, ownerID string) error {
	if err := s.repo.MarkAllRead(ctx, ownerID); err != nil {
		return fmt.Errorf("mark notifications read: %w", err)
	}
	return nil
}
