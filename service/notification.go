package service

import (
	"context"
	"errors"

	"foodshare-api/apperror"
	"foodshare-api/models"
	"foodshare-api/store"
)

type NotificationList struct {
	Notifications []models.Notification `json:"notifications"`
	UnreadCount   int                   `json:"unread_count"`
}

type NotificationService struct {
	*deps
}

// List returns the user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID string) (*NotificationList, error) {
	list, err := s.store.Notifications().ListByUser(ctx, userID)
	if err != nil {
		return nil, internal("list notifications", err)
	}
	out := &NotificationList{Notifications: list}
	if out.Notifications == nil {
		out.Notifications = []models.Notification{}
	}
	for _, n := range list {
		if !n.Read {
			out.UnreadCount++
		}
	}
	return out, nil
}

// MarkRead flags one of the user's notifications as read. Notifications of
// other users are reported as missing.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) (*models.Notification, error) {
	n, err := s.store.Notifications().FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && n.UserID != userID) {
		return nil, apperror.NotFound("Notification not found")
	}
	if err != nil {
		return nil, internal("find notification", err)
	}
	if err := s.store.Notifications().MarkRead(ctx, id); err != nil {
		return nil, internal("mark notification read", err)
	}
	n.Read = true
	return n, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	n, err := s.store.Notifications().MarkAllRead(ctx, userID)
	if err != nil {
		return 0, internal("mark notifications read", err)
	}
	return n, nil
}
