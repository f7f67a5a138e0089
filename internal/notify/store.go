package notify

import (
	"context"

	"github.com/washline/api/internal/database"
)

// NotificationStore persists notifications. Satisfied by *database.Queries.
type NotificationStore interface {
	CreateNotification(ctx context.Context, arg database.CreateNotificationParams) (database.Notification, error)
}

// StoreSink keeps a copy of every notification so clients can list them later.
type StoreSink struct {
	store NotificationStore
}

func NewStoreSink(store NotificationStore) *StoreSink {
	return &StoreSink{store: store}
}

func (s *StoreSink) Deliver(ctx context.Context, n Notification) error {
	_, err := s.store.CreateNotification(ctx, database.CreateNotificationParams{
		Room:        n.Room,
		Title:       n.Title,
		Description: n.Description,
	})
	return err
}
