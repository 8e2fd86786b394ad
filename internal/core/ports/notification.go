package ports

import (
	"context"
	"time"

	"github.com/supplyhub/supplier-console/internal/core/domain"
)

// NotificationGateway reads and acknowledges notifications on the backend.
type NotificationGateway interface {
	ListNotifications(ctx context.Context, userID string, page, limit int) (*domain.NotificationPage, error)
	MarkAllNotificationsViewed(ctx context.Context) error
}

// NotificationCache holds fetched notification pages until invalidated.
// Every Invalidate moves the user to a new version. Get and Set address the
// version the caller read before fetching, and Set stores nothing once that
// version is stale.
type NotificationCache interface {
	Version(ctx context.Context, userID string) (int64, error)
	Get(ctx context.Context, userID string, version int64, page, limit int) (*domain.NotificationPage, bool, error)
	Set(ctx context.Context, userID string, version int64, page, limit int, p *domain.NotificationPage, ttl time.Duration) error
	Invalidate(ctx context.Context, userID string) error
}

// ListNotificationsInput carries the list endpoint parameters.
type ListNotificationsInput struct {
	UserID string
	Page   int
	Limit  int
}

// NotificationService is the use-case layer behind the notification endpoints.
type NotificationService interface {
	List(ctx context.Context, in ListNotificationsInput) (*domain.NotificationPage, error)
	MarkAllViewed(ctx context.Context, userID string) error
	Invalidate(ctx context.Context, userID string) error
}
