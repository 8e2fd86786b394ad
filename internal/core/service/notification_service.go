package service

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/supplyhub/supplier-console/internal/core/domain"
	"github.com/supplyhub/supplier-console/internal/core/ports"
	"github.com/supplyhub/supplier-console/internal/pkg/metrics"
)

const (
	defaultPage            = 1
	defaultLimit           = 10
	maxLimit               = 100
	defaultNotificationTTL = 2 * time.Minute
)

type notificationService struct {
	gateway ports.NotificationGateway
	cache   ports.NotificationCache
	ttl     time.Duration
	log     zerolog.Logger
}

// NewNotificationService returns a NotificationService. cache may be nil to
// disable caching.
func NewNotificationService(gateway ports.NotificationGateway, cache ports.NotificationCache, ttl time.Duration, log zerolog.Logger) ports.NotificationService {
	if ttl <= 0 {
		ttl = defaultNotificationTTL
	}
	return &notificationService{gateway: gateway, cache: cache, ttl: ttl, log: log}
}

// List returns one page of the user's notifications, serving from cache when
// possible. Cache errors degrade to a backend fetch.
func (s *notificationService) List(ctx context.Context, in ports.ListNotificationsInput) (*domain.NotificationPage, error) {
	if in.UserID == "" {
		return nil, domain.NewAPIError(domain.KindValidation, http.StatusUnprocessableEntity, "userId is required")
	}
	page, limit := normalizePaging(in.Page, in.Limit)

	// The version is read once: a fetch that started before an invalidation
	// must not fill the pages of the version that replaced it.
	var (
		version   int64
		cacheable = s.cache != nil
	)
	if cacheable {
		v, err := s.cache.Version(ctx, in.UserID)
		if err != nil {
			s.log.Warn().Err(err).Str("user_id", in.UserID).Msg("notification cache version read failed")
			cacheable = false
		}
		version = v
	}

	if cacheable {
		cached, ok, err := s.cache.Get(ctx, in.UserID, version, page, limit)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Str("user_id", in.UserID).Msg("notification cache read failed")
		case ok:
			metrics.NotificationCacheTotal.WithLabelValues("hit").Inc()
			return cached, nil
		}
		metrics.NotificationCacheTotal.WithLabelValues("miss").Inc()
	}

	p, err := s.gateway.ListNotifications(ctx, in.UserID, page, limit)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if err := s.cache.Set(ctx, in.UserID, version, page, limit, p, s.ttl); err != nil {
			s.log.Warn().Err(err).Str("user_id", in.UserID).Msg("notification cache write failed")
		}
	}
	return p, nil
}

// MarkAllViewed acknowledges every notification of the session user and
// drops the cached pages so the next list reflects it.
func (s *notificationService) MarkAllViewed(ctx context.Context, userID string) error {
	if err := s.gateway.MarkAllNotificationsViewed(ctx); err != nil {
		return err
	}
	if err := s.Invalidate(ctx, userID); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("cache invalidation after mark-all failed")
	}
	return nil
}

// Invalidate discards every cached page of userID.
func (s *notificationService) Invalidate(ctx context.Context, userID string) error {
	if s.cache == nil || userID == "" {
		return nil
	}
	return s.cache.Invalidate(ctx, userID)
}

func normalizePaging(page, limit int) (int, int) {
	if page < 1 {
		page = defaultPage
	}
	switch {
	case limit < 1:
		limit = defaultLimit
	case limit > maxLimit:
		limit = maxLimit
	}
	return page, limit
}
