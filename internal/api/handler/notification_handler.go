package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/supplyhub/supplier-console/internal/api/middleware"
	"github.com/supplyhub/supplier-console/internal/core/domain"
	"github.com/supplyhub/supplier-console/internal/core/ports"
	"github.com/supplyhub/supplier-console/internal/infrastructure/queue"
	"github.com/supplyhub/supplier-console/internal/infrastructure/realtime"
)

const (
	heartbeatInterval = 25 * time.Second
	sseRetryMillis    = 10000
	refetchBuffer     = 16
)

// RealtimeConnector opens a user's notification channel.
type RealtimeConnector interface {
	Connect(ctx context.Context, userID string, handler realtime.Handler) (*realtime.Channel, error)
}

// InvalidationQueue schedules cache invalidations.
type InvalidationQueue interface {
	Enqueue(ctx context.Context, job queue.Job) bool
}

type NotificationHandler struct {
	svc       ports.NotificationService
	sessions  *middleware.Sessions
	realtime  RealtimeConnector
	queue     InvalidationQueue
	heartbeat time.Duration
	shutdown  <-chan struct{}
	log       zerolog.Logger
}

func NewNotificationHandler(
	svc ports.NotificationService,
	sessions *middleware.Sessions,
	rt RealtimeConnector,
	q InvalidationQueue,
	log zerolog.Logger,
) *NotificationHandler {
	return &NotificationHandler{
		svc:       svc,
		sessions:  sessions,
		realtime:  rt,
		queue:     q,
		heartbeat: heartbeatInterval,
		log:       log,
	}
}

// StopOn ends open streams once done is closed, so server shutdown does not
// wait on them.
func (h *NotificationHandler) StopOn(done <-chan struct{}) {
	h.shutdown = done
}

type notificationListResponse struct {
	Data     []domain.NotificationEvent `json:"data"`
	Meta     domain.PageMeta            `json:"meta"`
	Unviewed int                        `json:"unviewed"`
}

// refetchEvent tells the browser which cached list to reload.
type refetchEvent struct {
	Keys         []string                  `json:"keys"`
	Notification *domain.NotificationEvent `json:"notification,omitempty"`
	Payload      json.RawMessage           `json:"payload,omitempty"`
	Raw          string                    `json:"raw,omitempty"`
}

// List returns one page of the signed-in supplier's notifications.
//
// @Summary      List notifications
// @Tags         notifications
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Page size (default 10, max 100)"
// @Success      200    {object}  notificationListResponse
// @Failure      401    {object}  map[string]string
// @Failure      502    {object}  map[string]string
// @Router       /api/notifications [get]
func (h *NotificationHandler) List(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	p, err := h.svc.List(c.Request().Context(), ports.ListNotificationsInput{
		UserID: sess.UserID,
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return upstream(c, h.sessions, err)
	}
	return c.JSON(http.StatusOK, notificationListResponse{Data: p.Items, Meta: p.Meta, Unviewed: p.Unviewed()})
}

// MarkAllViewed acknowledges every notification of the signed-in supplier.
//
// @Summary      Mark all notifications viewed
// @Tags         notifications
// @Success      204
// @Failure      401  {object}  map[string]string
// @Router       /api/notifications/read-all [patch]
func (h *NotificationHandler) MarkAllViewed(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	if err := h.svc.MarkAllViewed(c.Request().Context(), sess.UserID); err != nil {
		return upstream(c, h.sessions, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Stream bridges the supplier's realtime channel to the browser as
// Server-Sent Events. Every push invalidates the cached notification pages
// and is then announced as a "refetch" event.
//
// @Summary      Notification event stream
// @Tags         notifications
// @Produce      text/event-stream
// @Success      200
// @Failure      401  {object}  map[string]string
// @Router       /api/notifications/stream [get]
func (h *NotificationHandler) Stream(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	userID := sess.UserID

	refetch := make(chan refetchEvent, refetchBuffer)
	ch, err := h.realtime.Connect(ctx, userID, func(m realtime.Message) {
		ev := refetchEvent{Keys: []string{"notifications"}, Notification: m.Event}
		if m.Event == nil {
			if m.JSON != nil {
				ev.Payload = m.JSON
			} else {
				ev.Raw = string(m.Raw)
			}
		}
		ok := h.queue.Enqueue(ctx, queue.Job{
			UserID: userID,
			Done: func() {
				select {
				case refetch <- ev:
				default:
					// The browser is behind; the pending refetches already cover this one.
				}
			},
		})
		if !ok {
			h.log.Debug().Str("user_id", userID).Msg("stream closed before invalidation was queued")
		}
	})
	if err != nil {
		return err
	}
	defer ch.Close()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprintf(w, "retry: %d\nevent: ready\ndata: {}\n\n", sseRetryMillis); err != nil {
		return nil
	}
	w.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-h.shutdown:
			return nil
		case <-ch.Done():
			// The upstream channel gave up; ending the stream lets the
			// browser's EventSource reconnect after the retry delay.
			h.log.Debug().Str("user_id", userID).Msg("realtime channel ended, closing stream")
			return nil
		case ev := <-refetch:
			payload, err := json.Marshal(ev)
			if err != nil {
				h.log.Error().Err(err).Msg("encode refetch event")
				continue
			}
			if _, err := fmt.Fprintf(w, "event: refetch\ndata: %s\n\n", payload); err != nil {
				return nil
			}
			w.Flush()
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}
