package domain

import "time"

// NotificationCategory is the "type" of a notification as sent by the backend.
// Unknown categories are kept verbatim.
type NotificationCategory string

const (
	CategoryOrder   NotificationCategory = "order"
	CategoryPayment NotificationCategory = "payment"
	CategorySuccess NotificationCategory = "success"
	CategoryWarning NotificationCategory = "warning"
	CategoryInfo    NotificationCategory = "info"
)

// NotificationEvent is a server-owned notification; the console only caches it.
type NotificationEvent struct {
	ID        string               `json:"_id"`
	UserID    string               `json:"userId"`
	Message   string               `json:"message"`
	Category  NotificationCategory `json:"type"`
	Viewed    bool                 `json:"isViewed"`
	CreatedAt time.Time            `json:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt"`
}

// PageMeta is the pagination block of a list response.
type PageMeta struct {
	Page      int `json:"page"`
	Limit     int `json:"limit"`
	Total     int `json:"total"`
	TotalPage int `json:"totalPage"`
}

// NotificationPage is one page of a user's notifications.
type NotificationPage struct {
	Items []NotificationEvent `json:"data"`
	Meta  PageMeta            `json:"meta"`
}

// Unviewed counts the notifications on the page not yet acknowledged.
func (p *NotificationPage) Unviewed() int {
	n := 0
	for _, it := range p.Items {
		if !it.Viewed {
			n++
		}
	}
	return n
}
