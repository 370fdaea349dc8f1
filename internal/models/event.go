package models

import "time"

// Alert lifecycle event types pushed to the UI over the websocket stream.
const (
	EventAlertCreated    = "alert.created"
	EventAlertDispatched = "alert.dispatched"
	EventAlertDelivered  = "alert.delivered"
	EventAlertFailed     = "alert.failed"
	EventAlertExpired    = "alert.expired"
)

type AlertEvent struct {
	Type   string    `json:"type"`
	UserID string    `json:"user_id"`
	Alert  *Alert    `json:"alert"`
	At     time.Time `json:"at"`
}
