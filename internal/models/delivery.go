package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DeliveryOutcome string

const (
	DeliverySuccess DeliveryOutcome = "success"
	DeliveryFailed  DeliveryOutcome = "failed"
)

// AlertDeliveryResult is an append-only log row recording one channel send
// attempt. Rows are never mutated after creation.
type AlertDeliveryResult struct {
	ID             primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	AlertID        primitive.ObjectID `json:"alert_id" bson:"alert_id"`
	Channel        Channel            `json:"channel" bson:"channel"`
	Outcome        DeliveryOutcome    `json:"outcome" bson:"outcome"`
	MessageID      string             `json:"message_id,omitempty" bson:"message_id,omitempty"`
	DeliveredAt    *time.Time         `json:"delivered_at,omitempty" bson:"delivered_at,omitempty"`
	ResponseTimeMs int64              `json:"response_time_ms,omitempty" bson:"response_time_ms,omitempty"`
	Error          string             `json:"error,omitempty" bson:"error,omitempty"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
}
