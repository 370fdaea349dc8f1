package models

import "time"

// StatisticsPeriod bounds a statistics query. From is inclusive, To exclusive.
type StatisticsPeriod struct {
	From time.Time `json:"from" bson:"from"`
	To   time.Time `json:"to" bson:"to"`
}

// DeliveryCounts is the sent/delivered/failed triple used by every
// statistics breakdown.
type DeliveryCounts struct {
	Sent      int `json:"sent" bson:"sent"`
	Delivered int `json:"delivered" bson:"delivered"`
	Failed    int `json:"failed" bson:"failed"`
}

// AlertStatistics is a derived, non-authoritative view over the alert and
// delivery-result history of one user for one period.
type AlertStatistics struct {
	UserID                string                       `json:"user_id" bson:"user_id"`
	Period                StatisticsPeriod             `json:"period" bson:"period"`
	TotalSent             int                          `json:"total_sent" bson:"total_sent"`
	TotalDelivered        int                          `json:"total_delivered" bson:"total_delivered"`
	TotalFailed           int                          `json:"total_failed" bson:"total_failed"`
	ByType                map[AlertType]DeliveryCounts `json:"by_type" bson:"by_type"`
	ByChannel             map[Channel]DeliveryCounts   `json:"by_channel" bson:"by_channel"`
	AverageDeliveryTimeMs float64                      `json:"average_delivery_time_ms" bson:"average_delivery_time_ms"`
	DeliveryRate          float64                      `json:"delivery_rate" bson:"delivery_rate"`
	GeneratedAt           time.Time                    `json:"generated_at" bson:"generated_at"`
}
