package models

import (
	"encoding/json"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AlertType string

const (
	AlertTypePriceDrop      AlertType = "price_drop"
	AlertTypeHistoricalLow  AlertType = "historical_low"
	AlertTypeStockAvailable AlertType = "stock_available"
	AlertTypePriceTarget    AlertType = "price_target"
	AlertTypeBackInStock    AlertType = "back_in_stock"
)

func ValidAlertType(t AlertType) bool {
	switch t {
	case AlertTypePriceDrop, AlertTypeHistoricalLow, AlertTypeStockAvailable, AlertTypePriceTarget, AlertTypeBackInStock:
		return true
	}
	return false
}

type AlertPriority string

const (
	PriorityLow    AlertPriority = "low"
	PriorityMedium AlertPriority = "medium"
	PriorityHigh   AlertPriority = "high"
	PriorityUrgent AlertPriority = "urgent"
)

type AlertStatus string

const (
	AlertStatusPending   AlertStatus = "pending"
	AlertStatusSent      AlertStatus = "sent"
	AlertStatusDelivered AlertStatus = "delivered"
	AlertStatusFailed    AlertStatus = "failed"
	AlertStatusExpired   AlertStatus = "expired"
)

// Terminal reports whether the status has no outgoing transitions.
func (s AlertStatus) Terminal() bool {
	return s == AlertStatusDelivered || s == AlertStatusFailed || s == AlertStatusExpired
}

type Channel string

const (
	ChannelPush  Channel = "push"
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

func ValidChannel(c Channel) bool {
	return c == ChannelPush || c == ChannelEmail || c == ChannelSMS
}

const (
	MaxTitleLength             = 200
	DefaultMaxDeliveryAttempts = 3
)

type Alert struct {
	ID                  primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	UserID              string             `json:"user_id" bson:"user_id"`
	ProductID           string             `json:"product_id" bson:"product_id"`
	ConditionID         *primitive.ObjectID `json:"condition_id,omitempty" bson:"condition_id,omitempty"`
	Type                AlertType          `json:"type" bson:"type"`
	Priority            AlertPriority      `json:"priority" bson:"priority"`
	Status              AlertStatus        `json:"status" bson:"status"`
	Title               string             `json:"title" bson:"title"`
	Message             string             `json:"message" bson:"message"`
	Channels            []Channel          `json:"channels" bson:"channels"`
	Payload             AlertPayload       `json:"payload,omitempty" bson:"payload,omitempty"`
	DeliveryAttempts    int                `json:"delivery_attempts" bson:"delivery_attempts"`
	MaxDeliveryAttempts int                `json:"max_delivery_attempts" bson:"max_delivery_attempts"`
	ScheduledAt         *time.Time         `json:"scheduled_at,omitempty" bson:"scheduled_at,omitempty"`
	CreatedAt           time.Time          `json:"created_at" bson:"created_at"`
	DeliveredAt         *time.Time         `json:"delivered_at,omitempty" bson:"delivered_at,omitempty"`
}

// AlertPayload is the per-type payload variant carried by an Alert.
// Exactly one concrete type exists per AlertType.
type AlertPayload interface {
	// TemplateVars exposes the payload fields as {{key}} substitutions
	// for message templates.
	TemplateVars() map[string]string
	isAlertPayload()
}

type PriceDropPayload struct {
	ProductName    string  `json:"product_name" bson:"product_name"`
	OldPrice       float64 `json:"old_price" bson:"old_price"`
	NewPrice       float64 `json:"new_price" bson:"new_price"`
	PercentageDrop float64 `json:"percentage_drop" bson:"percentage_drop"`
	Currency       string  `json:"currency,omitempty" bson:"currency,omitempty"`
}

func (p PriceDropPayload) isAlertPayload() {}

func (p PriceDropPayload) TemplateVars() map[string]string {
	return map[string]string{
		"product":         p.ProductName,
		"old_price":       formatPrice(p.OldPrice),
		"new_price":       formatPrice(p.NewPrice),
		"percentage_drop": strconv.FormatFloat(p.PercentageDrop, 'f', -1, 64),
	}
}

type HistoricalLowPayload struct {
	ProductName string  `json:"product_name" bson:"product_name"`
	Price       float64 `json:"price" bson:"price"`
	PreviousLow float64 `json:"previous_low" bson:"previous_low"`
	Currency    string  `json:"currency,omitempty" bson:"currency,omitempty"`
}

func (p HistoricalLowPayload) isAlertPayload() {}

func (p HistoricalLowPayload) TemplateVars() map[string]string {
	return map[string]string{
		"product":      p.ProductName,
		"price":        formatPrice(p.Price),
		"previous_low": formatPrice(p.PreviousLow),
	}
}

type StockAvailablePayload struct {
	ProductName string `json:"product_name" bson:"product_name"`
	Store       string `json:"store,omitempty" bson:"store,omitempty"`
	Quantity    int    `json:"quantity,omitempty" bson:"quantity,omitempty"`
}

func (p StockAvailablePayload) isAlertPayload() {}

func (p StockAvailablePayload) TemplateVars() map[string]string {
	return map[string]string{
		"product":  p.ProductName,
		"store":    p.Store,
		"quantity": strconv.Itoa(p.Quantity),
	}
}

type PriceTargetPayload struct {
	ProductName  string  `json:"product_name" bson:"product_name"`
	TargetPrice  float64 `json:"target_price" bson:"target_price"`
	CurrentPrice float64 `json:"current_price" bson:"current_price"`
	Currency     string  `json:"currency,omitempty" bson:"currency,omitempty"`
}

func (p PriceTargetPayload) isAlertPayload() {}

func (p PriceTargetPayload) TemplateVars() map[string]string {
	return map[string]string{
		"product":       p.ProductName,
		"target_price":  formatPrice(p.TargetPrice),
		"current_price": formatPrice(p.CurrentPrice),
	}
}

type BackInStockPayload struct {
	ProductName string `json:"product_name" bson:"product_name"`
	Store       string `json:"store,omitempty" bson:"store,omitempty"`
}

func (p BackInStockPayload) isAlertPayload() {}

func (p BackInStockPayload) TemplateVars() map[string]string {
	return map[string]string{
		"product": p.ProductName,
		"store":   p.Store,
	}
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// DecodePayloadBSON decodes a stored payload document into the variant
// matching the alert type.
func DecodePayloadBSON(t AlertType, raw bson.Raw) (AlertPayload, error) {
	switch t {
	case AlertTypePriceDrop:
		var p PriceDropPayload
		if err := bson.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case AlertTypeHistoricalLow:
		var p HistoricalLowPayload
		if err := bson.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case AlertTypeStockAvailable:
		var p StockAvailablePayload
		if err := bson.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case AlertTypePriceTarget:
		var p PriceTargetPayload
		if err := bson.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case AlertTypeBackInStock:
		var p BackInStockPayload
		if err := bson.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, &ValidationError{Field: "type", Reason: "unknown alert type " + string(t)}
}

// DecodePayloadJSON decodes a request payload into the variant matching
// the alert type. Used by the API layer before handing off to the engine.
func DecodePayloadJSON(t AlertType, raw []byte) (AlertPayload, error) {
	switch t {
	case AlertTypePriceDrop:
		var p PriceDropPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case AlertTypeHistoricalLow:
		var p HistoricalLowPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case AlertTypeStockAvailable:
		var p StockAvailablePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case AlertTypePriceTarget:
		var p PriceTargetPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case AlertTypeBackInStock:
		var p BackInStockPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, &ValidationError{Field: "type", Reason: "unknown alert type " + string(t)}
}

// alertDoc mirrors Alert with the payload left raw so it can be decoded
// into the right variant once the type field is known.
type alertDoc struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty"`
	UserID              string              `bson:"user_id"`
	ProductID           string              `bson:"product_id"`
	ConditionID         *primitive.ObjectID `bson:"condition_id,omitempty"`
	Type                AlertType           `bson:"type"`
	Priority            AlertPriority      `bson:"priority"`
	Status              AlertStatus        `bson:"status"`
	Title               string             `bson:"title"`
	Message             string             `bson:"message"`
	Channels            []Channel          `bson:"channels"`
	Payload             bson.Raw           `bson:"payload,omitempty"`
	DeliveryAttempts    int                `bson:"delivery_attempts"`
	MaxDeliveryAttempts int                `bson:"max_delivery_attempts"`
	ScheduledAt         *time.Time         `bson:"scheduled_at,omitempty"`
	CreatedAt           time.Time          `bson:"created_at"`
	DeliveredAt         *time.Time         `bson:"delivered_at,omitempty"`
}

func (a *Alert) UnmarshalBSON(data []byte) error {
	var doc alertDoc
	if err := bson.Unmarshal(data, &doc); err != nil {
		return err
	}

	a.ID = doc.ID
	a.UserID = doc.UserID
	a.ProductID = doc.ProductID
	a.ConditionID = doc.ConditionID
	a.Type = doc.Type
	a.Priority = doc.Priority
	a.Status = doc.Status
	a.Title = doc.Title
	a.Message = doc.Message
	a.Channels = doc.Channels
	a.DeliveryAttempts = doc.DeliveryAttempts
	a.MaxDeliveryAttempts = doc.MaxDeliveryAttempts
	a.ScheduledAt = doc.ScheduledAt
	a.CreatedAt = doc.CreatedAt
	a.DeliveredAt = doc.DeliveredAt
	a.Payload = nil

	if len(doc.Payload) == 0 {
		return nil
	}
	payload, err := DecodePayloadBSON(doc.Type, doc.Payload)
	if err != nil {
		return err
	}
	a.Payload = payload
	return nil
}
