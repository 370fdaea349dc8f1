package models

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestDecodePayloadJSON(t *testing.T) {
	payload, err := DecodePayloadJSON(AlertTypePriceDrop, []byte(`{"product_name":"Camera","old_price":100,"new_price":70,"percentage_drop":30}`))
	if err != nil {
		t.Fatalf("DecodePayloadJSON() error = %v", err)
	}
	drop, ok := payload.(PriceDropPayload)
	if !ok {
		t.Fatalf("payload = %T, want PriceDropPayload", payload)
	}
	if drop.ProductName != "Camera" || drop.PercentageDrop != 30 {
		t.Errorf("decoded payload = %+v", drop)
	}

	if _, err := DecodePayloadJSON("flash_sale", []byte(`{}`)); !IsValidationError(err) {
		t.Errorf("unknown type error = %v, want validation error", err)
	}
}

func TestAlertBSONRoundTrip(t *testing.T) {
	scheduled := time.Date(2026, 8, 20, 12, 5, 0, 0, time.UTC)
	alert := &Alert{
		ID:        primitive.NewObjectID(),
		UserID:    "user-1",
		ProductID: "prod-1",
		Type:      AlertTypePriceTarget,
		Priority:  PriorityMedium,
		Status:    AlertStatusPending,
		Title:     "Target reached",
		Message:   "now below target",
		Channels:  []Channel{ChannelPush},
		Payload: PriceTargetPayload{
			ProductName:  "Camera",
			TargetPrice:  80,
			CurrentPrice: 75.5,
			Currency:     "USD",
		},
		DeliveryAttempts:    1,
		MaxDeliveryAttempts: 3,
		ScheduledAt:         &scheduled,
		CreatedAt:           time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
	}

	data, err := bson.Marshal(alert)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var got Alert
	if err := bson.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if got.ID != alert.ID || got.Type != alert.Type || got.Status != alert.Status {
		t.Errorf("round trip lost identity fields: %+v", got)
	}
	if got.ScheduledAt == nil || !got.ScheduledAt.Equal(scheduled) {
		t.Errorf("ScheduledAt = %v, want %v", got.ScheduledAt, scheduled)
	}

	payload, ok := got.Payload.(PriceTargetPayload)
	if !ok {
		t.Fatalf("payload = %T, want PriceTargetPayload", got.Payload)
	}
	if payload.TargetPrice != 80 || payload.CurrentPrice != 75.5 {
		t.Errorf("payload = %+v", payload)
	}
}

func TestAlertBSONWithoutPayload(t *testing.T) {
	alert := &Alert{
		ID:        primitive.NewObjectID(),
		UserID:    "user-1",
		ProductID: "prod-1",
		Type:      AlertTypeBackInStock,
		Priority:  PriorityHigh,
		Status:    AlertStatusPending,
		Title:     "Back in stock",
		Channels:  []Channel{ChannelPush},
		CreatedAt: time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
	}

	data, err := bson.Marshal(alert)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var got Alert
	if err := bson.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got.Payload != nil {
		t.Errorf("Payload = %v, want nil", got.Payload)
	}
}

func TestTemplateVars(t *testing.T) {
	vars := PriceDropPayload{
		ProductName:    "Camera",
		OldPrice:       100,
		NewPrice:       70,
		PercentageDrop: 30,
	}.TemplateVars()

	if vars["product"] != "Camera" {
		t.Errorf("product = %q", vars["product"])
	}
	if vars["old_price"] != "100.00" || vars["new_price"] != "70.00" {
		t.Errorf("prices = %q / %q", vars["old_price"], vars["new_price"])
	}
}
