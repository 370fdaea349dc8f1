package service

import (
	"context"
	"log"

	"github.com/pricewatch-dev/pricewatch/internal/models"

	"github.com/google/uuid"
)

// SendReceipt is what a channel provider reports back for one send.
type SendReceipt struct {
	MessageID      string
	ResponseTimeMs int64
}

// ChannelSender is the transport port for one delivery medium. Concrete
// push/email/sms providers live outside this repository; the dispatcher
// only consumes this interface.
type ChannelSender interface {
	Send(ctx context.Context, alert *models.Alert, channel models.Channel) (*SendReceipt, error)
}

// EventPublisher receives alert lifecycle events. The websocket hub
// implements it; a nil publisher is allowed everywhere.
type EventPublisher interface {
	PublishAlertEvent(event *models.AlertEvent)
}

// LogSender writes sends to the process log. It stands in for real
// providers in development and tests.
type LogSender struct{}

func NewLogSender() *LogSender {
	return &LogSender{}
}

func (s *LogSender) Send(ctx context.Context, alert *models.Alert, channel models.Channel) (*SendReceipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log.Printf("Sending alert %s to user %s via %s: %s", alert.ID.Hex(), alert.UserID, channel, alert.Title)
	return &SendReceipt{MessageID: uuid.New().String()}, nil
}
