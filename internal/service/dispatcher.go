package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/pricewatch-dev/pricewatch/internal/models"
	"github.com/pricewatch-dev/pricewatch/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrDispatchInFlight means another dispatch round for the same alert
	// id is still running.
	ErrDispatchInFlight = errors.New("dispatch already in flight for alert")
	// ErrDeliveryDenied means the delivery gate rejected the alert for
	// now. No attempt is consumed and the alert keeps its scheduled
	// time, so the retry loop re-evaluates it on a later poll.
	ErrDeliveryDenied = errors.New("delivery denied by policy")
)

// Dispatcher fans an approved alert out to its channels, records every
// attempt as a delivery result row, and writes the alert's new state
// exactly once after all channel sends have joined.
type Dispatcher struct {
	alertRepo   repository.AlertRepository
	resultRepo  repository.DeliveryResultRepository
	rateRepo    repository.RateLimitRepository
	senders     map[models.Channel]ChannelSender
	gate        *DeliveryGate
	logService  LogService
	events      EventPublisher
	sendTimeout time.Duration
	now         func() time.Time

	mu       sync.Mutex
	inFlight map[primitive.ObjectID]struct{}
}

func NewDispatcher(
	alertRepo repository.AlertRepository,
	resultRepo repository.DeliveryResultRepository,
	rateRepo repository.RateLimitRepository,
	senders map[models.Channel]ChannelSender,
	gate *DeliveryGate,
	logService LogService,
	events EventPublisher,
	sendTimeout time.Duration,
	now func() time.Time,
) *Dispatcher {
	if now == nil {
		now = time.Now
	}
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}
	return &Dispatcher{
		alertRepo:   alertRepo,
		resultRepo:  resultRepo,
		rateRepo:    rateRepo,
		senders:     senders,
		gate:        gate,
		logService:  logService,
		events:      events,
		sendTimeout: sendTimeout,
		now:         now,
		inFlight:    make(map[primitive.ObjectID]struct{}),
	}
}

// Dispatch runs one delivery round for the alert. At most one round per
// alert id is allowed in flight; concurrent calls for the same id get
// ErrDispatchInFlight. Gate denials return ErrDeliveryDenied without
// consuming an attempt; the alert stays pending with its schedule intact
// so the retry loop picks it up once the policy clears.
func (d *Dispatcher) Dispatch(ctx context.Context, alert *models.Alert, prefs *models.NotificationPreferences) error {
	if !d.acquire(alert.ID) {
		return ErrDispatchInFlight
	}
	defer d.release(alert.ID)

	if prefs == nil {
		prefs = models.DefaultPreferences(alert.UserID)
	}

	hourCount, err := d.rateRepo.HourlySentCount(ctx, alert.UserID, d.now())
	if err != nil {
		return err
	}
	dayCount, err := d.rateRepo.DailySentCount(ctx, alert.UserID, d.now())
	if err != nil {
		return err
	}

	if dayCount >= prefs.MaxNotificationsPerDay {
		return ErrDeliveryDenied
	}
	if !d.gate.CanSendAlert(alert, prefs, hourCount) {
		return ErrDeliveryDenied
	}

	channels := enabledChannels(alert, prefs)

	if err := d.rateRepo.IncrementSent(ctx, alert.UserID, d.now()); err != nil {
		return err
	}

	d.publish(models.EventAlertDispatched, alert)

	// One task per channel; a failure on one channel never cancels its
	// siblings, so the group functions always return nil and outcomes
	// are collected positionally.
	succeeded := make([]bool, len(channels))
	group := &errgroup.Group{}
	for i, channel := range channels {
		i, channel := i, channel
		group.Go(func() error {
			succeeded[i] = d.sendToChannel(ctx, alert, channel)
			return nil
		})
	}
	group.Wait()

	return d.finishRound(alert, channels, succeeded)
}

// finishRound applies the single post-join state transition for the
// dispatch round: delivered when every channel succeeded, otherwise one
// attempt is consumed and the alert is either re-armed for retry or
// terminally failed.
func (d *Dispatcher) finishRound(alert *models.Alert, channels []models.Channel, succeeded []bool) error {
	allOK := len(channels) > 0
	for _, ok := range succeeded {
		if !ok {
			allOK = false
		}
	}

	if allOK {
		deliveredAt := d.now()
		alert.Status = models.AlertStatusDelivered
		alert.DeliveredAt = &deliveredAt
		alert.ScheduledAt = nil
		if err := d.alertRepo.UpdateAlert(alert.ID, alert); err != nil {
			return err
		}
		d.audit(alert, "AlertDelivered", "Alert delivered on all channels")
		d.publish(models.EventAlertDelivered, alert)
		return nil
	}

	alert.DeliveryAttempts++
	alert.Status = models.AlertStatusFailed

	if ShouldRetry(alert) {
		next := NextRetryTime(alert)
		alert.Status = models.AlertStatusPending
		alert.ScheduledAt = &next
		if err := d.alertRepo.UpdateAlert(alert.ID, alert); err != nil {
			return err
		}
		d.audit(alert, "AlertRetryScheduled", "Delivery failed, retry scheduled")
		return nil
	}

	alert.ScheduledAt = nil
	if err := d.alertRepo.UpdateAlert(alert.ID, alert); err != nil {
		return err
	}
	d.audit(alert, "AlertFailed", "Delivery failed, attempts exhausted")
	d.publish(models.EventAlertFailed, alert)
	return nil
}

// sendToChannel performs one channel send under the configured timeout
// and appends the outcome to the delivery log no matter what happened.
// A timeout is recorded exactly like a returned failure.
func (d *Dispatcher) sendToChannel(ctx context.Context, alert *models.Alert, channel models.Channel) bool {
	result := &models.AlertDeliveryResult{
		AlertID:   alert.ID,
		Channel:   channel,
		CreatedAt: d.now(),
	}

	sender, ok := d.senders[channel]
	if !ok {
		result.Outcome = models.DeliveryFailed
		result.Error = "no sender configured for channel " + string(channel)
		d.appendResult(result)
		return false
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	start := time.Now()
	receipt, err := sender.Send(sendCtx, alert, channel)
	result.ResponseTimeMs = time.Since(start).Milliseconds()

	if err != nil {
		result.Outcome = models.DeliveryFailed
		result.Error = err.Error()
		d.appendResult(result)
		return false
	}

	deliveredAt := d.now()
	result.Outcome = models.DeliverySuccess
	result.DeliveredAt = &deliveredAt
	if receipt != nil {
		result.MessageID = receipt.MessageID
		if receipt.ResponseTimeMs > 0 {
			result.ResponseTimeMs = receipt.ResponseTimeMs
		}
	}
	d.appendResult(result)
	return true
}

func (d *Dispatcher) appendResult(result *models.AlertDeliveryResult) {
	if err := d.resultRepo.SaveResult(result); err != nil {
		log.Printf("dispatcher: failed to save delivery result for alert %s: %v", result.AlertID.Hex(), err)
	}
}

func (d *Dispatcher) acquire(id primitive.ObjectID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, busy := d.inFlight[id]; busy {
		return false
	}
	d.inFlight[id] = struct{}{}
	return true
}

func (d *Dispatcher) release(id primitive.ObjectID) {
	d.mu.Lock()
	delete(d.inFlight, id)
	d.mu.Unlock()
}

func (d *Dispatcher) publish(eventType string, alert *models.Alert) {
	if d.events == nil {
		return
	}
	d.events.PublishAlertEvent(&models.AlertEvent{
		Type:   eventType,
		UserID: alert.UserID,
		Alert:  alert,
		At:     d.now(),
	})
}

func (d *Dispatcher) audit(alert *models.Alert, action, description string) {
	if d.logService == nil {
		return
	}
	metadata := map[string]interface{}{
		"alert_id": alert.ID.Hex(),
		"type":     alert.Type,
		"status":   alert.Status,
		"attempts": alert.DeliveryAttempts,
	}
	if err := d.logService.LogAction(alert.UserID, action, description, "", metadata); err != nil {
		log.Printf("dispatcher: failed to write audit log: %v", err)
	}
}

// enabledChannels intersects the alert's channels with the user's enabled
// set, preserving the alert's order.
func enabledChannels(alert *models.Alert, prefs *models.NotificationPreferences) []models.Channel {
	var out []models.Channel
	for _, ch := range alert.Channels {
		if prefs.ChannelEnabled(ch) {
			out = append(out, ch)
		}
	}
	return out
}
