package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/pricewatch-dev/pricewatch/internal/models"
	"github.com/pricewatch-dev/pricewatch/internal/repository"
)

const (
	retryBaseDelay = 5 * time.Minute
	retryMaxDelay  = 24 * time.Hour

	// 2^maxBackoffShift * retryBaseDelay already exceeds retryMaxDelay;
	// larger attempt counts would overflow the shift.
	maxBackoffShift = 16
)

// RetryScheduler re-arms failed alerts and drives the retry loop. Backoff
// math is pure so it can be tested with fixed times.
type RetryScheduler struct {
	alertRepo     repository.AlertRepository
	conditionRepo repository.ConditionRepository
	prefsRepo     repository.PreferencesRepository
	dispatcher    *Dispatcher
	events        EventPublisher
	pollInterval  time.Duration
	now           func() time.Time
}

func NewRetryScheduler(
	alertRepo repository.AlertRepository,
	conditionRepo repository.ConditionRepository,
	prefsRepo repository.PreferencesRepository,
	dispatcher *Dispatcher,
	events EventPublisher,
	pollInterval time.Duration,
	now func() time.Time,
) *RetryScheduler {
	if now == nil {
		now = time.Now
	}
	if pollInterval <= 0 {
		pollInterval = 30 * time.Second
	}
	return &RetryScheduler{
		alertRepo:     alertRepo,
		conditionRepo: conditionRepo,
		prefsRepo:     prefsRepo,
		dispatcher:    dispatcher,
		events:        events,
		pollInterval:  pollInterval,
		now:           now,
	}
}

// ShouldRetry reports whether a failed alert still has attempts left.
func ShouldRetry(alert *models.Alert) bool {
	return alert.Status == models.AlertStatusFailed && alert.DeliveryAttempts < alert.MaxDeliveryAttempts
}

// NextRetryTime returns createdAt + min(5min * 2^attempts, 24h). The delay
// is anchored to the alert's creation time, not the latest attempt, so a
// round that fails long after creation yields a time already in the past
// and the retry loop picks it up on its next poll.
func NextRetryTime(alert *models.Alert) time.Time {
	delay := retryMaxDelay
	if alert.DeliveryAttempts < maxBackoffShift {
		delay = retryBaseDelay * (1 << uint(alert.DeliveryAttempts))
		if delay > retryMaxDelay {
			delay = retryMaxDelay
		}
	}
	return alert.CreatedAt.Add(delay)
}

// FormatMessage substitutes every {{key}} occurrence with its variable.
// Placeholders without a matching variable are left untouched.
func FormatMessage(template string, variables map[string]string) string {
	out := template
	for key, value := range variables {
		out = strings.ReplaceAll(out, "{{"+key+"}}", value)
	}
	return out
}

// Run polls for due retries until the context is cancelled.
func (s *RetryScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.DispatchDue(ctx)
		}
	}
}

// DispatchDue re-dispatches every pending alert whose scheduled time has
// passed. Each alert's liveness is re-checked immediately before firing:
// an alert whose source condition is gone, deactivated, or expired is
// marked expired without any send.
func (s *RetryScheduler) DispatchDue(ctx context.Context) {
	alerts, err := s.alertRepo.GetDueAlerts(s.now())
	if err != nil {
		log.Printf("retry: failed to fetch due alerts: %v", err)
		return
	}

	for _, alert := range alerts {
		if ctx.Err() != nil {
			return
		}

		live, err := s.alive(alert)
		if err != nil {
			log.Printf("retry: liveness check failed for alert %s: %v", alert.ID.Hex(), err)
			continue
		}
		if !live {
			s.expire(alert)
			continue
		}

		prefs, err := s.prefsRepo.GetPreferences(alert.UserID)
		if err != nil {
			log.Printf("retry: failed to load preferences for user %s: %v", alert.UserID, err)
			continue
		}

		err = s.dispatcher.Dispatch(ctx, alert, prefs)
		if err != nil && !errors.Is(err, ErrDispatchInFlight) && !errors.Is(err, ErrDeliveryDenied) {
			log.Printf("retry: dispatch failed for alert %s: %v", alert.ID.Hex(), err)
		}
	}
}

func (s *RetryScheduler) alive(alert *models.Alert) (bool, error) {
	if alert.Status != models.AlertStatusPending {
		return false, nil
	}
	if alert.ConditionID == nil {
		return true, nil
	}

	condition, err := s.conditionRepo.GetConditionByID(*alert.ConditionID)
	if err != nil {
		return false, err
	}
	if condition == nil || !condition.IsActive || condition.Expired(s.now()) {
		return false, nil
	}
	return true, nil
}

func (s *RetryScheduler) expire(alert *models.Alert) {
	alert.Status = models.AlertStatusExpired
	alert.ScheduledAt = nil
	if err := s.alertRepo.UpdateAlert(alert.ID, alert); err != nil {
		log.Printf("retry: failed to expire alert %s: %v", alert.ID.Hex(), err)
		return
	}
	if s.events != nil {
		s.events.PublishAlertEvent(&models.AlertEvent{
			Type:   models.EventAlertExpired,
			UserID: alert.UserID,
			Alert:  alert,
			At:     s.now(),
		})
	}
}
