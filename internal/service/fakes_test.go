package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pricewatch-dev/pricewatch/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// settableClock is a fake clock that can be moved between dispatch rounds.
type settableClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *settableClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *settableClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

type fakeAlertRepo struct {
	mu      sync.Mutex
	alerts  map[primitive.ObjectID]*models.Alert
	updates int
}

func newFakeAlertRepo() *fakeAlertRepo {
	return &fakeAlertRepo{alerts: make(map[primitive.ObjectID]*models.Alert)}
}

func (r *fakeAlertRepo) SaveAlert(alert *models.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts[alert.ID] = alert
	return nil
}

func (r *fakeAlertRepo) GetAlertByID(id primitive.ObjectID) (*models.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.alerts[id], nil
}

func (r *fakeAlertRepo) GetAlertsByUserID(userID string) ([]*models.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Alert
	for _, alert := range r.alerts {
		if alert.UserID == userID {
			out = append(out, alert)
		}
	}
	return out, nil
}

func (r *fakeAlertRepo) GetAlertsByUserInPeriod(userID string, from, to time.Time) ([]*models.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Alert
	for _, alert := range r.alerts {
		if alert.UserID == userID && !alert.CreatedAt.Before(from) && alert.CreatedAt.Before(to) {
			out = append(out, alert)
		}
	}
	return out, nil
}

func (r *fakeAlertRepo) GetDueAlerts(now time.Time) ([]*models.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Alert
	for _, alert := range r.alerts {
		if alert.Status == models.AlertStatusPending && alert.ScheduledAt != nil && !alert.ScheduledAt.After(now) {
			out = append(out, alert)
		}
	}
	return out, nil
}

func (r *fakeAlertRepo) UpdateAlert(id primitive.ObjectID, alert *models.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.alerts[id]; !ok {
		return errors.New("alert not found")
	}
	r.alerts[id] = alert
	r.updates++
	return nil
}

type fakeConditionRepo struct {
	mu         sync.Mutex
	conditions map[primitive.ObjectID]*models.AlertCondition
}

func newFakeConditionRepo() *fakeConditionRepo {
	return &fakeConditionRepo{conditions: make(map[primitive.ObjectID]*models.AlertCondition)}
}

func (r *fakeConditionRepo) SaveCondition(condition *models.AlertCondition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conditions[condition.ID] = condition
	return nil
}

func (r *fakeConditionRepo) GetConditionByID(id primitive.ObjectID) (*models.AlertCondition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conditions[id], nil
}

func (r *fakeConditionRepo) GetConditionsByUserID(userID string) ([]*models.AlertCondition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.AlertCondition
	for _, condition := range r.conditions {
		if condition.UserID == userID {
			out = append(out, condition)
		}
	}
	return out, nil
}

func (r *fakeConditionRepo) IncrementTriggers(id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	condition, ok := r.conditions[id]
	if !ok {
		return errors.New("condition not found")
	}
	condition.TotalTriggers++
	return nil
}

func (r *fakeConditionRepo) SetActive(id primitive.ObjectID, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	condition, ok := r.conditions[id]
	if !ok {
		return errors.New("condition not found")
	}
	condition.IsActive = active
	return nil
}

func (r *fakeConditionRepo) DeleteCondition(id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conditions, id)
	return nil
}

type fakePrefsRepo struct {
	mu    sync.Mutex
	prefs map[string]*models.NotificationPreferences
}

func newFakePrefsRepo() *fakePrefsRepo {
	return &fakePrefsRepo{prefs: make(map[string]*models.NotificationPreferences)}
}

func (r *fakePrefsRepo) GetPreferences(userID string) (*models.NotificationPreferences, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.prefs[userID], nil
}

func (r *fakePrefsRepo) SavePreferences(prefs *models.NotificationPreferences) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefs[prefs.UserID] = prefs
	return nil
}

type fakeResultRepo struct {
	mu      sync.Mutex
	results []*models.AlertDeliveryResult
}

func newFakeResultRepo() *fakeResultRepo {
	return &fakeResultRepo{}
}

func (r *fakeResultRepo) SaveResult(result *models.AlertDeliveryResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
	return nil
}

func (r *fakeResultRepo) GetResultsByAlertID(alertID primitive.ObjectID) ([]*models.AlertDeliveryResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.AlertDeliveryResult
	for _, result := range r.results {
		if result.AlertID == alertID {
			out = append(out, result)
		}
	}
	return out, nil
}

func (r *fakeResultRepo) GetResultsByAlertIDs(alertIDs []primitive.ObjectID) ([]*models.AlertDeliveryResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := make(map[primitive.ObjectID]bool, len(alertIDs))
	for _, id := range alertIDs {
		wanted[id] = true
	}
	var out []*models.AlertDeliveryResult
	for _, result := range r.results {
		if wanted[result.AlertID] {
			out = append(out, result)
		}
	}
	return out, nil
}

func (r *fakeResultRepo) byChannel(channel models.Channel) *models.AlertDeliveryResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, result := range r.results {
		if result.Channel == channel {
			return result
		}
	}
	return nil
}

type fakeRateRepo struct {
	mu        sync.Mutex
	hourCount int
	dayCount  int
	increment int
	err       error
}

func (r *fakeRateRepo) IncrementSent(ctx context.Context, userID string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.increment++
	return nil
}

func (r *fakeRateRepo) HourlySentCount(ctx context.Context, userID string, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hourCount, r.err
}

func (r *fakeRateRepo) DailySentCount(ctx context.Context, userID string, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dayCount, r.err
}

type fakeLogRepo struct {
	mu      sync.Mutex
	entries []*models.LogEntry
}

func (r *fakeLogRepo) SaveLog(entry *models.LogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeLogRepo) GetAllLogs(page, limit int) ([]*models.LogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries, nil
}

func (r *fakeLogRepo) GetLogsByUserID(userID string, page, limit int) ([]*models.LogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.LogEntry
	for _, entry := range r.entries {
		if entry.UserID == userID {
			out = append(out, entry)
		}
	}
	return out, nil
}

// fakeSender fails the channels listed in failing and succeeds otherwise.
// An optional block channel holds every send until it is closed.
type fakeSender struct {
	mu      sync.Mutex
	failing map[models.Channel]bool
	block   chan struct{}
	sends   int
}

func (s *fakeSender) Send(ctx context.Context, alert *models.Alert, channel models.Channel) (*SendReceipt, error) {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	s.mu.Lock()
	s.sends++
	fail := s.failing[channel]
	s.mu.Unlock()
	if fail {
		return nil, errors.New("provider rejected message")
	}
	return &SendReceipt{MessageID: "msg-" + string(channel)}, nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []*models.AlertEvent
}

func (e *fakeEvents) PublishAlertEvent(event *models.AlertEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
}

func (e *fakeEvents) types() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []string
	for _, event := range e.events {
		out = append(out, event.Type)
	}
	return out
}
