package service

import (
	"context"
	"testing"
	"time"

	"github.com/pricewatch-dev/pricewatch/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name     string
		status   models.AlertStatus
		attempts int
		max      int
		want     bool
	}{
		{"failed with attempts left", models.AlertStatusFailed, 1, 3, true},
		{"failed at the limit", models.AlertStatusFailed, 3, 3, false},
		{"pending alerts are not retried", models.AlertStatusPending, 1, 3, false},
		{"delivered alerts are not retried", models.AlertStatusDelivered, 1, 3, false},
		{"expired alerts are not retried", models.AlertStatusExpired, 1, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alert := &models.Alert{
				Status:              tt.status,
				DeliveryAttempts:    tt.attempts,
				MaxDeliveryAttempts: tt.max,
			}
			if got := ShouldRetry(alert); got != tt.want {
				t.Errorf("ShouldRetry() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNextRetryTime(t *testing.T) {
	createdAt := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		attempts int
		want     time.Time
	}{
		{"first failure waits five minutes", 1, createdAt.Add(10 * time.Minute)},
		{"no attempts yet", 0, createdAt.Add(5 * time.Minute)},
		{"two attempts doubles twice", 2, createdAt.Add(20 * time.Minute)},
		{"five attempts", 5, createdAt.Add(160 * time.Minute)},
		{"nine attempts capped at a day", 9, createdAt.Add(24 * time.Hour)},
		{"large attempt count stays capped", 40, createdAt.Add(24 * time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alert := &models.Alert{CreatedAt: createdAt, DeliveryAttempts: tt.attempts}
			if got := NextRetryTime(alert); !got.Equal(tt.want) {
				t.Errorf("NextRetryTime() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatMessage(t *testing.T) {
	tests := []struct {
		name     string
		template string
		vars     map[string]string
		want     string
	}{
		{
			name:     "substitutes all placeholders",
			template: "{{product}} dropped to {{price}}",
			vars:     map[string]string{"product": "Camera", "price": "199.99"},
			want:     "Camera dropped to 199.99",
		},
		{
			name:     "unknown placeholder left untouched",
			template: "{{product}} at {{store}}",
			vars:     map[string]string{"product": "Camera"},
			want:     "Camera at {{store}}",
		},
		{
			name:     "repeated placeholder",
			template: "{{x}} and {{x}}",
			vars:     map[string]string{"x": "y"},
			want:     "y and y",
		},
		{
			name:     "no placeholders",
			template: "plain text",
			vars:     map[string]string{"product": "Camera"},
			want:     "plain text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatMessage(tt.template, tt.vars); got != tt.want {
				t.Errorf("FormatMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDispatchDueExpiresDeadConditions(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	due := now.Add(-time.Minute)

	alertRepo := newFakeAlertRepo()
	conditionRepo := newFakeConditionRepo()
	prefsRepo := newFakePrefsRepo()
	events := &fakeEvents{}

	condition, err := models.NewPriceCondition("user-1", "prod-1", models.ConditionBelowTarget, 100, now.Add(-time.Hour), nil)
	if err != nil {
		t.Fatal(err)
	}
	condition.IsActive = false
	conditionRepo.SaveCondition(condition)

	alert := &models.Alert{
		ID:                  primitive.NewObjectID(),
		UserID:              "user-1",
		ConditionID:         &condition.ID,
		Type:                models.AlertTypePriceTarget,
		Priority:            models.PriorityMedium,
		Status:              models.AlertStatusPending,
		Title:               "Target reached",
		Channels:            []models.Channel{models.ChannelPush},
		MaxDeliveryAttempts: 3,
		ScheduledAt:         &due,
		CreatedAt:           now.Add(-time.Hour),
	}
	alertRepo.SaveAlert(alert)

	scheduler := NewRetryScheduler(alertRepo, conditionRepo, prefsRepo, nil, events, time.Second, fixedClock(now))
	scheduler.DispatchDue(context.Background())

	got, _ := alertRepo.GetAlertByID(alert.ID)
	if got.Status != models.AlertStatusExpired {
		t.Fatalf("alert status = %q, want %q", got.Status, models.AlertStatusExpired)
	}
	if got.ScheduledAt != nil {
		t.Errorf("ScheduledAt = %v, want nil", got.ScheduledAt)
	}

	types := events.types()
	if len(types) != 1 || types[0] != models.EventAlertExpired {
		t.Errorf("published events = %v, want [%s]", types, models.EventAlertExpired)
	}
}

func TestDispatchDueDeliversAfterQuietHours(t *testing.T) {
	night := time.Date(2026, 8, 20, 23, 0, 0, 0, time.UTC)
	clock := &settableClock{t: night}

	alertRepo := newFakeAlertRepo()
	conditionRepo := newFakeConditionRepo()
	prefsRepo := newFakePrefsRepo()
	resultRepo := newFakeResultRepo()
	rateRepo := &fakeRateRepo{}
	events := &fakeEvents{}

	prefs := models.DefaultPreferences("user-1")
	prefs.QuietHours = models.QuietHours{Enabled: true, Start: "22:00", End: "08:00", Timezone: "UTC"}
	prefsRepo.SavePreferences(prefs)

	senders := map[models.Channel]ChannelSender{
		models.ChannelPush: &fakeSender{},
	}
	gate := NewDeliveryGate(clock.Now)
	dispatcher := NewDispatcher(alertRepo, resultRepo, rateRepo, senders, gate, nil, events, time.Second, clock.Now)
	svc := NewAlertService(alertRepo, conditionRepo, prefsRepo, dispatcher, nil, events, clock.Now)

	condition, err := models.NewPriceCondition("user-1", "prod-1", models.ConditionBelowTarget, 100, night.Add(-time.Hour), nil)
	if err != nil {
		t.Fatal(err)
	}
	conditionRepo.SaveCondition(condition)

	alert, err := svc.TriggerCondition(context.Background(), TriggerInput{
		ConditionID: condition.ID.Hex(),
		ProductName: "Camera",
		NewPrice:    90,
		Currency:    "USD",
	})
	if err != nil {
		t.Fatalf("TriggerCondition() error = %v", err)
	}

	held, _ := alertRepo.GetAlertByID(alert.ID)
	if held.Status != models.AlertStatusPending {
		t.Fatalf("status during quiet hours = %q, want pending", held.Status)
	}
	if held.ScheduledAt == nil {
		t.Fatal("alert held by quiet hours lost its schedule; the retry loop would never see it")
	}

	clock.Set(time.Date(2026, 8, 21, 9, 0, 0, 0, time.UTC))
	scheduler := NewRetryScheduler(alertRepo, conditionRepo, prefsRepo, dispatcher, events, time.Second, clock.Now)
	scheduler.DispatchDue(context.Background())

	got, _ := alertRepo.GetAlertByID(alert.ID)
	if got.Status != models.AlertStatusDelivered {
		t.Fatalf("status after quiet hours ended = %q, want delivered", got.Status)
	}
	if got.DeliveredAt == nil {
		t.Error("DeliveredAt not set")
	}
	if rateRepo.increment != 1 {
		t.Errorf("rate counter incremented %d times, want 1", rateRepo.increment)
	}
}

func TestDispatchDueDeliversLiveAlerts(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	due := now.Add(-time.Minute)

	alertRepo := newFakeAlertRepo()
	conditionRepo := newFakeConditionRepo()
	prefsRepo := newFakePrefsRepo()
	resultRepo := newFakeResultRepo()
	rateRepo := &fakeRateRepo{}
	events := &fakeEvents{}

	senders := map[models.Channel]ChannelSender{
		models.ChannelPush: &fakeSender{},
	}
	gate := NewDeliveryGate(fixedClock(now))
	dispatcher := NewDispatcher(alertRepo, resultRepo, rateRepo, senders, gate, nil, events, time.Second, fixedClock(now))

	alert := &models.Alert{
		ID:                  primitive.NewObjectID(),
		UserID:              "user-1",
		Type:                models.AlertTypePriceDrop,
		Priority:            models.PriorityMedium,
		Status:              models.AlertStatusPending,
		Title:               "Price drop",
		Channels:            []models.Channel{models.ChannelPush},
		DeliveryAttempts:    1,
		MaxDeliveryAttempts: 3,
		ScheduledAt:         &due,
		CreatedAt:           now.Add(-time.Hour),
	}
	alertRepo.SaveAlert(alert)

	scheduler := NewRetryScheduler(alertRepo, conditionRepo, prefsRepo, dispatcher, events, time.Second, fixedClock(now))
	scheduler.DispatchDue(context.Background())

	got, _ := alertRepo.GetAlertByID(alert.ID)
	if got.Status != models.AlertStatusDelivered {
		t.Fatalf("alert status = %q, want %q", got.Status, models.AlertStatusDelivered)
	}
	if got.DeliveredAt == nil {
		t.Error("DeliveredAt not set")
	}
	if got.ScheduledAt != nil {
		t.Errorf("ScheduledAt = %v, want nil", got.ScheduledAt)
	}
}
