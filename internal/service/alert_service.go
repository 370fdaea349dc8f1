package service

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/pricewatch-dev/pricewatch/internal/models"
	"github.com/pricewatch-dev/pricewatch/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AlertService interface {
	CreateAlert(input CreateAlertInput) (*models.Alert, error)
	GetAlert(id string) (*models.Alert, error)
	GetAlertsByUserID(userID string) ([]*models.Alert, error)
	TriggerCondition(ctx context.Context, input TriggerInput) (*models.Alert, error)
}

// CreateAlertInput carries everything the prioritizer needs. Priority and
// Channels are optional; empty values are derived from the alert type.
type CreateAlertInput struct {
	UserID              string
	ProductID           string
	ConditionID         *primitive.ObjectID
	Type                models.AlertType
	Priority            models.AlertPriority
	Title               string
	Message             string
	Channels            []models.Channel
	Payload             models.AlertPayload
	MaxDeliveryAttempts int
}

// TriggerInput is what the external condition-evaluation pipeline reports
// when a watch rule fires. Price fields apply to price subtypes, the
// stock fields to stock subtypes.
type TriggerInput struct {
	ConditionID string
	ProductName string
	OldPrice    float64
	NewPrice    float64
	PreviousLow float64
	Quantity    int
	Store       string
	Currency    string
}

type alertService struct {
	alertRepo     repository.AlertRepository
	conditionRepo repository.ConditionRepository
	prefsRepo     repository.PreferencesRepository
	dispatcher    *Dispatcher
	logService    LogService
	events        EventPublisher
	now           func() time.Time
}

func NewAlertService(
	alertRepo repository.AlertRepository,
	conditionRepo repository.ConditionRepository,
	prefsRepo repository.PreferencesRepository,
	dispatcher *Dispatcher,
	logService LogService,
	events EventPublisher,
	now func() time.Time,
) AlertService {
	if now == nil {
		now = time.Now
	}
	return &alertService{
		alertRepo:     alertRepo,
		conditionRepo: conditionRepo,
		prefsRepo:     prefsRepo,
		dispatcher:    dispatcher,
		logService:    logService,
		events:        events,
		now:           now,
	}
}

// CreateAlert validates the input and builds a pending alert with derived
// priority and channels where the input leaves them empty. The alert is
// scheduled for immediate dispatch, so the retry loop keeps it in view
// even when the first round is denied or never runs.
func (s *alertService) CreateAlert(input CreateAlertInput) (*models.Alert, error) {
	if input.Title == "" {
		return nil, &models.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if utf8.RuneCountInString(input.Title) > models.MaxTitleLength {
		return nil, &models.ValidationError{Field: "title", Reason: "must be at most 200 characters"}
	}
	if !models.ValidAlertType(input.Type) {
		return nil, &models.ValidationError{Field: "type", Reason: "unknown alert type " + string(input.Type)}
	}
	for _, ch := range input.Channels {
		if !models.ValidChannel(ch) {
			return nil, &models.ValidationError{Field: "channels", Reason: "unknown channel " + string(ch)}
		}
	}

	priority := input.Priority
	if priority == "" {
		priority = DeterminePriority(input.Type, input.Payload)
	}
	channels := input.Channels
	if len(channels) == 0 {
		channels = DefaultChannels(input.Type)
	}
	maxAttempts := input.MaxDeliveryAttempts
	if maxAttempts <= 0 {
		maxAttempts = models.DefaultMaxDeliveryAttempts
	}

	createdAt := s.now()
	scheduledAt := createdAt
	alert := &models.Alert{
		ID:                  primitive.NewObjectID(),
		UserID:              input.UserID,
		ProductID:           input.ProductID,
		ConditionID:         input.ConditionID,
		Type:                input.Type,
		Priority:            priority,
		Status:              models.AlertStatusPending,
		Title:               input.Title,
		Message:             input.Message,
		Channels:            channels,
		Payload:             input.Payload,
		DeliveryAttempts:    0,
		MaxDeliveryAttempts: maxAttempts,
		ScheduledAt:         &scheduledAt,
		CreatedAt:           createdAt,
	}

	if err := s.alertRepo.SaveAlert(alert); err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.PublishAlertEvent(&models.AlertEvent{
			Type:   models.EventAlertCreated,
			UserID: alert.UserID,
			Alert:  alert,
			At:     s.now(),
		})
	}
	return alert, nil
}

func (s *alertService) GetAlert(id string) (*models.Alert, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.New("invalid alert ID")
	}
	return s.alertRepo.GetAlertByID(objID)
}

func (s *alertService) GetAlertsByUserID(userID string) ([]*models.Alert, error) {
	return s.alertRepo.GetAlertsByUserID(userID)
}

// TriggerCondition is the entry point for a fired watch rule: it bumps the
// condition's trigger count, builds the alert through the prioritizer
// (applying the user's per-type priority override), and runs one dispatch
// round.
func (s *alertService) TriggerCondition(ctx context.Context, input TriggerInput) (*models.Alert, error) {
	condID, err := primitive.ObjectIDFromHex(input.ConditionID)
	if err != nil {
		return nil, errors.New("invalid condition ID")
	}

	condition, err := s.conditionRepo.GetConditionByID(condID)
	if err != nil {
		return nil, err
	}
	if condition == nil {
		return nil, errors.New("condition not found")
	}
	if !condition.IsActive {
		return nil, errors.New("condition is not active")
	}
	if condition.Expired(s.now()) {
		if err := s.conditionRepo.SetActive(condition.ID, false); err != nil {
			return nil, err
		}
		return nil, errors.New("condition has expired")
	}

	if err := s.conditionRepo.IncrementTriggers(condition.ID); err != nil {
		return nil, err
	}

	alertType, payload, err := buildTriggerPayload(condition, input)
	if err != nil {
		return nil, err
	}

	prefs, err := s.prefsRepo.GetPreferences(condition.UserID)
	if err != nil {
		return nil, err
	}
	if prefs == nil {
		prefs = models.DefaultPreferences(condition.UserID)
	}

	priority := models.AlertPriority("")
	if override := prefs.PriorityOverride(alertType); override != nil {
		priority = *override
	}

	template := defaultTemplates[alertType]
	vars := payload.TemplateVars()

	alert, err := s.CreateAlert(CreateAlertInput{
		UserID:      condition.UserID,
		ProductID:   condition.ProductID,
		ConditionID: &condition.ID,
		Type:        alertType,
		Priority:    priority,
		Title:       FormatMessage(template.title, vars),
		Message:     FormatMessage(template.message, vars),
		Payload:     payload,
	})
	if err != nil {
		return nil, err
	}

	if s.logService != nil {
		metadata := map[string]interface{}{
			"condition_id": condition.ID.Hex(),
			"alert_id":     alert.ID.Hex(),
			"type":         alertType,
		}
		s.logService.LogAction(condition.UserID, "ConditionTriggered", "Watch condition fired", "", metadata)
	}

	if s.dispatcher != nil {
		err = s.dispatcher.Dispatch(ctx, alert, prefs)
		if err != nil && !errors.Is(err, ErrDeliveryDenied) && !errors.Is(err, ErrDispatchInFlight) {
			return alert, err
		}
	}
	return alert, nil
}

// DeterminePriority derives a priority from the alert type and its payload.
// The price-drop cutoff is 30 percent: at or above it the drop is urgent,
// below it medium.
func DeterminePriority(t models.AlertType, payload models.AlertPayload) models.AlertPriority {
	switch t {
	case models.AlertTypeHistoricalLow:
		return models.PriorityUrgent
	case models.AlertTypeStockAvailable, models.AlertTypeBackInStock:
		return models.PriorityHigh
	case models.AlertTypePriceDrop:
		if p, ok := payload.(models.PriceDropPayload); ok && p.PercentageDrop >= 30 {
			return models.PriorityUrgent
		}
		return models.PriorityMedium
	}
	return models.PriorityMedium
}

// DefaultChannels returns the channels an alert of the given type goes out
// on when the user has not picked any.
func DefaultChannels(t models.AlertType) []models.Channel {
	switch t {
	case models.AlertTypeHistoricalLow, models.AlertTypePriceDrop:
		return []models.Channel{models.ChannelPush, models.ChannelEmail}
	case models.AlertTypeBackInStock, models.AlertTypePriceTarget:
		return []models.Channel{models.ChannelPush}
	}
	return []models.Channel{models.ChannelPush}
}

type messageTemplate struct {
	title   string
	message string
}

var defaultTemplates = map[models.AlertType]messageTemplate{
	models.AlertTypePriceDrop: {
		title:   "Price drop: {{product}}",
		message: "{{product}} dropped {{percentage_drop}}% from {{old_price}} to {{new_price}}",
	},
	models.AlertTypeHistoricalLow: {
		title:   "Lowest price ever: {{product}}",
		message: "{{product}} hit an all-time low of {{price}} (previous low {{previous_low}})",
	},
	models.AlertTypePriceTarget: {
		title:   "Target price reached: {{product}}",
		message: "{{product}} is now {{current_price}}, at or below your target of {{target_price}}",
	},
	models.AlertTypeBackInStock: {
		title:   "Back in stock: {{product}}",
		message: "{{product}} is available again at {{store}}",
	},
	models.AlertTypeStockAvailable: {
		title:   "Stock running low: {{product}}",
		message: "Only {{quantity}} left of {{product}} at {{store}}",
	},
}

// buildTriggerPayload maps a fired condition subtype onto the alert type
// and payload variant it produces. A price trigger that undercuts the
// product's previous all-time low becomes a historical-low alert instead
// of its usual type.
func buildTriggerPayload(condition *models.AlertCondition, input TriggerInput) (models.AlertType, models.AlertPayload, error) {
	switch rule := condition.Rule.(type) {
	case models.BelowTargetRule:
		if input.PreviousLow > 0 && input.NewPrice < input.PreviousLow {
			return models.AlertTypeHistoricalLow, models.HistoricalLowPayload{
				ProductName: input.ProductName,
				Price:       input.NewPrice,
				PreviousLow: input.PreviousLow,
				Currency:    input.Currency,
			}, nil
		}
		return models.AlertTypePriceTarget, models.PriceTargetPayload{
			ProductName:  input.ProductName,
			TargetPrice:  rule.TargetPrice,
			CurrentPrice: input.NewPrice,
			Currency:     input.Currency,
		}, nil
	case models.PercentageDropRule:
		if input.PreviousLow > 0 && input.NewPrice < input.PreviousLow {
			return models.AlertTypeHistoricalLow, models.HistoricalLowPayload{
				ProductName: input.ProductName,
				Price:       input.NewPrice,
				PreviousLow: input.PreviousLow,
				Currency:    input.Currency,
			}, nil
		}
		drop := 0.0
		if input.OldPrice > 0 {
			drop = (input.OldPrice - input.NewPrice) / input.OldPrice * 100
		}
		return models.AlertTypePriceDrop, models.PriceDropPayload{
			ProductName:    input.ProductName,
			OldPrice:       input.OldPrice,
			NewPrice:       input.NewPrice,
			PercentageDrop: drop,
			Currency:       input.Currency,
		}, nil
	case models.BackInStockRule:
		return models.AlertTypeBackInStock, models.BackInStockPayload{
			ProductName: input.ProductName,
			Store:       input.Store,
		}, nil
	case models.LowStockRule:
		return models.AlertTypeStockAvailable, models.StockAvailablePayload{
			ProductName: input.ProductName,
			Store:       input.Store,
			Quantity:    input.Quantity,
		}, nil
	}
	return "", nil, errors.New("condition has no rule")
}
