package service

import (
	"time"

	"github.com/pricewatch-dev/pricewatch/internal/models"
	"github.com/pricewatch-dev/pricewatch/internal/repository"
)

type PreferencesService interface {
	GetPreferences(userID string) (*models.NotificationPreferences, error)
	UpdatePreferences(prefs *models.NotificationPreferences) error
}

type preferencesService struct {
	prefsRepo repository.PreferencesRepository
}

func NewPreferencesService(prefsRepo repository.PreferencesRepository) PreferencesService {
	return &preferencesService{prefsRepo: prefsRepo}
}

// GetPreferences falls back to the defaults for users who never saved any.
func (s *preferencesService) GetPreferences(userID string) (*models.NotificationPreferences, error) {
	prefs, err := s.prefsRepo.GetPreferences(userID)
	if err != nil {
		return nil, err
	}
	if prefs == nil {
		return models.DefaultPreferences(userID), nil
	}
	return prefs, nil
}

// UpdatePreferences validates the whole document before persisting it.
// The delivery gate relies on writes being the only validation point for
// quiet-hours config.
func (s *preferencesService) UpdatePreferences(prefs *models.NotificationPreferences) error {
	for _, ch := range prefs.EnabledChannels {
		if !models.ValidChannel(ch) {
			return &models.ValidationError{Field: "enabled_channels", Reason: "unknown channel " + string(ch)}
		}
	}
	if prefs.MaxNotificationsPerHour <= 0 {
		return &models.ValidationError{Field: "max_notifications_per_hour", Reason: "must be positive"}
	}
	if prefs.MaxNotificationsPerDay <= 0 {
		return &models.ValidationError{Field: "max_notifications_per_day", Reason: "must be positive"}
	}

	if err := validateQuietHours(prefs.QuietHours); err != nil {
		return err
	}
	for alertType, override := range prefs.TypeOverrides {
		if !models.ValidAlertType(alertType) {
			return &models.ValidationError{Field: "type_overrides", Reason: "unknown alert type " + string(alertType)}
		}
		if override.QuietHours != nil {
			if err := validateQuietHours(*override.QuietHours); err != nil {
				return err
			}
		}
	}

	return s.prefsRepo.SavePreferences(prefs)
}

func validateQuietHours(qh models.QuietHours) error {
	if !qh.Enabled {
		return nil
	}
	if _, err := parseClock(qh.Start); err != nil {
		return err
	}
	if _, err := parseClock(qh.End); err != nil {
		return err
	}
	if _, err := time.LoadLocation(qh.Timezone); err != nil {
		return &models.ValidationError{Field: "quiet_hours.timezone", Reason: "unknown timezone " + qh.Timezone}
	}
	return nil
}
