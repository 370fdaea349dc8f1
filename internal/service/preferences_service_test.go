package service

import (
	"testing"

	"github.com/pricewatch-dev/pricewatch/internal/models"
)

func TestUpdatePreferencesValidation(t *testing.T) {
	valid := func() *models.NotificationPreferences {
		prefs := models.DefaultPreferences("user-1")
		prefs.QuietHours = models.QuietHours{Enabled: true, Start: "22:00", End: "08:00", Timezone: "UTC"}
		return prefs
	}

	tests := []struct {
		name    string
		mutate  func(*models.NotificationPreferences)
		wantErr bool
	}{
		{
			name:   "valid preferences",
			mutate: func(p *models.NotificationPreferences) {},
		},
		{
			name: "unknown channel",
			mutate: func(p *models.NotificationPreferences) {
				p.EnabledChannels = []models.Channel{"pigeon"}
			},
			wantErr: true,
		},
		{
			name: "zero hourly limit",
			mutate: func(p *models.NotificationPreferences) {
				p.MaxNotificationsPerHour = 0
			},
			wantErr: true,
		},
		{
			name: "negative daily limit",
			mutate: func(p *models.NotificationPreferences) {
				p.MaxNotificationsPerDay = -1
			},
			wantErr: true,
		},
		{
			name: "malformed quiet hours start",
			mutate: func(p *models.NotificationPreferences) {
				p.QuietHours.Start = "25:00"
			},
			wantErr: true,
		},
		{
			name: "unknown quiet hours timezone",
			mutate: func(p *models.NotificationPreferences) {
				p.QuietHours.Timezone = "Mars/Olympus"
			},
			wantErr: true,
		},
		{
			name: "disabled quiet hours skip validation",
			mutate: func(p *models.NotificationPreferences) {
				p.QuietHours = models.QuietHours{Enabled: false, Start: "nonsense"}
			},
		},
		{
			name: "unknown type override",
			mutate: func(p *models.NotificationPreferences) {
				p.TypeOverrides = map[models.AlertType]models.TypePreference{
					"flash_sale": {Enabled: true},
				}
			},
			wantErr: true,
		},
		{
			name: "malformed per-type quiet hours",
			mutate: func(p *models.NotificationPreferences) {
				p.TypeOverrides = map[models.AlertType]models.TypePreference{
					models.AlertTypePriceDrop: {
						Enabled:    true,
						QuietHours: &models.QuietHours{Enabled: true, Start: "22:00", End: "99:99", Timezone: "UTC"},
					},
				}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakePrefsRepo()
			svc := NewPreferencesService(repo)

			prefs := valid()
			tt.mutate(prefs)

			err := svc.UpdatePreferences(prefs)
			if (err != nil) != tt.wantErr {
				t.Fatalf("UpdatePreferences() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !models.IsValidationError(err) {
					t.Errorf("error %v is not a validation error", err)
				}
				if stored, _ := repo.GetPreferences("user-1"); stored != nil {
					t.Error("invalid preferences were persisted")
				}
			}
		})
	}
}

func TestGetPreferencesFallsBackToDefaults(t *testing.T) {
	repo := newFakePrefsRepo()
	svc := NewPreferencesService(repo)

	prefs, err := svc.GetPreferences("user-1")
	if err != nil {
		t.Fatalf("GetPreferences() error = %v", err)
	}
	if prefs == nil || prefs.UserID != "user-1" {
		t.Fatal("defaults not returned for unknown user")
	}
	if prefs.MaxNotificationsPerDay != 50 {
		t.Errorf("MaxNotificationsPerDay = %d, want the default 50", prefs.MaxNotificationsPerDay)
	}

	saved := models.DefaultPreferences("user-2")
	saved.MaxNotificationsPerDay = 5
	repo.SavePreferences(saved)

	prefs, err = svc.GetPreferences("user-2")
	if err != nil {
		t.Fatalf("GetPreferences() error = %v", err)
	}
	if prefs.MaxNotificationsPerDay != 5 {
		t.Errorf("MaxNotificationsPerDay = %d, want the stored value", prefs.MaxNotificationsPerDay)
	}
}
