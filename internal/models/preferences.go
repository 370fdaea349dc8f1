package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// QuietHours is a time-of-day window in which non-urgent alerts are held
// back. Start and End are "HH:MM" in the given IANA timezone; the window
// wraps past midnight whenever Start > End.
type QuietHours struct {
	Enabled  bool   `json:"enabled" bson:"enabled"`
	Start    string `json:"start" bson:"start"`
	End      string `json:"end" bson:"end"`
	Timezone string `json:"timezone" bson:"timezone"`
}

// TypePreference overrides delivery behavior for a single alert type.
type TypePreference struct {
	Enabled    bool           `json:"enabled" bson:"enabled"`
	Priority   *AlertPriority `json:"priority,omitempty" bson:"priority,omitempty"`
	QuietHours *QuietHours    `json:"quiet_hours,omitempty" bson:"quiet_hours,omitempty"`
}

// NotificationPreferences is owned by the user settings surface and
// read-only to the delivery engine.
type NotificationPreferences struct {
	ID                      primitive.ObjectID           `json:"_id,omitempty" bson:"_id,omitempty"`
	UserID                  string                       `json:"user_id" bson:"user_id"`
	EnabledChannels         []Channel                    `json:"enabled_channels" bson:"enabled_channels"`
	TypeOverrides           map[AlertType]TypePreference `json:"type_overrides,omitempty" bson:"type_overrides,omitempty"`
	QuietHours              QuietHours                   `json:"quiet_hours" bson:"quiet_hours"`
	MaxNotificationsPerDay  int                          `json:"max_notifications_per_day" bson:"max_notifications_per_day"`
	MaxNotificationsPerHour int                          `json:"max_notifications_per_hour" bson:"max_notifications_per_hour"`
	UpdatedAt               time.Time                    `json:"updated_at" bson:"updated_at"`
}

// DefaultPreferences is what a user gets before ever touching settings.
func DefaultPreferences(userID string) *NotificationPreferences {
	return &NotificationPreferences{
		UserID:                  userID,
		EnabledChannels:         []Channel{ChannelPush, ChannelEmail},
		QuietHours:              QuietHours{Enabled: false, Start: "22:00", End: "08:00", Timezone: "Asia/Tokyo"},
		MaxNotificationsPerDay:  50,
		MaxNotificationsPerHour: 10,
	}
}

// ChannelEnabled reports whether the user has the channel switched on.
func (p *NotificationPreferences) ChannelEnabled(c Channel) bool {
	for _, ch := range p.EnabledChannels {
		if ch == c {
			return true
		}
	}
	return false
}

// TypeEnabled reports whether alerts of the given type may be delivered at
// all. Types without an override are enabled.
func (p *NotificationPreferences) TypeEnabled(t AlertType) bool {
	override, ok := p.TypeOverrides[t]
	if !ok {
		return true
	}
	return override.Enabled
}

// PriorityOverride returns the user's priority override for the type, or
// nil when none is set.
func (p *NotificationPreferences) PriorityOverride(t AlertType) *AlertPriority {
	override, ok := p.TypeOverrides[t]
	if !ok {
		return nil
	}
	return override.Priority
}

// EffectiveQuietHours resolves the quiet-hours window for the type: the
// type-level override wins over the global window.
func (p *NotificationPreferences) EffectiveQuietHours(t AlertType) QuietHours {
	if override, ok := p.TypeOverrides[t]; ok && override.QuietHours != nil {
		return *override.QuietHours
	}
	return p.QuietHours
}
