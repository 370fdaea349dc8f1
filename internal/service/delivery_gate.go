package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/pricewatch-dev/pricewatch/internal/models"
)

// DeliveryGate decides whether an alert may be dispatched right now. It
// assumes preferences were validated when written; the settings surface
// rejects malformed quiet-hours config before it ever reaches the gate.
type DeliveryGate struct {
	now func() time.Time
}

func NewDeliveryGate(now func() time.Time) *DeliveryGate {
	if now == nil {
		now = time.Now
	}
	return &DeliveryGate{now: now}
}

// CanSendAlert evaluates the delivery rules in order and stops at the
// first failure: alert must be pending, the alert type must not be
// disabled by a per-type override, quiet hours must not be in effect,
// the hourly counter must be under the limit, and at least one of the
// alert's channels must be enabled for the user.
func (g *DeliveryGate) CanSendAlert(alert *models.Alert, prefs *models.NotificationPreferences, currentHourSentCount int) bool {
	if alert.Status != models.AlertStatusPending {
		return false
	}
	if !prefs.TypeEnabled(alert.Type) {
		return false
	}
	// Urgent alerts cut through quiet hours; the window only holds back
	// non-urgent ones.
	if alert.Priority != models.PriorityUrgent && g.InQuietHours(prefs.EffectiveQuietHours(alert.Type)) {
		return false
	}
	if currentHourSentCount >= prefs.MaxNotificationsPerHour {
		return false
	}
	return g.hasEnabledChannel(alert, prefs)
}

// InQuietHours reports whether the current local time at the window's
// timezone falls inside [start, end). The window wraps past midnight
// whenever start > end.
func (g *DeliveryGate) InQuietHours(qh models.QuietHours) bool {
	if !qh.Enabled {
		return false
	}

	start, err := parseClock(qh.Start)
	if err != nil {
		return false
	}
	end, err := parseClock(qh.End)
	if err != nil {
		return false
	}
	if start == end {
		return false
	}

	loc, err := time.LoadLocation(qh.Timezone)
	if err != nil {
		loc = time.UTC
	}
	local := g.now().In(loc)
	cur := local.Hour()*60 + local.Minute()

	if start < end {
		return cur >= start && cur < end
	}
	return cur >= start || cur < end
}

func (g *DeliveryGate) hasEnabledChannel(alert *models.Alert, prefs *models.NotificationPreferences) bool {
	for _, ch := range alert.Channels {
		if prefs.ChannelEnabled(ch) {
			return true
		}
	}
	return false
}

// parseClock converts "HH:MM" to minutes since midnight.
func parseClock(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, &models.ValidationError{Field: "quiet_hours", Reason: "expected HH:MM, got " + s}
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, &models.ValidationError{Field: "quiet_hours", Reason: "invalid hour in " + s}
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, &models.ValidationError{Field: "quiet_hours", Reason: "invalid minute in " + s}
	}
	return hour*60 + minute, nil
}
