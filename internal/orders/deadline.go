package orders

import (
	"time"

	"github.com/agribazaar/agribazaar-backend/pkg/db/models"
)

const (
	morningCutoffHour    = 12
	sameDayDeadlineHour  = 17
	nextDayDeadlineHour  = 5
	prelistedConfirmSpan = 24 * time.Hour
)

// ConfirmationDeadline computes when a pending order expires if the seller has
// not confirmed it. Regular orders placed before noon expire the same day at
// 17:00 local time, later ones the next morning at 05:00. Prelisted orders get
// a flat 24 hours, stretched to 17:00 on the harvest day once the seller has
// confirmed a harvest date.
func ConfirmationDeadline(order *models.Order, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	created := order.CreatedAt.In(loc)

	if order.IsPrelisted {
		if order.HarvestDate != nil {
			harvest := order.HarvestDate.In(loc)
			return time.Date(harvest.Year(), harvest.Month(), harvest.Day(),
				sameDayDeadlineHour, 0, 0, 0, loc)
		}
		return created.Add(prelistedConfirmSpan)
	}

	if created.Hour() < morningCutoffHour {
		return time.Date(created.Year(), created.Month(), created.Day(),
			sameDayDeadlineHour, 0, 0, 0, loc)
	}
	next := created.AddDate(0, 0, 1)
	return time.Date(next.Year(), next.Month(), next.Day(),
		nextDayDeadlineHour, 0, 0, 0, loc)
}

// InQuietWindow reports whether t falls inside the nightly window during which
// auto-cancellation is suppressed. A start hour after the end hour wraps past
// midnight.
func InQuietWindow(t time.Time, startHour, endHour int, loc *time.Location) bool {
	if loc == nil {
		loc = time.Local
	}
	hour := t.In(loc).Hour()
	if startHour == endHour {
		return false
	}
	if startHour < endHour {
		return hour >= startHour && hour < endHour
	}
	return hour >= startHour || hour < endHour
}

// autoCancelDue reports whether a pending order has missed its confirmation
// deadline and cancellation is currently allowed.
func (s *service) autoCancelDue(order *models.Order, now time.Time) bool {
	deadline := ConfirmationDeadline(order, s.cfg.Location)
	if now.Before(deadline) {
		return false
	}
	return !InQuietWindow(now, s.cfg.QuietWindowStartHour, s.cfg.QuietWindowEndHour, s.cfg.Location)
}
