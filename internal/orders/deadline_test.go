package orders

import (
	"testing"
	"time"

	"github.com/agribazaar/agribazaar-backend/pkg/db/models"
	"github.com/agribazaar/agribazaar-backend/pkg/enums"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kolkata(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	return loc
}

func TestConfirmationDeadline(t *testing.T) {
	loc := kolkata(t)
	harvest := time.Date(2026, 3, 20, 0, 0, 0, 0, loc)

	tests := []struct {
		name     string
		order    models.Order
		expected time.Time
	}{
		{
			name: "morning order expires same day at five pm",
			order: models.Order{
				CreatedAt: time.Date(2026, 3, 10, 8, 30, 0, 0, loc),
			},
			expected: time.Date(2026, 3, 10, 17, 0, 0, 0, loc),
		},
		{
			name: "just before noon still counts as morning",
			order: models.Order{
				CreatedAt: time.Date(2026, 3, 10, 11, 59, 59, 0, loc),
			},
			expected: time.Date(2026, 3, 10, 17, 0, 0, 0, loc),
		},
		{
			name: "afternoon order expires next morning at five am",
			order: models.Order{
				CreatedAt: time.Date(2026, 3, 10, 12, 0, 0, 0, loc),
			},
			expected: time.Date(2026, 3, 11, 5, 0, 0, 0, loc),
		},
		{
			name: "late evening order expires next morning",
			order: models.Order{
				CreatedAt: time.Date(2026, 3, 10, 22, 45, 0, 0, loc),
			},
			expected: time.Date(2026, 3, 11, 5, 0, 0, 0, loc),
		},
		{
			name: "prelisted order gets a flat day",
			order: models.Order{
				IsPrelisted: true,
				CreatedAt:   time.Date(2026, 3, 10, 9, 15, 0, 0, loc),
			},
			expected: time.Date(2026, 3, 11, 9, 15, 0, 0, loc),
		},
		{
			name: "prelisted order with harvest date expires harvest evening",
			order: models.Order{
				IsPrelisted: true,
				CreatedAt:   time.Date(2026, 3, 10, 9, 15, 0, 0, loc),
				HarvestDate: &harvest,
			},
			expected: time.Date(2026, 3, 20, 17, 0, 0, 0, loc),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ConfirmationDeadline(&tc.order, loc)
			assert.True(t, got.Equal(tc.expected), "expected %s got %s", tc.expected, got)
		})
	}
}

func TestInQuietWindow(t *testing.T) {
	loc := kolkata(t)
	at := func(hour int) time.Time {
		return time.Date(2026, 3, 10, hour, 30, 0, 0, loc)
	}

	tests := []struct {
		name       string
		t          time.Time
		start, end int
		expected   bool
	}{
		{"inside wrapped window late night", at(23), 23, 5, true},
		{"inside wrapped window early morning", at(2), 23, 5, true},
		{"just before wrapped window", at(22), 23, 5, false},
		{"at wrapped window end", at(5), 23, 5, false},
		{"inside plain window", at(2), 1, 4, true},
		{"outside plain window", at(6), 1, 4, false},
		{"zero-width window is disabled", at(3), 3, 3, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, InQuietWindow(tc.t, tc.start, tc.end, loc))
		})
	}
}

func TestDeliveryFeePaise(t *testing.T) {
	percent := decimal.NewFromInt(5)

	tests := []struct {
		name     string
		subtotal int64
		kind     enums.DeliveryKind
		minPaise int64
		expected int64
	}{
		{"plain percentage", 10000, enums.DeliveryKindDelivery, 0, 500},
		{"rounds fractional paise up", 10001, enums.DeliveryKindDelivery, 0, 501},
		{"minimum fee floor applies", 1000, enums.DeliveryKindDelivery, 2000, 2000},
		{"self pickup is free", 10000, enums.DeliveryKindSelfPickup, 2000, 0},
		{"zero subtotal hits the floor", 0, enums.DeliveryKindDelivery, 1500, 1500},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := DeliveryFeePaise(tc.subtotal, tc.kind, percent, tc.minPaise)
			assert.Equal(t, tc.expected, got)
		})
	}
}
