package service

import (
	"context"
	"testing"
	"time"

	"github.com/Lixing-Zhang/foodstand-backend/internal/models"
	"github.com/Lixing-Zhang/foodstand-backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in      string
		want    Period
		wantErr bool
	}{
		{"", PeriodDay, false},
		{"today", PeriodDay, false},
		{"day", PeriodDay, false},
		{"week", PeriodWeek, false},
		{"month", PeriodMonth, false},
		{"year", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePeriod(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, models.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReportService_Summary(t *testing.T) {
	f := newFixture(t, repository.NewInMemoryStore())
	ctx := context.Background()

	// Sunday 2024-03-03, previous week
	f.clock.set(time.Date(2024, 3, 3, 10, 0, 0, 0, utcMinus6))
	_, err := f.orders.PlaceMenuOrder(ctx, burgers(1))
	require.NoError(t, err)

	// Saturday 2024-03-09
	f.clock.set(time.Date(2024, 3, 9, 20, 0, 0, 0, utcMinus6))
	_, err = f.orders.PlaceMenuOrder(ctx, models.MenuOrderRequest{Items: []models.MenuOrderItem{{MenuItemID: sodaID, Quantity: 4}}})
	require.NoError(t, err)

	// Sunday 2024-03-10, today
	f.clock.set(time.Date(2024, 3, 10, 9, 0, 0, 0, utcMinus6))
	paid, err := f.orders.PlaceMenuOrder(ctx, burgers(2))
	require.NoError(t, err)
	_, err = f.orders.ChangeOrderStatus(ctx, paid.ID, "paid")
	require.NoError(t, err)

	_, err = f.orders.PlaceMenuOrder(ctx, models.MenuOrderRequest{Items: []models.MenuOrderItem{{MenuItemID: sodaID, Quantity: 1}}})
	require.NoError(t, err)

	cancelled, err := f.orders.PlaceMenuOrder(ctx, burgers(3))
	require.NoError(t, err)
	_, err = f.orders.ChangeOrderStatus(ctx, cancelled.ID, "cancelled")
	require.NoError(t, err)

	day, err := f.reports.Summary(ctx, PeriodDay)
	require.NoError(t, err)
	assert.Equal(t, 3, day.OrderCount)
	assert.Equal(t, 1, day.CancelledCount)
	assert.True(t, day.Revenue.Equal(dec("185")), "160 + 25, cancelled excluded: %s", day.Revenue)
	assert.True(t, day.PaidRevenue.Equal(dec("160")))
	require.Len(t, day.TopItems, 2)
	assert.Equal(t, "Burger", day.TopItems[0].Name)
	assert.True(t, day.TopItems[0].Quantity.Equal(dec("2")))
	assert.True(t, day.From.Equal(time.Date(2024, 3, 10, 6, 0, 0, 0, time.UTC)))

	week, err := f.reports.Summary(ctx, PeriodWeek)
	require.NoError(t, err)
	assert.Equal(t, 4, week.OrderCount)
	assert.True(t, week.Revenue.Equal(dec("285")))
	assert.Equal(t, "Soda", week.TopItems[1].Name)
	assert.True(t, week.TopItems[1].Quantity.Equal(dec("5")))

	month, err := f.reports.Summary(ctx, PeriodMonth)
	require.NoError(t, err)
	assert.Equal(t, 5, month.OrderCount)
	assert.True(t, month.Revenue.Equal(dec("365")))

	_, err = f.reports.Summary(ctx, Period("year"))
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestReportService_Clock(t *testing.T) {
	f := newFixture(t, repository.NewInMemoryStore())
	f.clock.set(time.Date(2024, 3, 10, 21, 30, 0, 0, utcMinus6))

	info := f.reports.Clock()
	assert.Equal(t, "UTC-6", info.Timezone)
	assert.Equal(t, 0, info.StartHour)
	assert.Equal(t, "2024-03-10", info.Date)
	assert.Equal(t, 2, info.NextReset.Hours)
	assert.Equal(t, 30, info.NextReset.Minutes)
	assert.True(t, info.NextReset.NextResetUTC.Equal(time.Date(2024, 3, 11, 6, 0, 0, 0, time.UTC)))
}
