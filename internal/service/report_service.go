package service

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/Lixing-Zhang/foodstand-backend/internal/models"
	"github.com/Lixing-Zhang/foodstand-backend/internal/opday"
	"github.com/Lixing-Zhang/foodstand-backend/internal/repository"
	"github.com/shopspring/decimal"
)

// Period selects the operating window a summary covers.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

const topItemsLimit = 10

// ParsePeriod accepts day, week or month. Empty means day.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case "", "today":
		return PeriodDay, nil
	case PeriodDay, PeriodWeek, PeriodMonth:
		return p, nil
	}
	return "", models.NewValidationError("period", "must be one of day, week, month")
}

// ItemSales aggregates what one product sold in a period.
type ItemSales struct {
	ID       int64            `json:"id"`
	Kind     models.OrderKind `json:"kind"`
	Name     string           `json:"name"`
	Quantity decimal.Decimal  `json:"quantity"`
	Revenue  decimal.Decimal  `json:"revenue"`
}

// Summary is the sales report of one operating window.
type Summary struct {
	Period         Period          `json:"period"`
	From           time.Time       `json:"from"`
	To             time.Time       `json:"to"`
	OrderCount     int             `json:"orderCount"`
	CancelledCount int             `json:"cancelledCount"`
	Revenue        decimal.Decimal `json:"revenue"`
	PaidRevenue    decimal.Decimal `json:"paidRevenue"`
	TopItems       []ItemSales     `json:"topItems"`
}

// ClockInfo describes the current operating day.
type ClockInfo struct {
	Now       time.Time    `json:"now"`
	Timezone  string       `json:"timezone"`
	StartHour int          `json:"startHour"`
	Date      string       `json:"operatingDayDate"`
	Window    opday.Window `json:"window"`
	NextReset opday.Reset  `json:"nextReset"`
}

// ReportService summarizes orders over operating-day windows.
type ReportService struct {
	store  repository.Store
	clock  *opday.Clock
	logger *slog.Logger
}

func NewReportService(store repository.Store, clock *opday.Clock, logger *slog.Logger) *ReportService {
	return &ReportService{
		store:  store,
		clock:  clock,
		logger: logger.With("component", "report_service"),
	}
}

// Summary reports the orders created in the current day, week or month.
// Cancelled orders are counted but add nothing to revenue or top items.
func (s *ReportService) Summary(ctx context.Context, period Period) (*Summary, error) {
	var window opday.Window
	switch period {
	case PeriodDay:
		window = s.clock.Window()
	case PeriodWeek:
		window = s.clock.Week()
	case PeriodMonth:
		window = s.clock.Month()
	default:
		return nil, models.NewValidationError("period", "must be one of day, week, month")
	}

	orders, err := s.store.GetOrders(ctx)
	if err != nil {
		return nil, persistErr("load orders", err)
	}
	return summarize(period, window, orders), nil
}

// Clock describes the operating day at a single reading of the clock.
func (s *ReportService) Clock() ClockInfo {
	now := s.clock.Now()
	w := s.clock.WindowFor(now)
	return ClockInfo{
		Now:       now,
		Timezone:  s.clock.Location().String(),
		StartHour: s.clock.StartHour(),
		Date:      w.Date(),
		Window:    w,
		NextReset: opday.NextResetAt(now, s.clock.Location(), s.clock.StartHour()),
	}
}

func summarize(period Period, window opday.Window, orders []models.Order) *Summary {
	sum := &Summary{
		Period:      period,
		From:        window.StartUTC,
		To:          window.EndUTC,
		Revenue:     decimal.Zero,
		PaidRevenue: decimal.Zero,
		TopItems:    []ItemSales{},
	}

	type key struct {
		kind models.OrderKind
		id   int64
	}
	sales := map[key]*ItemSales{}

	for _, o := range ordersIn(orders, window) {
		sum.OrderCount++
		if o.Status == models.StatusCancelled {
			sum.CancelledCount++
			continue
		}
		sum.Revenue = sum.Revenue.Add(o.Total)
		if o.Status == models.StatusPaid {
			sum.PaidRevenue = sum.PaidRevenue.Add(o.Total)
		}
		for _, li := range o.LineItems {
			k := key{o.Kind, li.ID}
			it, ok := sales[k]
			if !ok {
				it = &ItemSales{ID: li.ID, Kind: o.Kind, Name: li.Name, Quantity: decimal.Zero, Revenue: decimal.Zero}
				sales[k] = it
			}
			it.Quantity = it.Quantity.Add(li.Quantity)
			it.Revenue = it.Revenue.Add(li.Subtotal)
		}
	}

	for _, it := range sales {
		sum.TopItems = append(sum.TopItems, *it)
	}
	sort.Slice(sum.TopItems, func(i, j int) bool {
		a, b := sum.TopItems[i], sum.TopItems[j]
		if c := a.Revenue.Cmp(b.Revenue); c != 0 {
			return c > 0
		}
		if c := a.Quantity.Cmp(b.Quantity); c != 0 {
			return c > 0
		}
		return a.Name < b.Name
	})
	if len(sum.TopItems) > topItemsLimit {
		sum.TopItems = sum.TopItems[:topItemsLimit]
	}
	return sum
}
