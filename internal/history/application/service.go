package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	checkout "github.com/ambatushop/pos-terminal/internal/checkout/domain"
)

type Filter string

const (
	FilterAll   Filter = "all"
	FilterToday Filter = "today"
	FilterWeek  Filter = "week"
	FilterMonth Filter = "month"
)

func (f Filter) Valid() bool {
	switch f {
	case FilterAll, FilterToday, FilterWeek, FilterMonth:
		return true
	}
	return false
}

// TransactionLister fetches transactions in [start, end). Zero times mean
// an unbounded range.
type TransactionLister interface {
	ListTransactions(ctx context.Context, start, end time.Time) ([]checkout.Transaction, error)
}

// Summary is one loaded history view. Display holds the most recent entries
// up to the display limit; Count and TotalSales cover the whole filtered
// set. TotalSales only counts settled (PAID) transactions.
type Summary struct {
	Filter     Filter                 `json:"filter"`
	Display    []checkout.Transaction `json:"display"`
	Count      int                    `json:"count"`
	TotalSales int64                  `json:"totalSales"`
}

type Service struct {
	log          *slog.Logger
	lister       TransactionLister
	displayLimit int
	now          func() time.Time
}

func NewService(log *slog.Logger, lister TransactionLister, displayLimit int) *Service {
	if displayLimit <= 0 {
		displayLimit = 10
	}
	return &Service{
		log:          log,
		lister:       lister,
		displayLimit: displayLimit,
		now:          time.Now,
	}
}

func (s *Service) Load(ctx context.Context, f Filter) (Summary, error) {
	if !f.Valid() {
		return Summary{}, fmt.Errorf("unknown history filter %q", f)
	}

	start, end := rangeFor(s.now(), f)
	transactions, err := s.lister.ListTransactions(ctx, start, end)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{Filter: f, Count: len(transactions)}
	for _, tx := range transactions {
		if tx.Status == checkout.PaymentPaid {
			summary.TotalSales += tx.Total
		}
	}

	sort.SliceStable(transactions, func(i, j int) bool {
		return transactions[i].Timestamp.After(transactions[j].Timestamp)
	})
	if len(transactions) > s.displayLimit {
		transactions = transactions[:s.displayLimit]
	}
	summary.Display = transactions

	s.log.Debug("history loaded", "filter", f, "count", summary.Count, "total_sales", summary.TotalSales)
	return summary, nil
}

// rangeFor maps a filter to [start, end). Weeks run Monday through Sunday;
// months cover the current calendar month. FilterAll returns zero times.
func rangeFor(now time.Time, f Filter) (time.Time, time.Time) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch f {
	case FilterToday:
		return midnight, midnight.AddDate(0, 0, 1)
	case FilterWeek:
		sinceMonday := (int(now.Weekday()) + 6) % 7
		start := midnight.AddDate(0, 0, -sinceMonday)
		return start, start.AddDate(0, 0, 7)
	case FilterMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return start, start.AddDate(0, 1, 0)
	default:
		return time.Time{}, time.Time{}
	}
}
