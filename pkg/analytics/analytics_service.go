package analytics

import (
	"context"
	"fmt"

	"github.com/moneta-finance/moneta/internal/utils"
	"github.com/moneta-finance/moneta/pkg/api"
	"github.com/moneta-finance/moneta/pkg/budget_alert"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type Service interface {
	Load(ctx context.Context, year, month int) (Report, error)
}

type ServiceImpl struct {
	client api.Client
	clock  utils.Clock
}

func NewService(client api.Client, clock utils.Clock) *ServiceImpl {
	return &ServiceImpl{
		client: client,
		clock:  clock,
	}
}

// Load fetches the summary and the category breakdown of a month together with
// every configured budget, concurrently, and derives the budget alerts from
// them. A zero year or month selects the current month.
func (s *ServiceImpl) Load(ctx context.Context, year, month int) (Report, error) {
	if year == 0 || month == 0 {
		now := s.clock.Now()
		year, month = now.Year(), int(now.Month())
	}
	if month < 1 || month > 12 {
		return Report{}, fmt.Errorf("%w: month must be between 1 and 12, got %d", api.ErrValidation, month)
	}

	report := Report{Year: year, Month: month}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary, err := s.client.GetMonthlySummary(gctx, year, month)
		if err != nil {
			return err
		}
		report.Summary = summary
		return nil
	})
	g.Go(func() error {
		breakdown, err := s.client.GetCategoryBreakdown(gctx, year, month)
		if err != nil {
			return err
		}
		report.Breakdown = breakdown
		return nil
	})
	g.Go(func() error {
		budgets, err := s.client.ListBudgets(gctx)
		if err != nil {
			return err
		}
		report.Budgets = budgets
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Warnf("Failed to load analytics for %d-%02d: %v", year, month, err)
		return Report{}, err
	}

	report.Alerts = budget_alert.Evaluate(report.Breakdown, report.Budgets)
	log.Debugf("Analytics for %d-%02d: %d categories, %d alerts", year, month, len(report.Breakdown), len(report.Alerts))
	return report, nil
}
