package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/giftway/internal/clock"
	invoicedomain "github.com/smallbiznis/giftway/internal/invoice/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Config controls the recurring invoice worker.
type Config struct {
	Interval  time.Duration
	BatchSize int
}

// Scheduler walks active companies and rolls elapsed billing periods into
// invoices, calling the same rollup operation the API exposes. Claim safety
// lives in the rollup itself (conditional activation claim plus the unique
// invoice number), so multiple instances may run this loop concurrently.
type Scheduler struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	invoices invoicedomain.Service
	cfg      Config

	stop chan struct{}
	done chan struct{}
}

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	Invoices invoicedomain.Service
}

func New(p Params) *Scheduler {
	return &Scheduler{
		db:       p.DB,
		log:      p.Log.Named("scheduler"),
		clock:    p.Clock,
		invoices: p.Invoices,
		cfg: Config{
			Interval:  time.Hour,
			BatchSize: 50,
		},
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Start launches the worker loop.
func (s *Scheduler) Start() {
	go s.run()
}

// Stop signals the loop and waits for the in-flight pass to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	close(s.stop)
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("invoice pass failed", zap.Error(err))
		}
		cancel()

		select {
		case <-s.stop:
			return
		case <-ticker.C:
		}
	}
}

// RunOnce performs a single pass over due companies.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	companies, err := s.fetchCompaniesForWork(ctx, s.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, company := range companies {
		if err := s.processCompany(ctx, company); err != nil {
			s.log.Warn("recurring invoice failed",
				zap.String("company_id", company.ID.String()),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (s *Scheduler) processCompany(ctx context.Context, company workCompany) error {
	now := s.clock.Now()

	periodStart, ok, err := s.nextPeriodStart(ctx, company)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	periodEnd := company.BillingFrequency.PeriodEnd(periodStart)
	if periodEnd.After(now) {
		return nil
	}

	ids, err := s.pendingActivationIDs(ctx, company, periodEnd)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	invoice, err := s.invoices.GenerateInvoice(ctx, invoicedomain.GenerateRequest{
		CompanyID:     company.ID.String(),
		PeriodStart:   periodStart,
		PeriodEnd:     periodEnd,
		ActivationIDs: ids,
	})
	if err != nil {
		// Another instance claimed the same work first.
		if errors.Is(err, invoicedomain.ErrNoPendingActivation) {
			return nil
		}
		return err
	}

	s.log.Info("recurring invoice generated",
		zap.String("company_id", company.ID.String()),
		zap.String("number", invoice.Number),
		zap.Time("period_start", periodStart),
		zap.Time("period_end", periodEnd),
	)
	return nil
}
