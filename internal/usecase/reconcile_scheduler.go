package usecase

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/grid-fantasy/internal/platform/logging"
)

type Reconciler interface {
	ReconcileAll(ctx context.Context) (ReconcileReport, error)
}

type ReconcileSchedulerConfig struct {
	Interval time.Duration
	OnBoot   bool
}

// ReconcileScheduler runs ReconcileAll at boot and then on a fixed
// interval until its context ends.
type ReconcileScheduler struct {
	reconciler Reconciler
	cfg        ReconcileSchedulerConfig
	clock      clockwork.Clock
	logger     *logging.Logger
}

func NewReconcileScheduler(reconciler Reconciler, cfg ReconcileSchedulerConfig, clock clockwork.Clock, logger *logging.Logger) *ReconcileScheduler {
	if logger == nil {
		logger = logging.Default()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &ReconcileScheduler{
		reconciler: reconciler,
		cfg:        cfg,
		clock:      clock,
		logger:     logger,
	}
}

// Run blocks until ctx is done. With a zero interval only the boot pass
// runs.
func (s *ReconcileScheduler) Run(ctx context.Context) {
	if s.cfg.OnBoot {
		s.runOnce(ctx, "boot")
	}
	if s.cfg.Interval <= 0 {
		return
	}

	ticker := s.clock.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.runOnce(ctx, "interval")
		}
	}
}

func (s *ReconcileScheduler) runOnce(ctx context.Context, trigger string) {
	report, err := s.reconciler.ReconcileAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "scheduled reconcile failed", "trigger", trigger, "error", err)
		return
	}
	s.logger.InfoContext(ctx, "scheduled reconcile finished",
		"trigger", trigger,
		"constructors_changed", report.Constructors.Changed,
		"fantasy_teams_changed", report.FantasyTeams.Changed,
	)
}
