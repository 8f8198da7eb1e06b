package insights

import (
	"context"
	"time"

	dto "github.com/dropDatabas3/brandkit/internal/http/dto/insights"
	"github.com/dropDatabas3/brandkit/internal/observability/logger"
)

// Runner es lo que el scheduler dispara en cada tick.
type Runner interface {
	Run(ctx context.Context) (*dto.HarvestReport, error)
}

// Scheduler corre el harvest en proceso cada Interval. Es opcional: en
// producción normalmente lo dispara un cron externo contra el endpoint.
type Scheduler struct {
	runner   Runner
	interval time.Duration
}

func NewScheduler(runner Runner, interval time.Duration) *Scheduler {
	return &Scheduler{runner: runner, interval: interval}
}

// Start bloquea hasta que ctx se cancela. Con interval <= 0 no hace nada.
func (s *Scheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	log := logger.From(ctx).With(logger.Component("insights.scheduler"))
	log.Info("harvest scheduler started", logger.Duration(s.interval))

	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("harvest scheduler stopped")
			return
		case <-t.C:
			if _, err := s.runner.Run(ctx); err != nil {
				log.Error("scheduled harvest failed", logger.Err(err))
			}
		}
	}
}
