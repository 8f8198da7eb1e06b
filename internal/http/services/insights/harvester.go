package insights

import (
	"context"
	"fmt"
	"time"

	"github.com/dropDatabas3/brandkit/internal/domain/social"
	dto "github.com/dropDatabas3/brandkit/internal/http/dto/insights"
	"github.com/dropDatabas3/brandkit/internal/metrics"
	"github.com/dropDatabas3/brandkit/internal/observability/logger"
)

// Notifier recibe el reporte de una corrida con fallas (ej: mail a operaciones).
type Notifier interface {
	NotifyHarvest(ctx context.Context, report dto.HarvestReport) error
}

// Harvester guarda el snapshot diario de todas las cuentas de Instagram
// conectadas, sin importar el cliente.
type Harvester struct {
	engine   *Engine
	notifier Notifier
}

// NewHarvester crea el harvester. notifier puede ser nil.
func NewHarvester(engine *Engine, notifier Notifier) *Harvester {
	return &Harvester{engine: engine, notifier: notifier}
}

// Run procesa todas las cuentas. Las fallas por cuenta quedan en el reporte;
// solo retorna error si no se pudo listar las cuentas o falta la clave.
func (h *Harvester) Run(ctx context.Context) (*dto.HarvestReport, error) {
	log := logger.From(ctx).With(logger.Component("insights.harvest"), logger.Op("Run"))
	start := time.Now()

	if h.engine.deps.Cipher == nil {
		return nil, ErrCipherMissing
	}
	accounts, err := h.engine.deps.Accounts.ListConnected(ctx, "", social.PlatformInstagram)
	if err != nil {
		return nil, fmt.Errorf("list connected accounts: %w", err)
	}

	date := social.SnapshotDate(h.engine.deps.Now())
	reasons := make([]string, len(accounts))
	h.engine.collectAll(ctx, accounts, func(i int, c collected) {
		if !c.ok() {
			reasons[i] = c.reason
			return
		}
		if err := h.engine.deps.Snapshots.Upsert(ctx, c.snapshot(date)); err != nil {
			log.Error("snapshot upsert failed", logger.AccountID(c.account.ID), logger.Err(err))
			reasons[i] = ReasonSnapshotSaveFailed
		}
	})

	report := &dto.HarvestReport{
		OK:        true,
		Date:      date,
		Processed: len(accounts),
		Failures:  []dto.HarvestFailure{},
	}
	for i, reason := range reasons {
		if reason == "" {
			report.Saved++
			metrics.RecordHarvestAccount("saved")
			continue
		}
		report.Failures = append(report.Failures, dto.HarvestFailure{AccountID: accounts[i].ID, Reason: reason})
		metrics.RecordHarvestAccount(reason)
	}
	report.Failed = len(report.Failures)

	finished := time.Now()
	metrics.RecordHarvestRun(finished.Sub(start), finished)
	log.Info("harvest finished",
		logger.Int("processed", report.Processed),
		logger.Int("saved", report.Saved),
		logger.Int("failed", report.Failed),
		logger.Duration(finished.Sub(start)),
	)

	if report.Failed > 0 && h.notifier != nil {
		if err := h.notifier.NotifyHarvest(ctx, *report); err != nil {
			log.Warn("harvest report notification failed", logger.Err(err))
		}
	}
	return report, nil
}
