package cron

import (
	"context"
	"fmt"

	"github.com/hirfahq/hirfa-backend/internal/escrow"
	"github.com/hirfahq/hirfa-backend/pkg/logger"
	"github.com/hirfahq/hirfa-backend/pkg/metrics"
)

const escrowReleaseJobName = "escrow-release"

// EscrowReleaseJobParams configure the matured-hold release sweep.
type EscrowReleaseJobParams struct {
	Logger  *logger.Logger
	Escrow  escrowReleaser
	Metrics *metrics.CronJobMetrics
}

type escrowReleaser interface {
	ReleaseDue(ctx context.Context) (*escrow.ReleaseReport, error)
}

// NewEscrowReleaseJob builds the cron job that promotes matured escrow holds
// to available balance.
func NewEscrowReleaseJob(params EscrowReleaseJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Escrow == nil {
		return nil, fmt.Errorf("escrow service required")
	}
	return &escrowReleaseJob{
		logg:    params.Logger,
		escrow:  params.Escrow,
		metrics: params.Metrics,
	}, nil
}

type escrowReleaseJob struct {
	logg    *logger.Logger
	escrow  escrowReleaser
	metrics *metrics.CronJobMetrics
}

func (j *escrowReleaseJob) Name() string { return escrowReleaseJobName }

// Run releases every matured hold. A partial failure still reports the holds
// that did release; the error carries the ones that did not so the run is
// marked failed and the next cycle retries them.
func (j *escrowReleaseJob) Run(ctx context.Context) error {
	report, err := j.escrow.ReleaseDue(ctx)
	if report != nil {
		j.metrics.AddItems(escrowReleaseJobName, report.Released)
		logCtx := j.logg.WithFields(ctx, map[string]any{
			"scanned":  report.Scanned,
			"released": report.Released,
			"skipped":  report.Skipped,
		})
		j.logg.Info(logCtx, "escrow release sweep complete")
	}
	if err != nil {
		return fmt.Errorf("escrow release: %w", err)
	}
	return nil
}
