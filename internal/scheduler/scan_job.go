package scheduler

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"coinscan/internal/scan"
)

// ScanJob triggers a scan of a configured type on a cron schedule. A manual
// scan already holding the single-flight slot makes the tick a skip, not a
// failure.
type ScanJob struct {
	orchestrator *scan.Orchestrator
	scanType     string
	log          zerolog.Logger
}

// NewScanJob creates a scheduled scan job.
func NewScanJob(orchestrator *scan.Orchestrator, scanType string, log zerolog.Logger) *ScanJob {
	return &ScanJob{
		orchestrator: orchestrator,
		scanType:     scanType,
		log:          log.With().Str("job", "scheduled_scan").Logger(),
	}
}

// Run executes one scheduled scan.
func (j *ScanJob) Run() error {
	result, err := j.orchestrator.Run(context.Background(), scan.Request{
		ScanType: j.scanType,
		UserID:   "scheduler",
	})
	if err != nil {
		if errors.Is(err, scan.ErrScanInProgress) {
			j.log.Info().Msg("Scan already running, skipping scheduled tick")
			return nil
		}
		return err
	}

	j.log.Info().
		Str("run_id", result.RunID).
		Str("status", result.Status).
		Int("recommendations", len(result.Recommendations)).
		Msg("Scheduled scan finished")
	return nil
}

// Name returns the job name.
func (j *ScanJob) Name() string {
	return "scheduled_scan"
}
