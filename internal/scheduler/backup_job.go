package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"coinscan/internal/reliability"
)

// backupTimeout bounds one backup upload.
const backupTimeout = 15 * time.Minute

// BackupJob runs the database backup on a cron schedule.
type BackupJob struct {
	backup *reliability.BackupService
	log    zerolog.Logger
}

// NewBackupJob creates a backup job.
func NewBackupJob(backup *reliability.BackupService, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		backup: backup,
		log:    log.With().Str("job", "backup").Logger(),
	}
}

// Run creates and uploads one backup.
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), backupTimeout)
	defer cancel()

	return j.backup.CreateAndUploadBackup(ctx)
}

// Name returns the job name.
func (j *BackupJob) Name() string {
	return "database_backup"
}
