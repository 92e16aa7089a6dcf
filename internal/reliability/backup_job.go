package reliability

import (
	"context"

	"github.com/rs/zerolog"
)

// defaultRetentionDays is how long rotated backups are kept
const defaultRetentionDays = 30

// BackupJob creates and uploads a snapshot backup, then rotates old ones
type BackupJob struct {
	service       *BackupService
	retentionDays int
	log           zerolog.Logger
}

// NewBackupJob creates a new backup job
func NewBackupJob(service *BackupService, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		service:       service,
		retentionDays: defaultRetentionDays,
		log:           log.With().Str("job", "snapshot_backup").Logger(),
	}
}

// Run performs one backup cycle
func (j *BackupJob) Run(ctx context.Context) error {
	if err := j.service.CreateAndUpload(ctx); err != nil {
		j.log.Error().Err(err).Msg("Backup failed")
		return err
	}

	if err := j.service.RotateOldBackups(ctx, j.retentionDays); err != nil {
		j.log.Error().Err(err).Msg("Backup rotation failed")
		return err
	}

	return nil
}

// Name returns the job name for scheduling and logging
func (j *BackupJob) Name() string {
	return "snapshot_backup"
}
