package reliability

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"coinscan/internal/database"
)

// backupPrefix namespaces backup objects in the bucket.
const backupPrefix = "coinscan-backup-"

// BackupService snapshots the sqlite databases into a tar.gz archive and
// uploads it to object storage, pruning old backups past the retention
// count.
type BackupService struct {
	storage   *S3Client
	databases []*database.DB
	dataDir   string
	retention int
	log       zerolog.Logger
}

// NewBackupService creates a backup service over the given databases.
func NewBackupService(storage *S3Client, databases []*database.DB, dataDir string, retention int, log zerolog.Logger) *BackupService {
	if retention < 1 {
		retention = 7
	}
	return &BackupService{
		storage:   storage,
		databases: databases,
		dataDir:   dataDir,
		retention: retention,
		log:       log.With().Str("service", "backup").Logger(),
	}
}

// CreateAndUploadBackup snapshots every database, archives the snapshots,
// uploads the archive, and prunes old remote backups.
func (s *BackupService) CreateAndUploadBackup(ctx context.Context) error {
	start := time.Now()

	stagingDir, err := os.MkdirTemp(s.dataDir, "backup-staging-")
	if err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(stagingDir)

	snapshots := make([]string, 0, len(s.databases))
	for _, db := range s.databases {
		snapshotPath := filepath.Join(stagingDir, db.Name()+".db")
		if err := s.snapshotDatabase(db, snapshotPath); err != nil {
			return fmt.Errorf("failed to snapshot %s: %w", db.Name(), err)
		}
		snapshots = append(snapshots, snapshotPath)
	}

	archiveName := backupPrefix + time.Now().UTC().Format("2006-01-02-150405") + ".tar.gz"
	archivePath := filepath.Join(stagingDir, archiveName)
	if err := createArchive(archivePath, snapshots); err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}

	info, err := os.Stat(archivePath)
	if err != nil {
		return fmt.Errorf("failed to stat archive: %w", err)
	}

	archive, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer archive.Close()

	if err := s.storage.Upload(ctx, archiveName, archive, info.Size()); err != nil {
		return err
	}

	if err := s.pruneOldBackups(ctx); err != nil {
		// The new backup is safe; a failed prune just leaves extras
		s.log.Warn().Err(err).Msg("Failed to prune old backups")
	}

	s.log.Info().
		Str("archive", archiveName).
		Int64("size_bytes", info.Size()).
		Dur("elapsed", time.Since(start)).
		Msg("Backup completed")
	return nil
}

// snapshotDatabase writes a consistent copy of a live database. VACUUM INTO
// produces a compact snapshot without blocking readers.
func (s *BackupService) snapshotDatabase(db *database.DB, destPath string) error {
	if err := db.WALCheckpoint("TRUNCATE"); err != nil {
		s.log.Warn().Err(err).Str("database", db.Name()).Msg("WAL checkpoint before backup failed")
	}

	_, err := db.Conn().Exec("VACUUM INTO ?", destPath)
	if err != nil {
		return fmt.Errorf("vacuum into failed: %w", err)
	}
	return nil
}

// pruneOldBackups deletes remote backups beyond the retention count, oldest
// first.
func (s *BackupService) pruneOldBackups(ctx context.Context) error {
	objects, err := s.storage.List(ctx, backupPrefix)
	if err != nil {
		return err
	}
	if len(objects) <= s.retention {
		return nil
	}

	for _, obj := range objects[s.retention:] {
		if err := s.storage.Delete(ctx, obj.Key); err != nil {
			return err
		}
		s.log.Info().Str("key", obj.Key).Msg("Old backup pruned")
	}
	return nil
}

// createArchive writes the files into a tar.gz archive.
func createArchive(archivePath string, files []string) error {
	out, err := os.Create(archivePath)
	if err != nil {
		return err
	}
	defer out.Close()

	gw := gzip.NewWriter(out)
	defer gw.Close()
	tw := tar.NewWriter(gw)
	defer tw.Close()

	for _, file := range files {
		if err := addToArchive(tw, file); err != nil {
			return err
		}
	}
	return nil
}

// addToArchive appends one file to the tar stream.
func addToArchive(tw *tar.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	header.Name = strings.TrimPrefix(filepath.Base(path), "/")

	if err := tw.WriteHeader(header); err != nil {
		return err
	}
	_, err = io.Copy(tw, f)
	return err
}
