package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// RecoveryResult is the outcome of AttemptRecovery.
type RecoveryResult int

const (
	RecoveryHealthy RecoveryResult = iota
	RecoveryWALReplayed
	RecoveryFromBackup
	RecoveryFailed
)

func (r RecoveryResult) String() string {
	switch r {
	case RecoveryHealthy:
		return "healthy"
	case RecoveryWALReplayed:
		return "wal_replayed"
	case RecoveryFromBackup:
		return "restored_from_backup"
	case RecoveryFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RecoveryStep records one attempted phase.
type RecoveryStep struct {
	Name      string
	Succeeded bool
	Message   string
	Duration  time.Duration
}

// RecoveryReport describes what AttemptRecovery did.
type RecoveryReport struct {
	Result     RecoveryResult
	Path       string
	BackupUsed string
	Steps      []RecoveryStep
}

// ErrRecoveryFailed is returned when no phase produced a healthy file.
var ErrRecoveryFailed = errors.New("all recovery attempts failed")

// AttemptRecovery checks the database at dbPath before it is opened.
// A corrupt file is first repaired by replaying its WAL; failing that,
// the newest backup that passes an integrity check replaces it. A missing
// file is healthy.
func AttemptRecovery(dbPath, backupDir string, logger *slog.Logger) (*RecoveryReport, error) {
	if logger == nil {
		logger = slog.Default()
	}
	report := &RecoveryReport{Path: dbPath}

	if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
		report.Result = RecoveryHealthy
		return report, nil
	}

	if report.step("integrity_check", func() (string, error) { return checkFileIntegrity(dbPath) }) {
		report.Result = RecoveryHealthy
		return report, nil
	}
	logger.Warn("database integrity check failed", "path", dbPath)

	if _, err := os.Stat(dbPath + "-wal"); err == nil {
		if report.step("wal_replay", func() (string, error) { return replayWAL(dbPath) }) &&
			report.step("post_wal_integrity", func() (string, error) { return checkFileIntegrity(dbPath) }) {
			report.Result = RecoveryWALReplayed
			logger.Info("database recovered by WAL replay", "path", dbPath)
			return report, nil
		}
	}

	if backupDir != "" {
		var used string
		ok := report.step("restore_backup", func() (string, error) {
			var err error
			used, err = restoreNewestBackup(dbPath, backupDir)
			return used, err
		})
		if ok {
			report.Result = RecoveryFromBackup
			report.BackupUsed = used
			logger.Info("database restored from backup", "path", dbPath, "backup", used)
			return report, nil
		}
	}

	report.Result = RecoveryFailed
	logger.Error("database recovery failed", "path", dbPath, "steps", len(report.Steps))
	return report, ErrRecoveryFailed
}

func (r *RecoveryReport) step(name string, fn func() (string, error)) bool {
	start := time.Now()
	msg, err := fn()
	s := RecoveryStep{Name: name, Succeeded: err == nil, Message: msg, Duration: time.Since(start)}
	if err != nil {
		s.Message = err.Error()
	}
	r.Steps = append(r.Steps, s)
	return s.Succeeded
}

func checkFileIntegrity(dbPath string) (string, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", dbPath))
	if err != nil {
		return "", fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rows, err := db.QueryContext(ctx, "PRAGMA integrity_check")
	if err != nil {
		return "", fmt.Errorf("running integrity check: %w", err)
	}
	defer rows.Close()

	var results []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return "", err
		}
		results = append(results, line)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	if len(results) == 1 && results[0] == "ok" {
		return "ok", nil
	}
	return "", fmt.Errorf("integrity check: %s", strings.Join(results, "; "))
}

func replayWAL(dbPath string) (string, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_txlock=immediate", dbPath))
	if err != nil {
		return "", fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA wal_checkpoint(RESTART)"); err != nil {
		return "", fmt.Errorf("WAL checkpoint: %w", err)
	}
	return "checkpoint complete", nil
}

// restoreNewestBackup moves the corrupt file aside and copies in the
// newest backup that passes an integrity check.
func restoreNewestBackup(dbPath, backupDir string) (string, error) {
	entries, err := os.ReadDir(backupDir)
	if err != nil {
		return "", fmt.Errorf("reading backup directory: %w", err)
	}

	type candidate struct {
		path    string
		modTime time.Time
	}
	var backups []candidate
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".db") {
			continue
		}
		if info, err := entry.Info(); err == nil {
			backups = append(backups, candidate{filepath.Join(backupDir, entry.Name()), info.ModTime()})
		}
	}
	sort.Slice(backups, func(i, j int) bool { return backups[i].modTime.After(backups[j].modTime) })

	for _, b := range backups {
		if _, err := checkFileIntegrity(b.path); err != nil {
			continue
		}

		aside := dbPath + ".corrupted." + time.Now().Format("20060102-150405")
		if err := os.Rename(dbPath, aside); err != nil {
			return "", fmt.Errorf("moving corrupt database aside: %w", err)
		}
		os.Remove(dbPath + "-wal")
		os.Remove(dbPath + "-shm")

		if err := copyFile(b.path, dbPath); err != nil {
			return "", fmt.Errorf("copying backup: %w", err)
		}
		return b.path, nil
	}

	return "", errors.New("no valid backup found")
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
