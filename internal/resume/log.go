// Package resume maintains the append-only per-video outcome log. The log is
// read once at batch start to build a skip-set, so reruns over the same folder
// do not reprocess videos that already have a recorded outcome.
package resume

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/text/cases"

	"framerip/internal/logging"
	"framerip/internal/services"
)

// Status is the recorded outcome for one video.
type Status string

const (
	StatusProcessed         Status = "Processed"
	StatusTimedOutProcessed Status = "TimedOutProcessed"
	StatusSkipped           Status = "Skipped"
	StatusFailed            Status = "Failed"
)

const (
	// Records are tab-delimited: timestamp, status, reason, normalized path.
	recordFields = 4

	lockRetryInterval = 50 * time.Millisecond
	lockWaitBudget    = 2 * time.Second
)

// NormalizePath converts a video path to the canonical form stored in the log
// and used for skip-set membership: absolute and cleaned, case-folded only on
// platforms whose default filesystems are case-insensitive.
func NormalizePath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		abs = cases.Fold().String(abs)
	}
	return abs
}

// LoadSkipSet parses the outcome log into a set of normalized paths. A missing
// log means a first run and yields an empty set. Malformed lines are skipped;
// the log is an audit trail, not a strict database.
func LoadSkipSet(path string) (map[string]struct{}, error) {
	set := make(map[string]struct{})
	file, err := os.Open(path) //nolint:gosec
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return set, nil
		}
		return nil, services.Wrap(services.ErrIO, "resume", "open log", path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) < recordFields {
			continue
		}
		recorded := strings.TrimSpace(fields[3])
		if recorded == "" {
			continue
		}
		set[recorded] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, services.Wrap(services.ErrIO, "resume", "read log", path, err)
	}
	return set, nil
}

// Append records one outcome. The write takes an exclusive advisory lock with
// a bounded retry window; if the lock or the write ultimately fails the error
// is fatal, because losing audit records silently would break resume semantics.
func Append(logger *slog.Logger, path string, status Status, videoPath, reason string) error {
	log := logging.WithComponent(logger, "resume")

	lock := flock.New(path + ".lock")
	ctx, cancel := context.WithTimeout(context.Background(), lockWaitBudget)
	defer cancel()
	locked, err := lock.TryLockContext(ctx, lockRetryInterval)
	if err != nil || !locked {
		return services.Wrap(services.ErrIO, "resume", "lock log",
			fmt.Sprintf("could not acquire log lock within %s", lockWaitBudget), err)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Warn("failed to release log lock", logging.Error(err))
		}
	}()

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec
	if err != nil {
		return services.Wrap(services.ErrIO, "resume", "open log for append", path, err)
	}
	defer file.Close()

	record := strings.Join([]string{
		time.Now().Format(time.RFC3339),
		string(status),
		sanitizeField(reason),
		NormalizePath(videoPath),
	}, "\t")
	if _, err := file.WriteString(record + "\n"); err != nil {
		return services.Wrap(services.ErrIO, "resume", "append record", path, err)
	}
	log.Debug("outcome recorded",
		logging.String("status", string(status)),
		logging.String("video", videoPath))
	return nil
}

// sanitizeField keeps free-text fields from breaking the tab-delimited format.
func sanitizeField(value string) string {
	value = strings.ReplaceAll(value, "\t", " ")
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	return strings.TrimSpace(value)
}
