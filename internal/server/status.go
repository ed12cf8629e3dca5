package server

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/lumi-launcher/backend/internal/logging"
	"github.com/lumi-launcher/backend/internal/models"
)

// LockFileRelPath is where a running server holds its exclusive lock.
var LockFileRelPath = filepath.Join("players", "LOCK")

// RunningStateDetector reports whether a server is running in an installation folder.
type RunningStateDetector interface {
	Detect(path string) string
}

// LockDetector infers the running state from the lock file a live server keeps open.
// It never creates the lock file and never holds the lock past a single probe.
type LockDetector struct{}

func NewLockDetector() *LockDetector {
	return &LockDetector{}
}

// Detect returns models.StatusOnline, models.StatusOffline or models.StatusUnknown.
func (d *LockDetector) Detect(path string) string {
	log := logging.Component("status")
	lockPath := filepath.Join(path, LockFileRelPath)

	if _, err := os.Stat(lockPath); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Debug("lock_stat_failed", "path", lockPath, "error", err)
		}
		return models.StatusUnknown
	}

	file, err := os.OpenFile(lockPath, os.O_WRONLY, 0)
	if err != nil {
		log.Debug("lock_open_failed", "path", lockPath, "error", err)
		return models.StatusUnknown
	}
	defer file.Close()

	if err := tryLockExclusive(file); err != nil {
		return models.StatusOnline
	}
	if err := unlockFile(file); err != nil {
		log.Warn("lock_release_failed", "path", lockPath, "error", err)
	}
	return models.StatusOffline
}
