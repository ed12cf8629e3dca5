package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lumi-launcher/backend/internal/models"
)

func createLockFile(t *testing.T, dir string) string {
	t.Helper()
	lockPath := filepath.Join(dir, LockFileRelPath)
	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(lockPath, nil, 0644); err != nil {
		t.Fatalf("write lock: %v", err)
	}
	return lockPath
}

func TestDetectUnknownWithoutLockFile(t *testing.T) {
	dir := t.TempDir()

	if status := NewLockDetector().Detect(dir); status != models.StatusUnknown {
		t.Fatalf("expected unknown, got %s", status)
	}
	if _, err := os.Stat(filepath.Join(dir, LockFileRelPath)); !os.IsNotExist(err) {
		t.Fatalf("detector must not create the lock file")
	}
}

func TestDetectUnknownForMissingFolder(t *testing.T) {
	if status := NewLockDetector().Detect(filepath.Join(t.TempDir(), "gone")); status != models.StatusUnknown {
		t.Fatalf("expected unknown, got %s", status)
	}
}

func TestDetectOfflineWhenLockIsFree(t *testing.T) {
	dir := t.TempDir()
	createLockFile(t, dir)

	detector := NewLockDetector()
	if status := detector.Detect(dir); status != models.StatusOffline {
		t.Fatalf("expected offline, got %s", status)
	}
	// The probe must release its lock so repeated probes agree.
	if status := detector.Detect(dir); status != models.StatusOffline {
		t.Fatalf("expected offline on second probe, got %s", status)
	}
}

func TestDetectOnlineWhileLockIsHeld(t *testing.T) {
	dir := t.TempDir()
	lockPath := createLockFile(t, dir)

	holder, err := os.OpenFile(lockPath, os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer holder.Close()
	if err := tryLockExclusive(holder); err != nil {
		t.Fatalf("lock: %v", err)
	}

	detector := NewLockDetector()
	if status := detector.Detect(dir); status != models.StatusOnline {
		t.Fatalf("expected online, got %s", status)
	}

	if err := unlockFile(holder); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if status := detector.Detect(dir); status != models.StatusOffline {
		t.Fatalf("expected offline after release, got %s", status)
	}
}
