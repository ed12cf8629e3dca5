//go:build windows

package server

import (
	"os"

	"golang.org/x/sys/windows"
)

const lockRangeLow = 1

func tryLockExclusive(file *os.File) error {
	ol := new(windows.Overlapped)
	return windows.LockFileEx(windows.Handle(file.Fd()),
		windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY,
		0, lockRangeLow, 0, ol)
}

func unlockFile(file *os.File) error {
	ol := new(windows.Overlapped)
	return windows.UnlockFileEx(windows.Handle(file.Fd()), 0, lockRangeLow, 0, ol)
}
