// Package filelock serializes read-modify-write cycles on files shared between
// qf processes.
package filelock

import (
	"fmt"
	"os"
	"syscall"
)

// With runs fn while holding an exclusive flock on path. The lock file is
// created if missing and left in place afterwards. Flock is Unix-only.
func With(path string, fn func() error) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return fmt.Errorf("opening lock file: %w", err)
	}
	defer f.Close()

	fd := int(f.Fd())
	if err := syscall.Flock(fd, syscall.LOCK_EX); err != nil {
		return fmt.Errorf("acquiring file lock: %w", err)
	}
	defer func() { _ = syscall.Flock(fd, syscall.LOCK_UN) }()

	return fn()
}
