package filelock

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
)

func TestWith_CreatesLockFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.lock")
	ran := false
	if err := With(path, func() error { ran = true; return nil }); err != nil {
		t.Fatalf("With: %v", err)
	}
	if !ran {
		t.Error("fn did not run")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("lock file missing: %v", err)
	}
}

func TestWith_ReturnsFnError(t *testing.T) {
	want := errors.New("boom")
	err := With(filepath.Join(t.TempDir(), "x.lock"), func() error { return want })
	if !errors.Is(err, want) {
		t.Errorf("err = %v, want %v", err, want)
	}
}

func TestWith_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "x.lock")
	if err := With(path, func() error { return nil }); err == nil {
		t.Error("expected error for missing directory")
	}
}

// Each goroutine opens its own descriptor, so flock excludes them the same way
// it excludes separate processes.
func TestWith_SerializesCounterUpdates(t *testing.T) {
	dir := t.TempDir()
	counter := filepath.Join(dir, "counter")
	lock := counter + ".lock"

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- With(lock, func() error {
				data, _ := os.ReadFile(counter)
				n, _ := strconv.Atoi(strings.TrimSpace(string(data)))
				return os.WriteFile(counter, []byte(strconv.Itoa(n+1)), 0o600)
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("With: %v", err)
		}
	}

	data, err := os.ReadFile(counter)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(string(data)); got != strconv.Itoa(workers) {
		t.Errorf("counter = %s, want %d", got, workers)
	}
}
