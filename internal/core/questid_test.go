package core

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestGenerateQuestID_FirstID(t *testing.T) {
	gen := NewQuestIDGenerator(t.TempDir(), "QUEST", 5)

	id, err := gen.GenerateQuestID()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "QUEST-00001" {
		t.Errorf("expected QUEST-00001, got %s", id)
	}
}

func TestGenerateQuestID_IncrementsCounter(t *testing.T) {
	gen := NewQuestIDGenerator(t.TempDir(), "QUEST", 5)

	for _, want := range []string{"QUEST-00001", "QUEST-00002", "QUEST-00003"} {
		id, err := gen.GenerateQuestID()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id != want {
			t.Errorf("expected %s, got %s", want, id)
		}
	}
}

func TestGenerateQuestID_NoPadding(t *testing.T) {
	gen := NewQuestIDGenerator(t.TempDir(), "Q", 0)
	id, err := gen.GenerateQuestID()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "Q-1" {
		t.Errorf("expected Q-1, got %s", id)
	}
}

func TestGenerateQuestID_ReadsExistingCounter(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".quest_counter"), []byte("42\n"), 0o644); err != nil {
		t.Fatalf("failed to write counter file: %v", err)
	}

	id, err := NewQuestIDGenerator(dir, "QUEST", 5).GenerateQuestID()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "QUEST-00043" {
		t.Errorf("expected QUEST-00043, got %s", id)
	}
}

func TestGenerateQuestID_CorruptCounter(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".quest_counter"), []byte("abc"), 0o644); err != nil {
		t.Fatalf("failed to write counter file: %v", err)
	}
	if _, err := NewQuestIDGenerator(dir, "QUEST", 5).GenerateQuestID(); err == nil {
		t.Fatal("expected error for corrupt counter")
	}
}

func TestGenerateQuestID_ConcurrentUnique(t *testing.T) {
	dir := t.TempDir()
	const n = 20

	var (
		mu   sync.Mutex
		seen = make(map[string]bool, n)
		wg   sync.WaitGroup
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := NewQuestIDGenerator(dir, "QUEST", 5).GenerateQuestID()
			if err != nil {
				t.Errorf("GenerateQuestID: %v", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if seen[id] {
				t.Errorf("duplicate id %s", id)
			}
			seen[id] = true
		}()
	}
	wg.Wait()

	if len(seen) != n {
		t.Errorf("expected %d unique ids, got %d", n, len(seen))
	}
}
