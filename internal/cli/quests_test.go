package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/questforge/pkg/models"
)

func TestQuestsList_Empty(t *testing.T) {
	setupServices(t)

	out, _, err := run(t, "quests", "list")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "No quests found.") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestQuestsList_Filters(t *testing.T) {
	s := setupServices(t)
	for _, q := range []models.Quest{
		{ID: "QUEST-00001", Title: "Dark matter survey", Subject: "Physics", Tags: []string{"astro"}, Budget: 1500, Deadline: "2027-01-31", IPRights: models.IPOpenSource, Published: time.Now()},
		{ID: "QUEST-00002", Title: "Gut microbiome", Subject: "Biology", Tags: []string{"genomics"}, Budget: 900, Deadline: "2027-03-01", IPRights: models.IPWorkForHire, Published: time.Now()},
	} {
		if err := s.registry.AddQuest(q); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.registry.Save(); err != nil {
		t.Fatal(err)
	}

	out, _, err := run(t, "quests", "list")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "QUEST-00001") || !strings.Contains(out, "QUEST-00002") {
		t.Errorf("expected both quests, got %q", out)
	}

	out, _, _ = run(t, "quests", "list", "--subject", "biology")
	if strings.Contains(out, "QUEST-00001") || !strings.Contains(out, "QUEST-00002") {
		t.Errorf("unexpected subject filter output %q", out)
	}

	questsSubject = ""
	out, _, _ = run(t, "quests", "list", "--tag", "astro")
	if !strings.Contains(out, "QUEST-00001") || strings.Contains(out, "QUEST-00002") {
		t.Errorf("unexpected tag filter output %q", out)
	}

	questsTags = nil
	if _, _, err := run(t, "quests", "list", "--ip-rights", "nope"); err == nil {
		t.Error("expected error for unknown IP rights")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := truncate("a very long title", 6); got != "a ver…" {
		t.Errorf("got %q", got)
	}
}
