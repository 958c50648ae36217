package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestQuestDraft_Tags(t *testing.T) {
	d := NewQuestDraft()
	if !d.AddTag(" ml ") || d.AddTag("ml") || d.AddTag("  ") {
		t.Fatal("AddTag should trim, skip blanks and skip duplicates")
	}
	d.AddTag("quantum")
	if !d.RemoveTag("ml") || d.RemoveTag("ml") {
		t.Fatal("RemoveTag should remove once")
	}
	d.SetTags([]string{"a", "", "b", "a"})
	if strings.Join(d.Tags, ",") != "a,b" {
		t.Errorf("SetTags() = %v", d.Tags)
	}
}

func TestQuestDraft_JSONExcludesAttachments(t *testing.T) {
	d := NewQuestDraft()
	d.Title = "Study X"
	d.Attachments = []Attachment{{Name: "a.pdf", Path: "/tmp/a.pdf"}}

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "a.pdf") {
		t.Errorf("attachments leaked into %s", data)
	}
	if !strings.Contains(string(data), `"ipRights":null`) {
		t.Errorf("unset ipRights should encode as null: %s", data)
	}

	var back QuestDraft
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.Title != "Study X" || back.IPRights.IsSet() || len(back.Attachments) != 0 {
		t.Errorf("unexpected decoded draft %+v", back)
	}
}

func TestQuestDraft_AddTagRepairsUTF8(t *testing.T) {
	d := NewQuestDraft()
	d.AddTag("ml\xff")
	if d.Tags[0] != "ml\uFFFD" {
		t.Errorf("AddTag stored %q", d.Tags[0])
	}
	if d.AddTag("ml\xfe") {
		t.Error("repaired tag should count as a duplicate")
	}
}

func TestIPRights_UnmarshalRejectsUnknown(t *testing.T) {
	var d QuestDraft
	if err := json.Unmarshal([]byte(`{"ipRights":"PUBLIC_DOMAIN"}`), &d); err == nil {
		t.Fatal("expected error for unknown ipRights")
	}
	if err := json.Unmarshal([]byte(`{"ipRights":"open-source"}`), &d); err != nil || d.IPRights != IPOpenSource {
		t.Fatalf("got %q, %v", d.IPRights, err)
	}
	if IPRights("PUBLIC_DOMAIN").Valid() || !IPAttribution.Valid() || IPRights("").Valid() {
		t.Error("Valid() disagrees with AllIPRights")
	}
}

func TestQuestDraft_CloneIsDeep(t *testing.T) {
	d := NewQuestDraft()
	d.AddTag("ml")
	c := d.Clone()
	c.Tags[0] = "changed"
	if d.Tags[0] != "ml" {
		t.Error("Clone shares the tag slice")
	}
}

func TestParseIPRights(t *testing.T) {
	tests := map[string]IPRights{
		"open-source":   IPOpenSource,
		"WORK_FOR_HIRE": IPWorkForHire,
		"attribution":   IPAttribution,
		"":              "",
	}
	for in, want := range tests {
		got, err := ParseIPRights(in)
		if err != nil || got != want {
			t.Errorf("ParseIPRights(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseIPRights("public-domain"); err == nil {
		t.Error("expected error for unknown value")
	}
}

func TestParseDraftField(t *testing.T) {
	for in, want := range map[string]DraftField{
		"acceptanceCriteria":  FieldAcceptanceCriteria,
		"acceptance_criteria": FieldAcceptanceCriteria,
		"ip-rights":           FieldIPRights,
		"Title":               FieldTitle,
	} {
		if got, ok := ParseDraftField(in); !ok || got != want {
			t.Errorf("ParseDraftField(%q) = %q, %v", in, got, ok)
		}
	}
	if _, ok := ParseDraftField("attachments"); ok {
		t.Error("attachments is not an editable persisted field")
	}
}
