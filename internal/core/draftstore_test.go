package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/valter-silva-au/questforge/pkg/models"
)

func TestDraftStore_RoundTripDropsAttachments(t *testing.T) {
	kv := newMemKV()
	store := NewDraftStore(kv, "")

	d := validDraft()
	d.Attachments = []models.Attachment{{Name: "data.csv", Path: "/tmp/data.csv", Size: 10}}

	if err := store.Save(d); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, found, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !found {
		t.Fatal("expected draft to be found")
	}

	want := d.WithoutAttachments()
	if diff := cmp.Diff(want, *got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	if len(got.Attachments) != 0 {
		t.Errorf("expected no attachments after reload, got %d", len(got.Attachments))
	}
	if strings.Contains(kv.data[DefaultDraftKey], "data.csv") {
		t.Error("attachment leaked into stored record")
	}
}

func TestDraftStore_StoredRecordShape(t *testing.T) {
	kv := newMemKV()
	store := NewDraftStore(kv, "custom_key")

	if err := store.Save(models.NewQuestDraft()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	raw, ok := kv.data["custom_key"]
	if !ok {
		t.Fatal("expected record under custom_key")
	}
	for _, key := range []string{`"title"`, `"subject"`, `"tags":[]`, `"description"`, `"deliverables"`,
		`"acceptanceCriteria"`, `"budget"`, `"deadline"`, `"ipRights":null`} {
		if !strings.Contains(raw, key) {
			t.Errorf("record %s missing %s", raw, key)
		}
	}
	if strings.Contains(strings.ToLower(raw), "attachments") {
		t.Errorf("record must not carry attachments: %s", raw)
	}
}

func TestDraftStore_LoadMissing(t *testing.T) {
	store := NewDraftStore(newMemKV(), "")
	got, found, err := store.Load()
	if err != nil || found || got != nil {
		t.Fatalf("Load() = %v, %v, %v; want nil, false, nil", got, found, err)
	}
}

func TestDraftStore_LoadCorruptDegradesToAbsent(t *testing.T) {
	for _, raw := range []string{"{not json", "null", `"a string"`, `{"tags": 5}`, `{"title":"t","ipRights":"PUBLIC_DOMAIN"}`} {
		kv := newMemKV()
		kv.data[DefaultDraftKey] = raw
		store := NewDraftStore(kv, "")

		got, found, err := store.Load()
		if found || got != nil {
			t.Errorf("%q: expected absent draft, got %v", raw, got)
		}
		if !errors.Is(err, ErrDraftUnreadable) {
			t.Errorf("%q: expected ErrDraftUnreadable, got %v", raw, err)
		}
	}
}

func TestDraftStore_LoadNormalizesTags(t *testing.T) {
	kv := newMemKV()
	kv.data[DefaultDraftKey] = `{"title":"t","tags":["ml"," ml ","","bio"]}`
	got, found, err := NewDraftStore(kv, "").Load()
	if err != nil || !found {
		t.Fatalf("Load: found=%v err=%v", found, err)
	}
	if diff := cmp.Diff([]string{"ml", "bio"}, got.Tags); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
}

func TestDraftStore_LoadBackendError(t *testing.T) {
	kv := newMemKV()
	kv.getErr = errBoom
	_, found, err := NewDraftStore(kv, "").Load()
	if found || !errors.Is(err, errBoom) {
		t.Fatalf("expected backend error, got found=%v err=%v", found, err)
	}
}

func TestDraftStore_ClearIsIdempotent(t *testing.T) {
	kv := newMemKV()
	store := NewDraftStore(kv, "")
	if err := store.Save(validDraft()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := store.Clear(); err != nil {
			t.Fatalf("Clear #%d: %v", i+1, err)
		}
	}
	if _, found, _ := store.Load(); found {
		t.Error("expected no draft after Clear")
	}
}

func TestDraftStore_SaveTwiceSameRecord(t *testing.T) {
	kv := newMemKV()
	store := NewDraftStore(kv, "")
	d := validDraft()

	if err := store.Save(d); err != nil {
		t.Fatalf("Save: %v", err)
	}
	first := kv.data[DefaultDraftKey]
	if err := store.Save(d); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if second := kv.data[DefaultDraftKey]; second != first {
		t.Errorf("second save changed record:\n%s\n%s", first, second)
	}
}
