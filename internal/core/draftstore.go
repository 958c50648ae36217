package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/valter-silva-au/questforge/pkg/models"
)

// DefaultDraftKey is the storage key the draft record lives under.
const DefaultDraftKey = "quest_draft"

// ErrDraftUnreadable is returned by Load when a record exists but cannot be
// decoded. Callers treat it as "no draft".
var ErrDraftUnreadable = errors.New("stored draft is unreadable")

// DraftStore persists a single quest draft across sessions.
type DraftStore interface {
	// Load returns the saved draft and true, or nil and false when no
	// usable record exists. A corrupt record yields an error wrapping
	// ErrDraftUnreadable together with found=false.
	Load() (*models.QuestDraft, bool, error)
	// Save overwrites the record. Attachments are never written.
	Save(draft models.QuestDraft) error
	// Clear removes the record; a missing record is not an error.
	Clear() error
}

// kvDraftStore implements DraftStore on top of a KeyValueStore.
type kvDraftStore struct {
	kv  KeyValueStore
	key string
}

// NewDraftStore creates a DraftStore that keeps the draft as JSON under key
// in kv. An empty key selects DefaultDraftKey.
func NewDraftStore(kv KeyValueStore, key string) DraftStore {
	if key == "" {
		key = DefaultDraftKey
	}
	return &kvDraftStore{kv: kv, key: key}
}

func (s *kvDraftStore) Load() (*models.QuestDraft, bool, error) {
	raw, ok, err := s.kv.Get(s.key)
	if err != nil {
		return nil, false, fmt.Errorf("loading draft: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	// JSON null decodes without error but is not a draft.
	if strings.TrimSpace(raw) == "null" {
		return nil, false, fmt.Errorf("loading draft: %w: null record", ErrDraftUnreadable)
	}
	draft := models.NewQuestDraft()
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		return nil, false, fmt.Errorf("loading draft: %w: %v", ErrDraftUnreadable, err)
	}
	// Records may have been edited by hand.
	draft.SetTags(draft.Tags)
	return &draft, true, nil
}

func (s *kvDraftStore) Save(draft models.QuestDraft) error {
	d := draft.WithoutAttachments()
	if d.Tags == nil {
		d.Tags = []string{}
	}
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("saving draft: marshaling JSON: %w", err)
	}
	if err := s.kv.Set(s.key, string(data)); err != nil {
		return fmt.Errorf("saving draft: %w", err)
	}
	return nil
}

func (s *kvDraftStore) Clear() error {
	if err := s.kv.Delete(s.key); err != nil {
		return fmt.Errorf("clearing draft: %w", err)
	}
	return nil
}
