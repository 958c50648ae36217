package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// IPRights is the intellectual-property disposition selected for a quest's
// output. The zero value means "not selected".
type IPRights string

const (
	IPWorkForHire IPRights = "WORK_FOR_HIRE"
	IPOpenSource  IPRights = "OPEN_SOURCE"
	IPAttribution IPRights = "ATTRIBUTION"
)

// AllIPRights lists the selectable IP rights in display order.
var AllIPRights = []IPRights{IPWorkForHire, IPOpenSource, IPAttribution}

// IsSet reports whether a value has been selected.
func (r IPRights) IsSet() bool {
	return r != ""
}

// Valid reports whether r is one of AllIPRights.
func (r IPRights) Valid() bool {
	for _, v := range AllIPRights {
		if r == v {
			return true
		}
	}
	return false
}

// MarshalJSON encodes the unset value as null.
func (r IPRights) MarshalJSON() ([]byte, error) {
	if r == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(r))
}

// UnmarshalJSON accepts null or one of the known names as understood by
// ParseIPRights.
func (r *IPRights) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decoding ipRights: %w", err)
	}
	parsed, err := ParseIPRights(s)
	if err != nil {
		return fmt.Errorf("decoding ipRights: %w", err)
	}
	*r = parsed
	return nil
}

// ParseIPRights converts a case-insensitive name ("open-source", "OPEN_SOURCE")
// into an IPRights value. The empty string yields the unset value.
func ParseIPRights(name string) (IPRights, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, "-", "_")
	if n == "" {
		return "", nil
	}
	for _, r := range AllIPRights {
		if string(r) == n {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown IP rights %q (use WORK_FOR_HIRE, OPEN_SOURCE or ATTRIBUTION)", name)
}

// Subjects is the fixed set of research subjects offered by the wizard.
var Subjects = []string{
	"Physics",
	"Biology",
	"Chemistry",
	"Mathematics",
	"Computer Science",
	"Medicine",
	"Climate Science",
	"Social Science",
	"Engineering",
}

// Attachment is an opaque handle to a user-picked file. Handles are only
// meaningful inside the session that picked them.
type Attachment struct {
	Name string
	Path string
	Size int64
}

// QuestDraft is the in-progress quest-creation form. Attachments never
// serialize; every other field round-trips through JSON.
type QuestDraft struct {
	Title              string       `json:"title"`
	Subject            string       `json:"subject"`
	Tags               []string     `json:"tags"`
	Description        string       `json:"description"`
	Attachments        []Attachment `json:"-"`
	Deliverables       string       `json:"deliverables"`
	AcceptanceCriteria string       `json:"acceptanceCriteria"`
	Budget             string       `json:"budget"`
	Deadline           string       `json:"deadline"`
	IPRights           IPRights     `json:"ipRights"`
}

// NewQuestDraft returns a draft with all-empty defaults.
func NewQuestDraft() QuestDraft {
	return QuestDraft{Tags: []string{}}
}

// Clone returns a deep copy of the draft.
func (d QuestDraft) Clone() QuestDraft {
	c := d
	c.Tags = append([]string{}, d.Tags...)
	if d.Attachments != nil {
		c.Attachments = append([]Attachment(nil), d.Attachments...)
	}
	return c
}

// WithoutAttachments returns a deep copy with Attachments cleared.
func (d QuestDraft) WithoutAttachments() QuestDraft {
	c := d.Clone()
	c.Attachments = nil
	return c
}

// AddTag appends tag after trimming it and replacing invalid UTF-8 with
// U+FFFD. Empty tags and exact duplicates are ignored. It reports whether the
// tag was added.
func (d *QuestDraft) AddTag(tag string) bool {
	tag = strings.TrimSpace(strings.ToValidUTF8(tag, "\uFFFD"))
	if tag == "" {
		return false
	}
	for _, t := range d.Tags {
		if t == tag {
			return false
		}
	}
	d.Tags = append(d.Tags, tag)
	return true
}

// RemoveTag deletes tag if present, preserving the order of the rest.
func (d *QuestDraft) RemoveTag(tag string) bool {
	tag = strings.TrimSpace(tag)
	for i, t := range d.Tags {
		if t == tag {
			d.Tags = append(d.Tags[:i:i], d.Tags[i+1:]...)
			return true
		}
	}
	return false
}

// SetTags replaces the tag list, keeping the first occurrence of each tag.
func (d *QuestDraft) SetTags(tags []string) {
	d.Tags = []string{}
	for _, t := range tags {
		d.AddTag(t)
	}
}

// DraftField names a persisted field of QuestDraft.
type DraftField string

const (
	FieldTitle              DraftField = "title"
	FieldSubject            DraftField = "subject"
	FieldTags               DraftField = "tags"
	FieldDescription        DraftField = "description"
	FieldDeliverables       DraftField = "deliverables"
	FieldAcceptanceCriteria DraftField = "acceptanceCriteria"
	FieldBudget             DraftField = "budget"
	FieldDeadline           DraftField = "deadline"
	FieldIPRights           DraftField = "ipRights"
)

// DraftFields lists the persisted fields in form order.
var DraftFields = []DraftField{
	FieldTitle,
	FieldSubject,
	FieldTags,
	FieldDescription,
	FieldDeliverables,
	FieldAcceptanceCriteria,
	FieldBudget,
	FieldDeadline,
	FieldIPRights,
}

// ParseDraftField accepts the JSON key ("acceptanceCriteria") or a snake or
// kebab spelling ("acceptance_criteria", "ip-rights").
func ParseDraftField(name string) (DraftField, bool) {
	norm := strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(name))
	for _, f := range DraftFields {
		if strings.ToLower(string(f)) == norm {
			return f, true
		}
	}
	return "", false
}

// Get returns the string form of a field. Tags are joined with ", ".
func (d QuestDraft) Get(field DraftField) string {
	switch field {
	case FieldTitle:
		return d.Title
	case FieldSubject:
		return d.Subject
	case FieldTags:
		return strings.Join(d.Tags, ", ")
	case FieldDescription:
		return d.Description
	case FieldDeliverables:
		return d.Deliverables
	case FieldAcceptanceCriteria:
		return d.AcceptanceCriteria
	case FieldBudget:
		return d.Budget
	case FieldDeadline:
		return d.Deadline
	case FieldIPRights:
		return string(d.IPRights)
	}
	return ""
}

// Quest is a published quest record.
type Quest struct {
	ID                 string    `yaml:"id"`
	Title              string    `yaml:"title"`
	Subject            string    `yaml:"subject"`
	Tags               []string  `yaml:"tags"`
	Description        string    `yaml:"description"`
	Deliverables       string    `yaml:"deliverables"`
	AcceptanceCriteria string    `yaml:"acceptance_criteria"`
	Budget             float64   `yaml:"budget"`
	Deadline           string    `yaml:"deadline"`
	IPRights           IPRights  `yaml:"ip_rights"`
	Attachments        []string  `yaml:"attachments,omitempty"`
	Backer             string    `yaml:"backer"`
	PaymentTx          string    `yaml:"payment_tx"`
	Published          time.Time `yaml:"published"`
}

// QuestFilter selects quests from the registry. Empty fields match anything;
// Tags must all be present.
type QuestFilter struct {
	Subject  string
	Tags     []string
	IPRights IPRights
}
