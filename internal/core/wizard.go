package core

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/valter-silva-au/questforge/pkg/models"
	"go.uber.org/zap"
)

var (
	// ErrUnknownField is returned when a field name does not match any
	// persisted draft field.
	ErrUnknownField = errors.New("unknown draft field")
	// ErrUnknownStep is returned by SetCurrentStep for steps outside the
	// fixed ordering.
	ErrUnknownStep = errors.New("unknown wizard step")
)

// WizardOptions carries the optional collaborators of a QuestWizard.
type WizardOptions struct {
	// Validators gates forward transitions. Nil uses lenient budget parsing.
	Validators *StepValidators
	// Notifier receives toasts. Nil discards them.
	Notifier Notifier
	// Events records step changes and draft persistence. Nil disables it.
	Events EventLogger
	// Logger receives diagnostics. Nil uses a no-op logger.
	Logger *zap.Logger
}

// QuestWizard is the single source of truth for the current wizard step and
// the live draft. It is not safe for concurrent use; surfaces that serve
// several callers serialize access themselves.
type QuestWizard struct {
	draft      models.QuestDraft
	step       models.WizardStep
	store      DraftStore
	validators *StepValidators
	notifier   Notifier
	events     EventLogger
	logger     *zap.Logger
	sessionID  string
	mounted    bool
}

// NewQuestWizard creates a wizard on the GUIDE step with an empty draft.
// Call Mount to restore a previously saved draft.
func NewQuestWizard(store DraftStore, opts WizardOptions) *QuestWizard {
	w := &QuestWizard{
		draft:      models.NewQuestDraft(),
		step:       models.StepGuide,
		store:      store,
		validators: opts.Validators,
		notifier:   opts.Notifier,
		events:     opts.Events,
		logger:     opts.Logger,
		sessionID:  uuid.NewString(),
	}
	if w.validators == nil {
		w.validators = NewStepValidators(nil)
	}
	if w.notifier == nil {
		w.notifier = discardNotifier{}
	}
	if w.logger == nil {
		w.logger = zap.NewNop()
	}
	w.logger = w.logger.With(zap.String("session", w.sessionID))
	return w
}

// Mount loads the saved draft into the wizard, replacing every field except
// attachments. It runs once per wizard; later calls do nothing. An unreadable
// record is logged and ignored. It reports whether a draft was restored.
func (w *QuestWizard) Mount() bool {
	if w.mounted {
		return false
	}
	w.mounted = true

	saved, found, err := w.store.Load()
	if err != nil {
		w.logger.Warn("ignoring saved draft", zap.Error(err))
		logEvent(w.events, "draft.load_failed", map[string]any{
			"session_id": w.sessionID,
			"error":      err.Error(),
		})
		return false
	}
	if !found {
		return false
	}

	attachments := w.draft.Attachments
	w.draft = saved.Clone()
	w.draft.Attachments = attachments
	w.logger.Debug("restored saved draft", zap.String("title", w.draft.Title))
	logEvent(w.events, "draft.restored", map[string]any{"session_id": w.sessionID})
	return true
}

// SessionID identifies this wizard instance in logs and events.
func (w *QuestWizard) SessionID() string { return w.sessionID }

// CurrentStep returns the step the wizard is on.
func (w *QuestWizard) CurrentStep() models.WizardStep { return w.step }

// Draft returns a copy of the live draft.
func (w *QuestWizard) Draft() models.QuestDraft { return w.draft.Clone() }

// Validators returns the step gates the wizard uses.
func (w *QuestWizard) Validators() *StepValidators { return w.validators }

// UpdateField overwrites one field of the live draft. No validation happens
// here; gates run on NextStep. Tags are given comma-separated and are
// deduplicated. Invalid UTF-8 sequences are replaced with U+FFFD so the live
// draft matches what a save writes. The only failures are an unknown field or
// an IP rights value outside the fixed set.
func (w *QuestWizard) UpdateField(field models.DraftField, value string) error {
	value = strings.ToValidUTF8(value, "\uFFFD")
	switch field {
	case models.FieldTitle:
		w.draft.Title = value
	case models.FieldSubject:
		w.draft.Subject = value
	case models.FieldTags:
		w.draft.SetTags(strings.Split(value, ","))
	case models.FieldDescription:
		w.draft.Description = value
	case models.FieldDeliverables:
		w.draft.Deliverables = value
	case models.FieldAcceptanceCriteria:
		w.draft.AcceptanceCriteria = value
	case models.FieldBudget:
		w.draft.Budget = value
	case models.FieldDeadline:
		w.draft.Deadline = value
	case models.FieldIPRights:
		rights, err := models.ParseIPRights(value)
		if err != nil {
			return err
		}
		w.draft.IPRights = rights
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

// AddTag appends a tag unless it is blank or already present.
func (w *QuestWizard) AddTag(tag string) bool {
	return w.draft.AddTag(tag)
}

// RemoveTag removes a tag if present.
func (w *QuestWizard) RemoveTag(tag string) bool {
	return w.draft.RemoveTag(tag)
}

// AddAttachment attaches a file handle to the live draft. Attachments are
// never persisted.
func (w *QuestWizard) AddAttachment(a models.Attachment) {
	if a.Name == "" {
		a.Name = filepath.Base(a.Path)
	}
	w.draft.Attachments = append(w.draft.Attachments, a)
}

// RemoveAttachment drops the first attachment with the given name.
func (w *QuestWizard) RemoveAttachment(name string) bool {
	for i, a := range w.draft.Attachments {
		if a.Name == name {
			w.draft.Attachments = append(w.draft.Attachments[:i:i], w.draft.Attachments[i+1:]...)
			return true
		}
	}
	return false
}

// NextStep advances to the next step if the current step's gate passes. On
// failure the step is unchanged, a validation toast is emitted and the
// *ValidationError is returned. At the last step it does nothing.
func (w *QuestWizard) NextStep() error {
	next, ok := w.step.Next()
	if !ok {
		return nil
	}
	if verr := w.validators.Validate(w.step, w.draft); verr != nil {
		w.notifier.Notify(Notification{Level: LevelError, Kind: KindValidation, Message: verr.Message})
		logEvent(w.events, "wizard.validation_failed", map[string]any{
			"session_id": w.sessionID,
			"step":       string(verr.Step),
			"fields":     fieldNames(verr.Fields),
			"message":    verr.Message,
		})
		return verr
	}
	w.moveTo(next, "next")
	return nil
}

// PrevStep moves back one step without validation. At the first step it
// does nothing.
func (w *QuestWizard) PrevStep() {
	if prev, ok := w.step.Prev(); ok {
		w.moveTo(prev, "prev")
	}
}

// SetCurrentStep jumps straight to step without running any gate. It is
// meant for flows confirmed elsewhere, such as agreeing to the publishing
// protocol on PREVIEW and landing on PAYMENT.
func (w *QuestWizard) SetCurrentStep(step models.WizardStep) error {
	if !step.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStep, step)
	}
	if step != w.step {
		w.moveTo(step, "set")
	}
	return nil
}

func (w *QuestWizard) moveTo(step models.WizardStep, via string) {
	from := w.step
	w.step = step
	w.logger.Debug("wizard step changed",
		zap.String("from", string(from)),
		zap.String("to", string(step)),
		zap.String("via", via))
	logEvent(w.events, "wizard.step_changed", map[string]any{
		"session_id": w.sessionID,
		"from":       string(from),
		"to":         string(step),
		"via":        via,
	})
}

// SaveDraft persists the draft without its attachments and emits a success
// toast. A storage failure is reported as an error toast and returned; the
// live draft is untouched either way.
func (w *QuestWizard) SaveDraft() error {
	if err := w.store.Save(w.draft); err != nil {
		w.logger.Warn("saving draft failed", zap.Error(err))
		w.notifier.Notify(Notification{
			Level:   LevelError,
			Kind:    KindDraft,
			Message: "Could not save draft: " + err.Error(),
		})
		return err
	}
	w.notifier.Notify(Notification{Level: LevelSuccess, Kind: KindDraft, Message: "Draft saved."})
	logEvent(w.events, "draft.saved", map[string]any{
		"session_id": w.sessionID,
		"step":       string(w.step),
	})
	return nil
}

// ClearDraft deletes the saved draft and resets the live draft to empty
// defaults. The current step is left as is. The live draft is reset even
// when the delete fails; the delete error is returned.
func (w *QuestWizard) ClearDraft() error {
	err := w.store.Clear()
	w.draft = models.NewQuestDraft()
	if err != nil {
		w.logger.Warn("clearing saved draft failed", zap.Error(err))
		return err
	}
	logEvent(w.events, "draft.cleared", map[string]any{"session_id": w.sessionID})
	return nil
}

func fieldNames(fields []models.DraftField) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f)
	}
	return names
}
