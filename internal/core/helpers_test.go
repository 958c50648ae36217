package core

import (
	"errors"
	"sync"

	"github.com/valter-silva-au/questforge/pkg/models"
)

// memKV is an in-memory KeyValueStore with injectable failures.
type memKV struct {
	mu      sync.Mutex
	data    map[string]string
	getErr  error
	setErr  error
	delErr  error
	setCall int
}

func newMemKV() *memKV {
	return &memKV{data: make(map[string]string)}
}

func (m *memKV) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memKV) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCall++
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func (m *memKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.delErr != nil {
		return m.delErr
	}
	delete(m.data, key)
	return nil
}

// toastRecorder collects notifications.
type toastRecorder struct {
	got []Notification
}

func (r *toastRecorder) Notify(n Notification) {
	r.got = append(r.got, n)
}

func (r *toastRecorder) last() Notification {
	if len(r.got) == 0 {
		return Notification{}
	}
	return r.got[len(r.got)-1]
}

// eventRecorder implements EventLogger.
type eventRecorder struct {
	events []string
	data   []map[string]any
}

func (r *eventRecorder) LogEvent(eventType string, data map[string]any) error {
	r.events = append(r.events, eventType)
	r.data = append(r.data, data)
	return nil
}

func (r *eventRecorder) count(eventType string) int {
	n := 0
	for _, e := range r.events {
		if e == eventType {
			n++
		}
	}
	return n
}

var errBoom = errors.New("boom")

// validDraft returns a draft that passes every gate.
func validDraft() models.QuestDraft {
	d := models.NewQuestDraft()
	d.Title = "Study X"
	d.Subject = "Physics"
	d.Description = "<p>abc</p>"
	d.Tags = []string{"ml", "quantum"}
	d.Deliverables = "<p>A paper</p>"
	d.AcceptanceCriteria = "<p>Peer reviewed</p>"
	d.Budget = "1500"
	d.Deadline = "2027-01-31"
	d.IPRights = models.IPOpenSource
	return d
}

// newTestWizard builds a wizard over an in-memory store.
func newTestWizard() (*QuestWizard, *memKV, *toastRecorder, *eventRecorder) {
	kv := newMemKV()
	toasts := &toastRecorder{}
	events := &eventRecorder{}
	w := NewQuestWizard(NewDraftStore(kv, ""), WizardOptions{Notifier: toasts, Events: events})
	return w, kv, toasts, events
}

// fillDraft copies every persisted field of d into the wizard.
func fillDraft(w *QuestWizard, d models.QuestDraft) {
	for _, f := range models.DraftFields {
		if err := w.UpdateField(f, d.Get(f)); err != nil {
			panic(err)
		}
	}
}
