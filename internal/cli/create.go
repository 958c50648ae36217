package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/questforge/internal/core"
	"github.com/valter-silva-au/questforge/internal/observability"
	"github.com/valter-silva-au/questforge/internal/richtext"
	"github.com/valter-silva-au/questforge/pkg/models"
	"go.uber.org/zap"
)

const publishTimeout = 30 * time.Second

type controlKind int

const (
	ctlText controlKind = iota
	ctlRich
	ctlSelect
	ctlTags
)

type control struct {
	field models.DraftField
	label string
	kind  controlKind
}

// stepControls lists the form controls of each editable step in focus order.
var stepControls = map[models.WizardStep][]control{
	models.StepBasics: {
		{models.FieldTitle, "Title", ctlText},
		{models.FieldSubject, "Subject", ctlSelect},
		{models.FieldTags, "Tags", ctlTags},
		{models.FieldDescription, "Description", ctlRich},
	},
	models.StepStandards: {
		{models.FieldDeliverables, "Deliverables", ctlRich},
		{models.FieldAcceptanceCriteria, "Acceptance criteria", ctlRich},
	},
	models.StepTerms: {
		{models.FieldBudget, "Budget", ctlText},
		{models.FieldDeadline, "Deadline (YYYY-MM-DD)", ctlText},
		{models.FieldIPRights, "IP rights", ctlSelect},
	},
}

// toastSink keeps the most recent notification for the status line.
type toastSink struct {
	mu   sync.Mutex
	last *core.Notification
}

func (s *toastSink) Notify(n core.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = &n
}

func (s *toastSink) Last() (core.Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return core.Notification{}, false
	}
	return *s.last, true
}

// publishDoneMsg carries the publish outcome back to the model.
type publishDoneMsg struct {
	quest *models.Quest
	err   error
}

type createModel struct {
	wizard    *core.QuestWizard
	publisher core.QuestPublisher
	toasts    *toastSink

	inputs  map[models.DraftField]textinput.Model
	editors map[models.DraftField]*richtext.BufferEditor
	focus   int
	width   int

	// publishing is set while a Publish call owns the wizard. The model
	// then renders from publishStep and must not read the wizard.
	publishing  bool
	publishStep models.WizardStep
	published   *models.Quest
}

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)

	stepActive  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	stepDone    = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	stepPending = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	labelStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	focusedLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Bold(true)
	tagStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("240")).Padding(0, 1)

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newCreateModel(w *core.QuestWizard, publisher core.QuestPublisher, toasts *toastSink) createModel {
	m := createModel{
		wizard:    w,
		publisher: publisher,
		toasts:    toasts,
		inputs:    make(map[models.DraftField]textinput.Model),
		editors:   make(map[models.DraftField]*richtext.BufferEditor),
	}

	for _, controls := range stepControls {
		for _, c := range controls {
			switch c.kind {
			case ctlText, ctlRich, ctlTags:
				ti := textinput.New()
				ti.CharLimit = 2000
				ti.Width = 60
				ti.Placeholder = placeholderFor(c)
				m.inputs[c.field] = ti
			}
			if c.kind == ctlRich {
				field := c.field
				editor := richtext.NewBufferEditor("")
				editor.OnChange(func(markup string) {
					_ = w.UpdateField(field, markup)
				})
				m.editors[field] = editor
			}
		}
	}

	m.loadInputs()
	m.refocus()
	return m
}

func placeholderFor(c control) string {
	switch c.kind {
	case ctlTags:
		return "type a tag and press enter"
	case ctlRich:
		return "plain text"
	}
	switch c.field {
	case models.FieldBudget:
		return "e.g. 1500"
	case models.FieldDeadline:
		return "2027-01-31"
	}
	return ""
}

func (m createModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m createModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case publishDoneMsg:
		m.publishing = false
		if msg.err == nil {
			m.published = msg.quest
			m.loadInputs()
		}
		return m, nil

	case tea.KeyMsg:
		if m.publishing {
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			return m, nil
		}
		return m.handleKey(msg)
	}

	return m, nil
}

func (m createModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+c":
		return m, tea.Quit

	case "tab":
		if n := len(m.controls()); n > 0 {
			m.focus = (m.focus + 1) % n
		}
		return m, m.refocus()

	case "shift+tab":
		if n := len(m.controls()); n > 0 {
			m.focus = (m.focus - 1 + n) % n
		}
		return m, m.refocus()

	case "ctrl+n":
		before := m.wizard.CurrentStep()
		if err := m.wizard.NextStep(); err == nil && m.wizard.CurrentStep() != before {
			m.published = nil
			m.focus = 0
		}
		return m, m.refocus()

	case "ctrl+b":
		m.wizard.PrevStep()
		m.focus = 0
		return m, m.refocus()

	case "ctrl+s":
		_ = m.wizard.SaveDraft()
		return m, nil

	case "ctrl+x":
		_ = m.wizard.ClearDraft()
		m.loadInputs()
		return m, nil

	case "ctrl+p":
		switch m.wizard.CurrentStep() {
		case models.StepPreview:
			_ = m.wizard.SetCurrentStep(models.StepPayment)
			return m, nil
		case models.StepPayment:
			if m.publisher == nil {
				m.toasts.Notify(core.Notification{Level: core.LevelError, Kind: core.KindPublish, Message: "Publishing is not available."})
				return m, nil
			}
			m.publishing = true
			m.publishStep = models.StepPayment
			return m, publishCmd(m.publisher, m.wizard)
		}
		return m, nil
	}

	c, ok := m.focused()
	if !ok {
		return m, nil
	}

	switch c.kind {
	case ctlSelect:
		switch msg.String() {
		case "left":
			m.cycle(c.field, -1)
		case "right", " ":
			m.cycle(c.field, 1)
		}
		return m, nil

	case ctlTags:
		ti := m.inputs[c.field]
		switch msg.String() {
		case "enter":
			m.wizard.AddTag(ti.Value())
			ti.Reset()
			m.inputs[c.field] = ti
			return m, nil
		case "backspace":
			if ti.Value() == "" {
				if tags := m.wizard.Draft().Tags; len(tags) > 0 {
					m.wizard.RemoveTag(tags[len(tags)-1])
				}
				return m, nil
			}
		}
		var cmd tea.Cmd
		ti, cmd = ti.Update(msg)
		m.inputs[c.field] = ti
		return m, cmd

	default:
		ti := m.inputs[c.field]
		var cmd tea.Cmd
		ti, cmd = ti.Update(msg)
		m.inputs[c.field] = ti
		if c.kind == ctlRich {
			m.editors[c.field].SetText(ti.Value())
		} else {
			_ = m.wizard.UpdateField(c.field, ti.Value())
		}
		return m, cmd
	}
}

func publishCmd(p core.QuestPublisher, w *core.QuestWizard) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		q, err := p.Publish(ctx, w)
		return publishDoneMsg{quest: q, err: err}
	}
}

// step is the step to render. It never touches the wizard while a publish
// is in flight.
func (m createModel) step() models.WizardStep {
	if m.publishing {
		return m.publishStep
	}
	return m.wizard.CurrentStep()
}

func (m createModel) controls() []control {
	return stepControls[m.step()]
}

func (m createModel) focused() (control, bool) {
	cs := m.controls()
	if m.focus < 0 || m.focus >= len(cs) {
		return control{}, false
	}
	return cs[m.focus], true
}

// refocus moves keyboard focus to the focused control's text input.
func (m *createModel) refocus() tea.Cmd {
	for f, ti := range m.inputs {
		ti.Blur()
		m.inputs[f] = ti
	}
	c, ok := m.focused()
	if !ok {
		return nil
	}
	ti, ok := m.inputs[c.field]
	if !ok {
		return nil
	}
	cmd := ti.Focus()
	m.inputs[c.field] = ti
	return cmd
}

// loadInputs copies the live draft into the form controls.
func (m *createModel) loadInputs() {
	d := m.wizard.Draft()
	for f, ti := range m.inputs {
		switch f {
		case models.FieldTags:
			ti.Reset()
		case models.FieldDescription, models.FieldDeliverables, models.FieldAcceptanceCriteria:
			ti.SetValue(richtext.PlainText(d.Get(f)))
			m.editors[f].SetMarkup(d.Get(f))
		default:
			ti.SetValue(d.Get(f))
		}
		m.inputs[f] = ti
	}
}

func (m *createModel) cycle(field models.DraftField, delta int) {
	var options []string
	switch field {
	case models.FieldSubject:
		options = models.Subjects
	case models.FieldIPRights:
		for _, r := range models.AllIPRights {
			options = append(options, string(r))
		}
	default:
		return
	}

	current := m.wizard.Draft().Get(field)
	idx := -1
	for i, o := range options {
		if o == current {
			idx = i
			break
		}
	}
	switch {
	case idx < 0 && delta < 0:
		idx = len(options) - 1
	case idx < 0:
		idx = 0
	default:
		idx = (idx + delta + len(options)) % len(options)
	}
	_ = m.wizard.UpdateField(field, options[idx])
}

func (m createModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(" questforge · new quest "))
	b.WriteString("\n\n")
	b.WriteString(m.renderSteps())
	b.WriteString("\n\n")

	body := m.renderBody()
	if m.width > 8 {
		body = panelStyle.Width(m.width - 4).Render(body)
	} else {
		body = panelStyle.Render(body)
	}
	b.WriteString(body)
	b.WriteString("\n")

	if n, ok := m.toasts.Last(); ok {
		b.WriteString(observability.RenderToast(n))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render(m.helpLine()))
	return b.String()
}

func (m createModel) renderSteps() string {
	current := m.step().Index()
	parts := make([]string, len(models.WizardSteps))
	for i, s := range models.WizardSteps {
		switch {
		case i == current:
			parts[i] = stepActive.Render(s.Label())
		case i < current:
			parts[i] = stepDone.Render(s.Label())
		default:
			parts[i] = stepPending.Render(s.Label())
		}
	}
	return strings.Join(parts, helpStyle.Render(" › "))
}

func (m createModel) renderBody() string {
	if m.publishing {
		return "Processing payment and publishing your quest…"
	}

	switch m.step() {
	case models.StepGuide:
		return strings.Join([]string{
			"Create a research quest in four parts:",
			"",
			"  1. Basics     title, subject, tags and a description",
			"  2. Standards  deliverables and acceptance criteria",
			"  3. Terms      budget, deadline and IP rights",
			"  4. Preview    review, agree to the protocol and pay",
			"",
			"Drafts can be saved at any time with ctrl+s and are restored",
			"the next time you run qf create.",
		}, "\n")
	case models.StepPreview:
		return m.renderPreview() + "\n\nctrl+p: agree to the publishing protocol and continue to payment"
	case models.StepPayment:
		return m.renderPayment()
	}

	d := m.wizard.Draft()
	var lines []string
	for i, c := range m.controls() {
		label := labelStyle.Render(c.label)
		if i == m.focus {
			label = focusedLabelStyle.Render("› " + c.label)
		}
		lines = append(lines, label)

		switch c.kind {
		case ctlSelect:
			value := d.Get(c.field)
			if value == "" {
				value = "(none)"
			}
			lines = append(lines, "  ‹ "+value+" ›")
		case ctlTags:
			var chips []string
			for _, t := range d.Tags {
				chips = append(chips, tagStyle.Render(t))
			}
			if len(chips) > 0 {
				lines = append(lines, "  "+strings.Join(chips, " "))
			}
			lines = append(lines, "  "+m.inputs[c.field].View())
		default:
			lines = append(lines, "  "+m.inputs[c.field].View())
		}
		lines = append(lines, "")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

func (m createModel) renderPreview() string {
	d := m.wizard.Draft()
	row := func(label, value string) string {
		if strings.TrimSpace(value) == "" {
			value = "-"
		}
		return fmt.Sprintf("%s %s", labelStyle.Render(fmt.Sprintf("%-20s", label)), value)
	}
	return strings.Join([]string{
		row("Title", d.Title),
		row("Subject", d.Subject),
		row("Tags", strings.Join(d.Tags, ", ")),
		row("Description", richtext.PlainText(d.Description)),
		row("Deliverables", richtext.PlainText(d.Deliverables)),
		row("Acceptance criteria", richtext.PlainText(d.AcceptanceCriteria)),
		row("Budget", d.Budget),
		row("Deadline", d.Deadline),
		row("IP rights", string(d.IPRights)),
	}, "\n")
}

func (m createModel) renderPayment() string {
	if m.published != nil {
		return fmt.Sprintf("Quest %s published.\n\nPayment transaction: %s\nBacker: %s\n\nesc: quit",
			m.published.ID, m.published.PaymentTx, m.published.Backer)
	}
	d := m.wizard.Draft()
	budget := m.wizard.Validators().Budget(d.Budget)
	return fmt.Sprintf("%s\n\nBudget to pay: %.2f\n\nctrl+p: connect wallet, pay and publish", m.renderPreview(), budget)
}

func (m createModel) helpLine() string {
	if m.publishing {
		return "publishing… | ctrl+c: quit"
	}
	switch m.step() {
	case models.StepGuide:
		return "ctrl+n: start | ctrl+x: clear draft | esc: quit"
	case models.StepPreview, models.StepPayment:
		return "ctrl+p: continue | ctrl+b: back | ctrl+s: save | ctrl+x: clear | esc: quit"
	}
	return "tab/shift+tab: field | ←/→: choose | enter: add tag | ctrl+n: next | ctrl+b: back | ctrl+s: save | ctrl+x: clear | esc: quit"
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a quest with the interactive wizard",
	Long: `Create a quest with the interactive wizard.

A previously saved draft is restored on start. Steps are gated: the wizard
only moves forward when the current step is complete.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if NewWizard == nil {
			return fmt.Errorf("wizard not initialized")
		}

		// The terminal belongs to the TUI; diagnostics go to a file.
		logger := Logger
		if DataDir != "" && LogLevel != nil {
			fileLogger, err := observability.NewLogger(*LogLevel, filepath.Join(DataDir, "qf.log"))
			if err == nil {
				logger = fileLogger
				defer func() { _ = fileLogger.Sync() }()
			}
		}

		sink := &toastSink{}
		w := NewWizard(sink, logger)
		if w.Mount() {
			sink.Notify(core.Notification{Level: core.LevelInfo, Kind: core.KindDraft, Message: "Restored your saved draft."})
		}
		var publisher core.QuestPublisher
		if NewPublisher != nil {
			publisher = NewPublisher(sink, logger)
		}

		p := tea.NewProgram(newCreateModel(w, publisher, sink), tea.WithAltScreen())
		final, err := p.Run()
		if err != nil {
			return fmt.Errorf("running wizard: %w", err)
		}
		if fm, ok := final.(createModel); ok {
			if fm.published != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Quest %s published.\n", fm.published.ID)
			}
			logger.Debug("wizard closed", zap.String("step", string(fm.step())))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createCmd)
}
