// Package mcp provides an MCP (Model Context Protocol) server that lets AI
// assistants drive the quest-creation wizard as a set of tools.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valter-silva-au/questforge/internal/core"
	"github.com/valter-silva-au/questforge/internal/richtext"
	"github.com/valter-silva-au/questforge/pkg/models"
)

// QuestLister is the read side of the quest registry.
type QuestLister interface {
	ListQuests(filter models.QuestFilter) ([]models.Quest, error)
}

// ToastCollector buffers wizard notifications until the next tool result
// drains them.
type ToastCollector struct {
	mu      sync.Mutex
	pending []core.Notification
}

// NewToastCollector creates an empty collector.
func NewToastCollector() *ToastCollector {
	return &ToastCollector{}
}

func (c *ToastCollector) Notify(n core.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, n)
}

// Drain returns and forgets every buffered notification.
func (c *ToastCollector) Drain() []core.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.pending
	c.pending = nil
	return out
}

// Deps are the collaborators the server exposes. Publisher and Quests may be
// nil, in which case their tools report an error.
type Deps struct {
	Wizard    *core.QuestWizard
	Publisher core.QuestPublisher
	Quests    QuestLister
	Toasts    *ToastCollector
}

// Server exposes one wizard session as MCP tools. Tool calls are serialized
// because the wizard is not safe for concurrent use.
type Server struct {
	server *gomcp.Server

	mu        sync.Mutex
	wizard    *core.QuestWizard
	publisher core.QuestPublisher
	quests    QuestLister
	toasts    *ToastCollector
}

// NewServer creates a new MCP server around an already mounted wizard.
func NewServer(deps Deps, version string) *Server {
	if version == "" {
		version = "dev"
	}
	if deps.Toasts == nil {
		deps.Toasts = NewToastCollector()
	}

	s := &Server{
		wizard:    deps.Wizard,
		publisher: deps.Publisher,
		quests:    deps.Quests,
		toasts:    deps.Toasts,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "questforge", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client disconnects
// or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type emptyInput struct{}

type draftOutput struct {
	Title              string   `json:"title"`
	Subject            string   `json:"subject"`
	Tags               []string `json:"tags"`
	Description        string   `json:"description"`
	Deliverables       string   `json:"deliverables"`
	AcceptanceCriteria string   `json:"acceptanceCriteria"`
	Budget             string   `json:"budget"`
	Deadline           string   `json:"deadline"`
	IPRights           string   `json:"ipRights"`
	Attachments        []string `json:"attachments"`
}

type toastOutput struct {
	Level   string `json:"level"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type wizardStateOutput struct {
	SessionID string        `json:"session_id"`
	Step      string        `json:"step"`
	StepIndex int           `json:"step_index"`
	Steps     []string      `json:"steps"`
	Draft     draftOutput   `json:"draft"`
	Toasts    []toastOutput `json:"toasts"`
}

type updateFieldInput struct {
	Field string `json:"field" jsonschema:"the draft field: title, subject, tags, description, deliverables, acceptanceCriteria, budget, deadline, ipRights"`
	Value string `json:"value" jsonschema:"the new value; tags are comma-separated, ipRights is WORK_FOR_HIRE, OPEN_SOURCE or ATTRIBUTION"`
}

type tagInput struct {
	Tag string `json:"tag" jsonschema:"the tag to add or remove"`
}

type setStepInput struct {
	Step string `json:"step" jsonschema:"the step to jump to: guide, basics, standards, terms, preview, payment"`
}

type stepResultOutput struct {
	Advanced      bool              `json:"advanced"`
	Message       string            `json:"message,omitempty"`
	MissingFields []string          `json:"missing_fields,omitempty"`
	State         wizardStateOutput `json:"state"`
}

type questOutput struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Subject     string   `json:"subject"`
	Tags        []string `json:"tags"`
	Budget      float64  `json:"budget"`
	Deadline    string   `json:"deadline"`
	IPRights    string   `json:"ip_rights"`
	Backer      string   `json:"backer"`
	PaymentTx   string   `json:"payment_tx"`
	Published   string   `json:"published"`
	Description string   `json:"description"`
}

type publishOutput struct {
	Quest  questOutput   `json:"quest"`
	Toasts []toastOutput `json:"toasts"`
}

type listQuestsInput struct {
	Subject  string   `json:"subject,omitempty" jsonschema:"only quests in this subject (case-insensitive)"`
	Tags     []string `json:"tags,omitempty" jsonschema:"only quests carrying all of these tags"`
	IPRights string   `json:"ip_rights,omitempty" jsonschema:"only quests with this IP rights option"`
}

type listQuestsOutput struct {
	Quests []questOutput `json:"quests"`
	Count  int           `json:"count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_wizard_state",
		Description: "Get the current wizard step and the live quest draft.",
	}, s.handleGetState)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "update_field",
		Description: "Overwrite one draft field. No validation happens until next_step.",
	}, s.handleUpdateField)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "add_tag",
		Description: "Add a tag to the draft. Blank and duplicate tags are ignored.",
	}, s.handleAddTag)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "remove_tag",
		Description: "Remove a tag from the draft.",
	}, s.handleRemoveTag)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "next_step",
		Description: "Validate the current step and advance. Returns advanced=false with a message when required fields are missing.",
	}, s.handleNextStep)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "prev_step",
		Description: "Go back one step without validation.",
	}, s.handlePrevStep)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "set_step",
		Description: "Jump directly to a step without validation (e.g. payment after agreeing to the publishing protocol).",
	}, s.handleSetStep)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "save_draft",
		Description: "Persist the draft (without attachments) so it can be resumed later.",
	}, s.handleSaveDraft)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "clear_draft",
		Description: "Delete the saved draft and reset every field. The step is unchanged.",
	}, s.handleClearDraft)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "publish_quest",
		Description: "From the payment step: pay the budget from the wallet, publish the quest and clear the draft.",
	}, s.handlePublish)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_quests",
		Description: "List published quests with optional subject, tag and IP rights filters.",
	}, s.handleListQuests)
}

// --- Tool handlers ---

func (s *Server) handleGetState(_ context.Context, _ *gomcp.CallToolRequest, _ emptyInput) (*gomcp.CallToolResult, wizardStateOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return nil, s.state(), nil
}

func (s *Server) handleUpdateField(_ context.Context, _ *gomcp.CallToolRequest, input updateFieldInput) (*gomcp.CallToolResult, wizardStateOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	field, ok := models.ParseDraftField(input.Field)
	if !ok {
		return errorResult(fmt.Sprintf("unknown field %q: must be one of %s", input.Field, fieldList())), wizardStateOutput{}, nil
	}

	value := input.Value
	if isRichField(field) {
		value = richtext.Sanitize(value)
	}
	if err := s.wizard.UpdateField(field, value); err != nil {
		return errorResult(fmt.Sprintf("updating %s: %s", field, err)), wizardStateOutput{}, nil
	}
	return nil, s.state(), nil
}

func (s *Server) handleAddTag(_ context.Context, _ *gomcp.CallToolRequest, input tagInput) (*gomcp.CallToolResult, wizardStateOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.wizard.AddTag(input.Tag)
	return nil, s.state(), nil
}

func (s *Server) handleRemoveTag(_ context.Context, _ *gomcp.CallToolRequest, input tagInput) (*gomcp.CallToolResult, wizardStateOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.wizard.RemoveTag(input.Tag)
	return nil, s.state(), nil
}

func (s *Server) handleNextStep(_ context.Context, _ *gomcp.CallToolRequest, _ emptyInput) (*gomcp.CallToolResult, stepResultOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.wizard.CurrentStep()
	err := s.wizard.NextStep()

	out := stepResultOutput{}
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		out.Message = verr.Message
		for _, f := range verr.Fields {
			out.MissingFields = append(out.MissingFields, string(f))
		}
	} else if err != nil {
		return errorResult(fmt.Sprintf("advancing wizard: %s", err)), stepResultOutput{}, nil
	}
	out.Advanced = s.wizard.CurrentStep() != before
	out.State = s.state()
	return nil, out, nil
}

func (s *Server) handlePrevStep(_ context.Context, _ *gomcp.CallToolRequest, _ emptyInput) (*gomcp.CallToolResult, wizardStateOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.wizard.PrevStep()
	return nil, s.state(), nil
}

func (s *Server) handleSetStep(_ context.Context, _ *gomcp.CallToolRequest, input setStepInput) (*gomcp.CallToolResult, wizardStateOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	step, err := models.ParseWizardStep(input.Step)
	if err != nil {
		return errorResult(err.Error()), wizardStateOutput{}, nil
	}
	if err := s.wizard.SetCurrentStep(step); err != nil {
		return errorResult(err.Error()), wizardStateOutput{}, nil
	}
	return nil, s.state(), nil
}

func (s *Server) handleSaveDraft(_ context.Context, _ *gomcp.CallToolRequest, _ emptyInput) (*gomcp.CallToolResult, wizardStateOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.wizard.SaveDraft(); err != nil {
		s.toasts.Drain()
		return errorResult(fmt.Sprintf("saving draft: %s", err)), wizardStateOutput{}, nil
	}
	return nil, s.state(), nil
}

func (s *Server) handleClearDraft(_ context.Context, _ *gomcp.CallToolRequest, _ emptyInput) (*gomcp.CallToolResult, wizardStateOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.wizard.ClearDraft(); err != nil {
		return errorResult(fmt.Sprintf("clearing saved draft (fields were reset): %s", err)), wizardStateOutput{}, nil
	}
	return nil, s.state(), nil
}

func (s *Server) handlePublish(ctx context.Context, _ *gomcp.CallToolRequest, _ emptyInput) (*gomcp.CallToolResult, publishOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.publisher == nil {
		return errorResult("publishing not available"), publishOutput{}, nil
	}
	quest, err := s.publisher.Publish(ctx, s.wizard)
	if err != nil {
		s.toasts.Drain()
		return errorResult(fmt.Sprintf("publishing quest: %s", err)), publishOutput{}, nil
	}
	return nil, publishOutput{Quest: questToOutput(*quest), Toasts: toastsToOutput(s.toasts.Drain())}, nil
}

func (s *Server) handleListQuests(_ context.Context, _ *gomcp.CallToolRequest, input listQuestsInput) (*gomcp.CallToolResult, listQuestsOutput, error) {
	if s.quests == nil {
		return errorResult("quest registry not available"), listQuestsOutput{}, nil
	}

	rights, err := models.ParseIPRights(input.IPRights)
	if err != nil {
		return errorResult(err.Error()), listQuestsOutput{}, nil
	}

	s.mu.Lock()
	quests, err := s.quests.ListQuests(models.QuestFilter{
		Subject:  input.Subject,
		Tags:     input.Tags,
		IPRights: rights,
	})
	s.mu.Unlock()
	if err != nil {
		return errorResult(fmt.Sprintf("listing quests: %s", err)), listQuestsOutput{}, nil
	}

	out := listQuestsOutput{
		Quests: make([]questOutput, len(quests)),
		Count:  len(quests),
	}
	for i, q := range quests {
		out.Quests[i] = questToOutput(q)
	}
	return nil, out, nil
}

// --- Helpers ---

// state snapshots the wizard and drains pending toasts. Callers hold s.mu.
func (s *Server) state() wizardStateOutput {
	d := s.wizard.Draft()
	step := s.wizard.CurrentStep()

	steps := make([]string, len(models.WizardSteps))
	for i, st := range models.WizardSteps {
		steps[i] = string(st)
	}

	out := wizardStateOutput{
		SessionID: s.wizard.SessionID(),
		Step:      string(step),
		StepIndex: step.Index(),
		Steps:     steps,
		Draft: draftOutput{
			Title:              d.Title,
			Subject:            d.Subject,
			Tags:               append([]string{}, d.Tags...),
			Description:        d.Description,
			Deliverables:       d.Deliverables,
			AcceptanceCriteria: d.AcceptanceCriteria,
			Budget:             d.Budget,
			Deadline:           d.Deadline,
			IPRights:           string(d.IPRights),
			Attachments:        []string{},
		},
		Toasts: toastsToOutput(s.toasts.Drain()),
	}
	for _, a := range d.Attachments {
		out.Draft.Attachments = append(out.Draft.Attachments, a.Name)
	}
	return out
}

func toastsToOutput(ns []core.Notification) []toastOutput {
	out := make([]toastOutput, len(ns))
	for i, n := range ns {
		out[i] = toastOutput{Level: string(n.Level), Kind: string(n.Kind), Message: n.Message}
	}
	return out
}

func questToOutput(q models.Quest) questOutput {
	tags := q.Tags
	if tags == nil {
		tags = []string{}
	}
	return questOutput{
		ID:          q.ID,
		Title:       q.Title,
		Subject:     q.Subject,
		Tags:        tags,
		Budget:      q.Budget,
		Deadline:    q.Deadline,
		IPRights:    string(q.IPRights),
		Backer:      q.Backer,
		PaymentTx:   q.PaymentTx,
		Published:   q.Published.Format(time.RFC3339),
		Description: richtext.PlainText(q.Description),
	}
}

func isRichField(f models.DraftField) bool {
	return f == models.FieldDescription || f == models.FieldDeliverables || f == models.FieldAcceptanceCriteria
}

func fieldList() string {
	names := make([]string, len(models.DraftFields))
	for i, f := range models.DraftFields {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
