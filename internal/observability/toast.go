package observability

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/valter-silva-au/questforge/internal/core"
	"go.uber.org/zap"
)

var (
	toastSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true)
	toastError   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	toastInfo    = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))
)

// ToastStyle returns the style used to render a toast of the given level.
func ToastStyle(level core.NotificationLevel) lipgloss.Style {
	switch level {
	case core.LevelSuccess:
		return toastSuccess
	case core.LevelError:
		return toastError
	default:
		return toastInfo
	}
}

// ToastIcon returns the one-character marker for a level.
func ToastIcon(level core.NotificationLevel) string {
	switch level {
	case core.LevelSuccess:
		return "✓"
	case core.LevelError:
		return "✗"
	default:
		return "•"
	}
}

// RenderToast formats a notification as a single styled line.
func RenderToast(n core.Notification) string {
	return ToastStyle(n.Level).Render(ToastIcon(n.Level) + " " + n.Message)
}

// TerminalToaster writes each notification as a styled line to w.
type TerminalToaster struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTerminalToaster creates a TerminalToaster writing to w.
func NewTerminalToaster(w io.Writer) *TerminalToaster {
	return &TerminalToaster{w: w}
}

func (t *TerminalToaster) Notify(n core.Notification) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.w, RenderToast(n))
}

// SlackToaster posts selected notifications to a Slack webhook. Delivery
// failures are logged and otherwise ignored.
type SlackToaster struct {
	webhookURL string
	kinds      map[core.NotificationKind]bool
	client     *http.Client
	logger     *zap.Logger
}

// NewSlackToaster creates a SlackToaster that forwards notifications whose
// kind is in kinds. An empty kinds list forwards everything.
func NewSlackToaster(webhookURL string, kinds []string, logger *zap.Logger) *SlackToaster {
	if logger == nil {
		logger = zap.NewNop()
	}
	set := make(map[core.NotificationKind]bool, len(kinds))
	for _, k := range kinds {
		set[core.NotificationKind(k)] = true
	}
	return &SlackToaster{
		webhookURL: webhookURL,
		kinds:      set,
		client:     &http.Client{Timeout: 5 * time.Second},
		logger:     logger,
	}
}

type slackMessage struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type string     `json:"type"`
	Text *slackText `json:"text,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (s *SlackToaster) Notify(n core.Notification) {
	if len(s.kinds) > 0 && !s.kinds[n.Kind] {
		return
	}
	if err := s.send(n); err != nil {
		s.logger.Warn("slack notification failed", zap.String("kind", string(n.Kind)), zap.Error(err))
	}
}

func (s *SlackToaster) send(n core.Notification) error {
	body, err := json.Marshal(buildSlackMessage(n))
	if err != nil {
		return fmt.Errorf("marshaling slack message: %w", err)
	}

	resp, err := s.client.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("posting to slack webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func buildSlackMessage(n core.Notification) slackMessage {
	return slackMessage{Blocks: []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: "questforge"},
		},
		{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: fmt.Sprintf("%s *[%s]* %s", levelEmoji(n.Level), n.Kind, n.Message)},
		},
	}}
}

func levelEmoji(level core.NotificationLevel) string {
	switch level {
	case core.LevelSuccess:
		return "\U0001f7e2"
	case core.LevelError:
		return "\U0001f534"
	default:
		return "\U0001f535"
	}
}

// MultiToaster fans a notification out to every sink in order.
type MultiToaster []core.Notifier

func (m MultiToaster) Notify(n core.Notification) {
	for _, sink := range m {
		if sink != nil {
			sink.Notify(n)
		}
	}
}
