package cli

import (
	"github.com/valter-silva-au/questforge/internal/core"
	"github.com/valter-silva-au/questforge/internal/observability"
	"github.com/valter-silva-au/questforge/internal/storage"
	"go.uber.org/zap"
)

// WizardFactory builds a fresh, unmounted wizard whose toasts go to notifier
// (plus any sinks configured globally). A nil logger uses Logger.
type WizardFactory func(notifier core.Notifier, logger *zap.Logger) *core.QuestWizard

// PublisherFactory builds a publisher reporting to notifier.
type PublisherFactory func(notifier core.Notifier, logger *zap.Logger) core.QuestPublisher

// Service instances, set during app initialization in app.go.
var (
	BasePath string
	DataDir  string

	Logger   *zap.Logger
	LogLevel *zap.AtomicLevel

	DraftStore core.DraftStore
	Quests     storage.QuestRegistry
	EventLog   observability.EventLog

	NewWizard    WizardFactory
	NewPublisher PublisherFactory
)
