// Package internal provides the App struct that wires all components of
// questforge together and initializes the CLI layer.
package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"
	"github.com/valter-silva-au/questforge/internal/cli"
	"github.com/valter-silva-au/questforge/internal/core"
	"github.com/valter-silva-au/questforge/internal/integration"
	"github.com/valter-silva-au/questforge/internal/observability"
	"github.com/valter-silva-au/questforge/internal/storage"
	"github.com/valter-silva-au/questforge/pkg/models"
	"go.uber.org/zap"
)

// DataDirName is the directory under the base path holding drafts, quests,
// counters and logs.
const DataDirName = ".questforge"

// App holds all service dependencies for questforge.
type App struct {
	BasePath string
	DataDir  string
	Config   *models.GlobalConfig

	// Configuration
	ConfigMgr core.ConfigurationManager

	// Observability
	Logger   *zap.Logger
	LogLevel zap.AtomicLevel
	EventLog observability.EventLog
	Slack    *observability.SlackToaster

	// Storage layer
	KV         core.KeyValueStore
	DraftStore core.DraftStore
	Quests     storage.QuestRegistry

	// Core services
	Validators *core.StepValidators
	IDGen      core.QuestIDGenerator
	Wallet     *integration.SimulatedWallet

	redis *redis.Client
}

// NewApp creates and wires all components of questforge. basePath is the
// directory holding .questforge.yaml (typically the current directory).
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath, DataDir: filepath.Join(basePath, DataDirName)}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.LoadGlobalConfig()
	if err != nil {
		return nil, err
	}
	if err := app.ConfigMgr.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	app.Config = cfg

	if err := os.MkdirAll(app.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// --- Observability ---
	app.LogLevel, err = observability.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	app.Logger, err = observability.NewLogger(app.LogLevel)
	if err != nil {
		return nil, err
	}

	app.EventLog, err = observability.NewJSONLEventLog(filepath.Join(app.DataDir, "events.jsonl"))
	if err != nil {
		// Non-fatal: run without the event log.
		app.Logger.Warn("event log disabled", zap.Error(err))
		app.EventLog = nil
	}
	if cfg.Notifications.Slack.WebhookURL != "" {
		app.Slack = observability.NewSlackToaster(cfg.Notifications.Slack.WebhookURL, cfg.Notifications.Slack.Kinds, app.Logger)
	}

	// --- Storage layer ---
	switch cfg.Storage.Backend {
	case models.BackendMemory:
		app.KV = storage.NewMemoryKVStore()
	case models.BackendRedis:
		app.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		app.KV = storage.NewRedisKVStore(app.redis, "questforge", cfg.Redis.TTL, cfg.Redis.Timeout)
	default:
		app.KV = storage.NewFileKVStore(filepath.Join(app.DataDir, "localstore.yaml"))
	}
	app.DraftStore = core.NewDraftStore(app.KV, cfg.Storage.DraftKey)

	app.Quests = storage.NewQuestRegistry(app.DataDir)
	if err := app.Quests.Load(); err != nil {
		app.Logger.Warn("loading quest registry", zap.Error(err))
	}

	// --- Core services ---
	parse := core.ParseBudgetPrefix
	if cfg.Wizard.StrictBudget {
		parse = core.ParseBudgetStrict
	}
	app.Validators = core.NewStepValidators(parse)
	app.IDGen = core.NewQuestIDGenerator(app.DataDir, cfg.QuestIDPrefix, cfg.QuestIDPadWidth)
	app.Wallet = integration.NewSimulatedWallet(cfg.Wallet.Address, cfg.Wallet.Latency, app.Logger)

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.DataDir = app.DataDir
	cli.Logger = app.Logger
	cli.LogLevel = &app.LogLevel
	cli.DraftStore = app.DraftStore
	cli.Quests = app.Quests
	cli.EventLog = app.EventLog
	cli.NewWizard = app.NewWizard
	cli.NewPublisher = app.NewPublisher

	return app, nil
}

// NewWizard builds an unmounted wizard reporting to notifier and to any
// globally configured sinks.
func (a *App) NewWizard(notifier core.Notifier, logger *zap.Logger) *core.QuestWizard {
	if logger == nil {
		logger = a.Logger
	}
	return core.NewQuestWizard(a.DraftStore, core.WizardOptions{
		Validators: a.Validators,
		Notifier:   a.notifier(notifier),
		Events:     a.eventLogger(),
		Logger:     logger,
	})
}

// NewPublisher builds a publisher that pays from the configured wallet.
func (a *App) NewPublisher(notifier core.Notifier, logger *zap.Logger) core.QuestPublisher {
	if logger == nil {
		logger = a.Logger
	}
	return core.NewQuestPublisher(a.IDGen, a.Quests, a.Wallet, a.notifier(notifier), a.eventLogger(), logger)
}

func (a *App) notifier(n core.Notifier) core.Notifier {
	if a.Slack == nil {
		return n
	}
	return observability.MultiToaster{n, a.Slack}
}

// eventLogger avoids handing core a non-nil interface wrapping a nil log.
func (a *App) eventLogger() core.EventLogger {
	if a.EventLog == nil {
		return nil
	}
	return a.EventLog
}

// Close releases resources held by the App: the event log file handle and
// the redis connection pool. It is safe to call on a partially wired App.
func (a *App) Close() error {
	var firstErr error
	if a.EventLog != nil {
		if err := a.EventLog.Close(); err != nil {
			firstErr = err
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return firstErr
}

// ResolveBasePath determines the questforge base path. It checks the QF_HOME
// env var, then walks up from the current directory looking for
// .questforge.yaml, then falls back to the current directory.
func ResolveBasePath() string {
	if home := os.Getenv("QF_HOME"); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, core.ConfigFileName+".yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	cwd, _ := os.Getwd()
	return cwd
}
