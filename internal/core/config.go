// Package core contains the business logic for questforge: the quest-creation
// wizard state machine, its step validators, draft persistence, publishing,
// and configuration loading.
package core

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/valter-silva-au/questforge/pkg/models"
	"go.uber.org/zap/zapcore"
)

// ConfigFileName is the base name (without extension) of the global config.
const ConfigFileName = ".questforge"

// validPrefixPattern matches uppercase alphanumeric prefixes between 1 and 10 characters.
var validPrefixPattern = regexp.MustCompile(`^[A-Z0-9]{1,10}$`)

// ConfigurationManager defines the interface for loading and validating the
// .questforge.yaml configuration.
type ConfigurationManager interface {
	LoadGlobalConfig() (*models.GlobalConfig, error)
	ValidateConfig(cfg *models.GlobalConfig) error
}

// viperConfigManager implements ConfigurationManager using Viper.
type viperConfigManager struct {
	basePath string
}

// NewConfigurationManager creates a ConfigurationManager that reads
// .questforge.yaml from basePath. QF_* environment variables override file
// values (QF_STORAGE_BACKEND, QF_REDIS_ADDR, ...).
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// DefaultGlobalConfig returns a GlobalConfig populated with sensible defaults.
func DefaultGlobalConfig() *models.GlobalConfig {
	return &models.GlobalConfig{
		Storage: models.StorageConfig{
			Backend:  models.BackendFile,
			DraftKey: "quest_draft",
		},
		Redis: models.RedisConfig{
			Addr:    "localhost:6379",
			Timeout: 2 * time.Second,
		},
		Wallet: models.WalletConfig{
			Address: "0x0000000000000000000000000000000000000000",
			Latency: 1500 * time.Millisecond,
		},
		QuestIDPrefix:   "QUEST",
		QuestIDPadWidth: 5,
		Notifications: models.NotificationConfig{
			Slack: models.SlackConfig{Kinds: []string{string(KindPublish)}},
		},
		LogLevel: "info",
	}
}

// LoadGlobalConfig reads .questforge.yaml from the base path. If the file
// does not exist, defaults (plus environment overrides) are returned.
func (cm *viperConfigManager) LoadGlobalConfig() (*models.GlobalConfig, error) {
	cfg := DefaultGlobalConfig()

	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)
	v.SetEnvPrefix("QF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("storage.backend", string(cfg.Storage.Backend))
	v.SetDefault("storage.draft_key", cfg.Storage.DraftKey)
	v.SetDefault("redis.addr", cfg.Redis.Addr)
	v.SetDefault("redis.password", cfg.Redis.Password)
	v.SetDefault("redis.db", cfg.Redis.DB)
	v.SetDefault("redis.ttl", cfg.Redis.TTL)
	v.SetDefault("redis.timeout", cfg.Redis.Timeout)
	v.SetDefault("wizard.strict_budget", cfg.Wizard.StrictBudget)
	v.SetDefault("wallet.address", cfg.Wallet.Address)
	v.SetDefault("wallet.latency", cfg.Wallet.Latency)
	v.SetDefault("quest_id.prefix", cfg.QuestIDPrefix)
	v.SetDefault("quest_id.pad_width", cfg.QuestIDPadWidth)
	v.SetDefault("notifications.slack.webhook_url", "")
	v.SetDefault("notifications.slack.kinds", cfg.Notifications.Slack.Kinds)
	v.SetDefault("log.level", cfg.LogLevel)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading %s.yaml: %w", ConfigFileName, err)
		}
	}

	cfg.Storage.Backend = models.StorageBackend(strings.ToLower(v.GetString("storage.backend")))
	cfg.Storage.DraftKey = v.GetString("storage.draft_key")
	cfg.Redis.Addr = v.GetString("redis.addr")
	cfg.Redis.Password = v.GetString("redis.password")
	cfg.Redis.DB = v.GetInt("redis.db")
	cfg.Redis.TTL = v.GetDuration("redis.ttl")
	cfg.Redis.Timeout = v.GetDuration("redis.timeout")
	cfg.Wizard.StrictBudget = v.GetBool("wizard.strict_budget")
	cfg.Wallet.Address = v.GetString("wallet.address")
	cfg.Wallet.Latency = v.GetDuration("wallet.latency")
	cfg.QuestIDPrefix = v.GetString("quest_id.prefix")
	// Use IsSet to distinguish "not set" (use default 5) from "explicitly set to 0".
	if v.IsSet("quest_id.pad_width") {
		cfg.QuestIDPadWidth = v.GetInt("quest_id.pad_width")
	}
	cfg.Notifications.Slack.WebhookURL = v.GetString("notifications.slack.webhook_url")
	cfg.Notifications.Slack.Kinds = v.GetStringSlice("notifications.slack.kinds")
	cfg.LogLevel = v.GetString("log.level")

	return cfg, nil
}

// validBackends is the set of supported storage backends.
var validBackends = map[models.StorageBackend]bool{
	models.BackendFile:   true,
	models.BackendMemory: true,
	models.BackendRedis:  true,
}

// ValidateConfig checks the configuration for invalid values and returns an
// error listing every problem found.
func (cm *viperConfigManager) ValidateConfig(cfg *models.GlobalConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if !validBackends[cfg.Storage.Backend] {
		errs = append(errs, fmt.Sprintf("storage.backend %q must be one of file, memory, redis", cfg.Storage.Backend))
	}
	if strings.TrimSpace(cfg.Storage.DraftKey) == "" {
		errs = append(errs, "storage.draft_key must not be empty")
	}
	if cfg.Storage.Backend == models.BackendRedis && cfg.Redis.Addr == "" {
		errs = append(errs, "redis.addr must be set when storage.backend is redis")
	}
	if cfg.Redis.TTL < 0 {
		errs = append(errs, "redis.ttl must not be negative")
	}
	if !validPrefixPattern.MatchString(cfg.QuestIDPrefix) {
		errs = append(errs, fmt.Sprintf("quest_id.prefix %q must be 1-10 uppercase alphanumeric characters", cfg.QuestIDPrefix))
	}
	if cfg.QuestIDPadWidth < 0 || cfg.QuestIDPadWidth > 10 {
		errs = append(errs, "quest_id.pad_width must be between 0 and 10")
	}
	if cfg.Wallet.Latency < 0 {
		errs = append(errs, "wallet.latency must not be negative")
	}
	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		errs = append(errs, fmt.Sprintf("log.level %q is not a valid level", cfg.LogLevel))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}
