package models

import "time"

// StorageBackend selects the key-value store that holds the quest draft.
type StorageBackend string

const (
	BackendFile   StorageBackend = "file"
	BackendMemory StorageBackend = "memory"
	BackendRedis  StorageBackend = "redis"
)

// StorageConfig controls where the draft record lives.
type StorageConfig struct {
	Backend  StorageBackend `yaml:"backend" mapstructure:"backend"`
	DraftKey string         `yaml:"draft_key" mapstructure:"draft_key"`
}

// RedisConfig holds connection settings for the redis backend.
type RedisConfig struct {
	Addr     string        `yaml:"addr" mapstructure:"addr"`
	Password string        `yaml:"password,omitempty" mapstructure:"password"`
	DB       int           `yaml:"db" mapstructure:"db"`
	TTL      time.Duration `yaml:"ttl" mapstructure:"ttl"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// WizardConfig tunes validation behavior.
type WizardConfig struct {
	// StrictBudget rejects budgets with trailing non-numeric characters
	// instead of parsing their leading numeric prefix.
	StrictBudget bool `yaml:"strict_budget" mapstructure:"strict_budget"`
}

// WalletConfig configures the simulated wallet.
type WalletConfig struct {
	Address string        `yaml:"address" mapstructure:"address"`
	Latency time.Duration `yaml:"latency" mapstructure:"latency"`
}

// SlackConfig holds the webhook used for publish announcements.
type SlackConfig struct {
	WebhookURL string   `yaml:"webhook_url" mapstructure:"webhook_url"`
	Kinds      []string `yaml:"kinds" mapstructure:"kinds"`
}

// NotificationConfig groups notification sinks.
type NotificationConfig struct {
	Slack SlackConfig `yaml:"slack" mapstructure:"slack"`
}

// GlobalConfig holds settings read from .questforge.yaml via Viper.
type GlobalConfig struct {
	Storage         StorageConfig      `yaml:"storage" mapstructure:"storage"`
	Redis           RedisConfig        `yaml:"redis" mapstructure:"redis"`
	Wizard          WizardConfig       `yaml:"wizard" mapstructure:"wizard"`
	Wallet          WalletConfig       `yaml:"wallet" mapstructure:"wallet"`
	QuestIDPrefix   string             `yaml:"quest_id_prefix" mapstructure:"quest_id_prefix"`
	QuestIDPadWidth int                `yaml:"quest_id_pad_width" mapstructure:"quest_id_pad_width"`
	Notifications   NotificationConfig `yaml:"notifications" mapstructure:"notifications"`
	LogLevel        string             `yaml:"log_level" mapstructure:"log_level"`
}
