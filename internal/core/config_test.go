package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/questforge/pkg/models"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestLoadGlobalConfig_Defaults_WhenNoFile(t *testing.T) {
	cm := NewConfigurationManager(t.TempDir())

	cfg, err := cm.LoadGlobalConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Storage.Backend != models.BackendFile {
		t.Errorf("Storage.Backend = %q, want file", cfg.Storage.Backend)
	}
	if cfg.Storage.DraftKey != "quest_draft" {
		t.Errorf("Storage.DraftKey = %q, want quest_draft", cfg.Storage.DraftKey)
	}
	if cfg.Wizard.StrictBudget {
		t.Error("Wizard.StrictBudget = true, want false")
	}
	if cfg.Wallet.Latency != 1500*time.Millisecond {
		t.Errorf("Wallet.Latency = %v, want 1.5s", cfg.Wallet.Latency)
	}
	if cfg.QuestIDPrefix != "QUEST" || cfg.QuestIDPadWidth != 5 {
		t.Errorf("quest id = %s/%d, want QUEST/5", cfg.QuestIDPrefix, cfg.QuestIDPadWidth)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if err := cm.ValidateConfig(cfg); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadGlobalConfig_ReadsFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".questforge.yaml", `
storage:
  backend: redis
  draft_key: my_draft
redis:
  addr: cache:6380
  db: 2
  ttl: 24h
wizard:
  strict_budget: true
wallet:
  address: "0xabc"
  latency: 10ms
quest_id:
  prefix: RB
  pad_width: 3
notifications:
  slack:
    webhook_url: https://hooks.example.com/x
    kinds: [publish, draft]
log:
  level: debug
`)

	cfg, err := NewConfigurationManager(dir).LoadGlobalConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Storage.Backend != models.BackendRedis {
		t.Errorf("Storage.Backend = %q, want redis", cfg.Storage.Backend)
	}
	if cfg.Storage.DraftKey != "my_draft" {
		t.Errorf("Storage.DraftKey = %q", cfg.Storage.DraftKey)
	}
	if cfg.Redis.Addr != "cache:6380" || cfg.Redis.DB != 2 || cfg.Redis.TTL != 24*time.Hour {
		t.Errorf("Redis = %+v", cfg.Redis)
	}
	if cfg.Redis.Timeout != 2*time.Second {
		t.Errorf("Redis.Timeout = %v, want default 2s", cfg.Redis.Timeout)
	}
	if !cfg.Wizard.StrictBudget {
		t.Error("Wizard.StrictBudget = false, want true")
	}
	if cfg.Wallet.Address != "0xabc" || cfg.Wallet.Latency != 10*time.Millisecond {
		t.Errorf("Wallet = %+v", cfg.Wallet)
	}
	if cfg.QuestIDPrefix != "RB" || cfg.QuestIDPadWidth != 3 {
		t.Errorf("quest id = %s/%d, want RB/3", cfg.QuestIDPrefix, cfg.QuestIDPadWidth)
	}
	if cfg.Notifications.Slack.WebhookURL != "https://hooks.example.com/x" {
		t.Errorf("Slack.WebhookURL = %q", cfg.Notifications.Slack.WebhookURL)
	}
	if len(cfg.Notifications.Slack.Kinds) != 2 {
		t.Errorf("Slack.Kinds = %v", cfg.Notifications.Slack.Kinds)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestLoadGlobalConfig_ExplicitZeroPadWidth(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".questforge.yaml", "quest_id:\n  pad_width: 0\n")

	cfg, err := NewConfigurationManager(dir).LoadGlobalConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.QuestIDPadWidth != 0 {
		t.Errorf("QuestIDPadWidth = %d, want 0", cfg.QuestIDPadWidth)
	}
}

func TestLoadGlobalConfig_EnvOverride(t *testing.T) {
	t.Setenv("QF_STORAGE_BACKEND", "memory")
	cfg, err := NewConfigurationManager(t.TempDir()).LoadGlobalConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Storage.Backend != models.BackendMemory {
		t.Errorf("Storage.Backend = %q, want memory", cfg.Storage.Backend)
	}
}

func TestLoadGlobalConfig_InvalidYAML_ReturnsError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".questforge.yaml", "storage: [unclosed\n")

	if _, err := NewConfigurationManager(dir).LoadGlobalConfig(); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestValidateConfig_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *models.GlobalConfig)
		want   string
	}{
		{"backend", func(c *models.GlobalConfig) { c.Storage.Backend = "sqlite" }, "storage.backend"},
		{"draft key", func(c *models.GlobalConfig) { c.Storage.DraftKey = " " }, "storage.draft_key"},
		{"redis addr", func(c *models.GlobalConfig) {
			c.Storage.Backend = models.BackendRedis
			c.Redis.Addr = ""
		}, "redis.addr"},
		{"ttl", func(c *models.GlobalConfig) { c.Redis.TTL = -time.Second }, "redis.ttl"},
		{"prefix", func(c *models.GlobalConfig) { c.QuestIDPrefix = "quest" }, "quest_id.prefix"},
		{"pad width", func(c *models.GlobalConfig) { c.QuestIDPadWidth = 11 }, "quest_id.pad_width"},
		{"latency", func(c *models.GlobalConfig) { c.Wallet.Latency = -1 }, "wallet.latency"},
		{"log level", func(c *models.GlobalConfig) { c.LogLevel = "loud" }, "log.level"},
	}

	cm := NewConfigurationManager(t.TempDir())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultGlobalConfig()
			tt.mutate(cfg)
			err := cm.ValidateConfig(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestValidateConfig_NilConfig_ReturnsError(t *testing.T) {
	if err := NewConfigurationManager(".").ValidateConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}
