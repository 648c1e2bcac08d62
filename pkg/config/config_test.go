package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validDoc = `
application:
  name: bridgeclaw
  version: 1.2.3
  description: test bridge
  debug: false
  healthcheck_interval: 60
  recoverer_delay: 10
  history_size_limit: 10
api:
  enabled: false
logger:
  level: info
  file_max_bytes: 10485760
  file_backup_count: 3
  console: true
telegram:
  phone: "+10000000000"
  password: hunter2
  api_id: 12345
  api_hash: abcdef0123456789
  log_unhandled_conversations: false
discord:
  bot_token: discord-token
  built_in_roles: [everyone]
  max_latency: 0.5
openai:
  enabled: false
telegram_forwarders:
  - forwarder_name: news
    tg_channel_id: -1001234
    discord_channel_id: 987654
    forward_everything: true
    mention_everyone: false
  - forwarder_name: alerts
    tg_channel_id: -1001234
    discord_channel_id: 987655
    forward_everything: false
    mention_everyone: false
    forward_hashtags:
      - name: urgent
        override_mention_everyone: true
`

func TestParseValidDocument(t *testing.T) {
	cfg, err := Parse([]byte(validDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.App.Name != "bridgeclaw" || cfg.App.HistorySizeLimit != 10 {
		t.Errorf("application section: %+v", cfg.App)
	}
	if cfg.Telegram.APIID != 12345 {
		t.Errorf("telegram api_id: got %d", cfg.Telegram.APIID)
	}
	if cfg.Rules() == nil || cfg.Rules().Len() != 2 {
		t.Fatalf("rule set: %+v", cfg.Rules())
	}
	fw, ok := cfg.Rules().ByName("alerts")
	if !ok {
		t.Fatal("forwarder alerts missing from rule set")
	}
	if len(fw.ForwardHashtags) != 1 || fw.ForwardHashtags[0].Name != "urgent" || !fw.ForwardHashtags[0].OverrideMentionEveryone {
		t.Errorf("forward_hashtags: %+v", fw.ForwardHashtags)
	}
}

func TestParseMissingSectionsAreStructural(t *testing.T) {
	doc := `
application:
  name: x
logger:
  level: info
telegram_forwarders: []
`
	_, err := Parse([]byte(doc))
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %v", err)
	}
	if len(cfgErr.Structural) != 2 {
		t.Fatalf("structural errors: %v", cfgErr.Structural)
	}
	if len(cfgErr.Violations) != 0 {
		t.Errorf("missing sections must not produce semantic violations: %v", cfgErr.Violations)
	}
}

func TestParseUnparseableDocument(t *testing.T) {
	_, err := Parse([]byte("application: [unclosed"))
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %v", err)
	}
	if len(cfgErr.Structural) != 1 {
		t.Errorf("structural errors: %v", cfgErr.Structural)
	}
}

func TestParseNonIntegerChannelIDIsSemantic(t *testing.T) {
	doc := validDoc + `
  - forwarder_name: broken
    tg_channel_id: oops
    discord_channel_id: 111
    forward_everything: true
`
	_, err := Parse([]byte(doc))
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %v", err)
	}
	if len(cfgErr.Violations) != 1 {
		t.Fatalf("violations: %v", cfgErr.Violations)
	}
}

func TestParseEnvOverridesApplyBeforeValidation(t *testing.T) {
	t.Setenv("BRIDGECLAW_DISCORD_BOT_TOKEN", "env-token")
	t.Setenv("BRIDGECLAW_OPENAI_API_KEY", "env-key")

	// Enable openai without an api_key in the document; the env var must
	// satisfy the semantic check.
	doc := strings.Replace(validDoc,
		"openai:\n  enabled: false",
		"openai:\n  enabled: true\n  organization: org-1\n  sentiment_analysis_prompt: analyze this",
		1)

	cfg, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Discord.BotToken != "env-token" {
		t.Errorf("bot_token override: got %q", cfg.Discord.BotToken)
	}
	if cfg.OpenAI.APIKey != "env-key" {
		t.Errorf("openai api_key override: got %q", cfg.OpenAI.APIKey)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %v", err)
	}
}

func TestPathForVersion(t *testing.T) {
	if got := PathForVersion(""); got != "config.yml" {
		t.Errorf("default path: got %q", got)
	}
	if got := PathForVersion("prod"); got != "config-prod.yml" {
		t.Errorf("versioned path: got %q", got)
	}
}

func TestLoadVersionReadsVersionedFile(t *testing.T) {
	wd, _ := os.Getwd()
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
	if err := os.WriteFile("config-staging.yml", []byte(validDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadVersion("staging")
	if err != nil {
		t.Fatalf("LoadVersion: %v", err)
	}
	if cfg.App.Name != "bridgeclaw" {
		t.Errorf("app name: got %q", cfg.App.Name)
	}
}

func TestRedacted(t *testing.T) {
	if got := Redacted("abcdef0123456789"); got != "************6789" {
		t.Errorf("Redacted: got %q", got)
	}
	if got := Redacted("abc"); got != "***" {
		t.Errorf("short secret: got %q", got)
	}
}
