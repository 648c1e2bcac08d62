package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/tinyland-inc/bridgeclaw/pkg/forwarder"
)

// requiredSections are the top-level document keys whose absence is a
// structural error, reported separately from rule-level violations.
var requiredSections = []string{
	"application",
	"logger",
	"telegram",
	"discord",
	"telegram_forwarders",
}

type Config struct {
	App        AppConfig             `yaml:"application"`
	API        APIConfig             `yaml:"api"`
	Logger     LoggerConfig          `yaml:"logger"`
	Telegram   TelegramConfig        `yaml:"telegram"`
	Discord    DiscordConfig         `yaml:"discord"`
	OpenAI     OpenAIConfig          `yaml:"openai"`
	Forwarders []forwarder.Forwarder `yaml:"telegram_forwarders"`

	rules *forwarder.RuleSet
}

// Rules returns the validated rule set. Only set by Load; nil on a Config
// assembled by hand.
func (c *Config) Rules() *forwarder.RuleSet { return c.rules }

type AppConfig struct {
	Name                string  `yaml:"name"`
	Version             string  `yaml:"version"`
	Description         string  `yaml:"description"`
	Debug               bool    `yaml:"debug"`
	HealthcheckInterval float64 `yaml:"healthcheck_interval"`
	RecovererDelay      float64 `yaml:"recoverer_delay"`
	// HistorySizeLimit is the rotation threshold for the history files,
	// in megabytes.
	HistorySizeLimit float64 `yaml:"history_size_limit"`
}

type APIConfig struct {
	Enabled                       bool     `yaml:"enabled"`
	CORSOrigins                   []string `yaml:"cors_origins"`
	TelegramLoginEnabled          bool     `yaml:"telegram_login_enabled"`
	TelegramAuthFile              string   `yaml:"telegram_auth_file"`
	TelegramAuthRequestExpiration int      `yaml:"telegram_auth_request_expiration"`
}

type LoggerConfig struct {
	Level           string `yaml:"level"`
	FileMaxBytes    int    `yaml:"file_max_bytes"`
	FileBackupCount int    `yaml:"file_backup_count"`
	Format          string `yaml:"format"`
	DateFormat      string `yaml:"date_format"`
	Console         bool   `yaml:"console"`
}

type TelegramConfig struct {
	Phone                     string `env:"BRIDGECLAW_TELEGRAM_PHONE"    yaml:"phone"`
	Password                  string `env:"BRIDGECLAW_TELEGRAM_PASSWORD" yaml:"password"`
	APIID                     int    `env:"BRIDGECLAW_TELEGRAM_API_ID"   yaml:"api_id"`
	APIHash                   string `env:"BRIDGECLAW_TELEGRAM_API_HASH" yaml:"api_hash"`
	LogUnhandledConversations bool   `yaml:"log_unhandled_conversations"`
}

type DiscordConfig struct {
	BotToken     string   `env:"BRIDGECLAW_DISCORD_BOT_TOKEN" yaml:"bot_token"`
	BuiltInRoles []string `yaml:"built_in_roles"`
	MaxLatency   float64  `yaml:"max_latency"`
}

type OpenAIConfig struct {
	Enabled                 bool   `yaml:"enabled"`
	APIKey                  string `env:"BRIDGECLAW_OPENAI_API_KEY"      yaml:"api_key"`
	Organization            string `env:"BRIDGECLAW_OPENAI_ORGANIZATION" yaml:"organization"`
	SentimentAnalysisPrompt string `yaml:"sentiment_analysis_prompt"`
	Filter                  bool   `yaml:"filter"`
}

// ConfigError carries every problem found in a configuration document so
// an operator can fix them in one pass. Structural errors (unparseable
// document, missing sections) and semantic violations are kept apart.
type ConfigError struct {
	Structural []string
	Violations []string
}

func (e *ConfigError) Error() string {
	n := len(e.Structural) + len(e.Violations)
	if n == 1 {
		return e.All()[0]
	}
	return fmt.Sprintf("invalid configuration: %d errors", n)
}

// All returns structural errors followed by semantic violations.
func (e *ConfigError) All() []string {
	out := make([]string, 0, len(e.Structural)+len(e.Violations))
	out = append(out, e.Structural...)
	out = append(out, e.Violations...)
	return out
}

// PathForVersion maps a configuration version to its file name. The empty
// version selects the default config.yml.
func PathForVersion(version string) string {
	if version == "" {
		return "config.yml"
	}
	return fmt.Sprintf("config-%s.yml", version)
}

// Load reads, parses, and validates a configuration document. On any
// failure it returns a *ConfigError enumerating everything that is wrong;
// the surrounding application prints the errors and terminates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Structural: []string{fmt.Sprintf("cannot read configuration file %s: %v", path, err)}}
	}
	return Parse(data)
}

// LoadVersion loads the document for a named configuration version.
func LoadVersion(version string) (*Config, error) {
	return Load(PathForVersion(version))
}

// Parse turns a raw document into a validated Config. Environment
// overrides for secrets (BRIDGECLAW_* variables) are applied before
// validation, so a secret supplied via the environment satisfies the
// semantic checks.
func Parse(data []byte) (*Config, error) {
	// Pre-scan for top-level key presence; decoding straight into the
	// struct cannot tell an absent section from an empty one.
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Structural: []string{fmt.Sprintf("cannot parse configuration document: %v", err)}}
	}

	var structural []string
	for _, key := range requiredSections {
		if _, ok := raw[key]; !ok {
			structural = append(structural, fmt.Sprintf("required section %q not found in the configuration document", key))
		}
	}
	if len(structural) > 0 {
		return nil, &ConfigError{Structural: structural}
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &ConfigError{Structural: []string{fmt.Sprintf("cannot decode configuration document: %v", err)}}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if ok, violations := Validate(cfg); !ok {
		return nil, &ConfigError{Violations: violations}
	}

	cfg.rules = forwarder.NewRuleSet(cfg.Forwarders)
	return cfg, nil
}

// Redacted masks all but the last four characters of a secret for log lines.
func Redacted(secret string) string {
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", len(secret)-4) + secret[len(secret)-4:]
}
