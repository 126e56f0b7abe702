package config

import (
	"errors"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/JodusNodus/apartment-eagle/internal/model"
)

// Config holds the full application configuration.
type Config struct {
	Agencies     []model.Agency  `yaml:"agencies" mapstructure:"agencies"`
	AgenciesFile string          `yaml:"agencies_file" mapstructure:"agencies_file"`
	Criteria     string          `yaml:"criteria" mapstructure:"criteria"`
	Anthropic    AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Classify     ClassifyConfig  `yaml:"classify" mapstructure:"classify"`
	Detail       DetailConfig    `yaml:"detail" mapstructure:"detail"`
	Extract      ExtractConfig   `yaml:"extract" mapstructure:"extract"`
	Scrape       ScrapeConfig    `yaml:"scrape" mapstructure:"scrape"`
	Store        StoreConfig     `yaml:"store" mapstructure:"store"`
	Email        EmailConfig     `yaml:"email" mapstructure:"email"`
	Webhook      WebhookConfig   `yaml:"webhook" mapstructure:"webhook"`
	Schedule     ScheduleConfig  `yaml:"schedule" mapstructure:"schedule"`
	Cycle        CycleConfig     `yaml:"cycle" mapstructure:"cycle"`
	Server       ServerConfig    `yaml:"server" mapstructure:"server"`
	Log          LogConfig       `yaml:"log" mapstructure:"log"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	ClassifyModel string `yaml:"classify_model" mapstructure:"classify_model"`
	EvaluateModel string `yaml:"evaluate_model" mapstructure:"evaluate_model"`
}

// ClassifyConfig configures the batched URL classifier.
type ClassifyConfig struct {
	BatchSize              int   `yaml:"batch_size" mapstructure:"batch_size"`
	ShortCircuitThreshold  int   `yaml:"short_circuit_threshold" mapstructure:"short_circuit_threshold"`
	ShortCircuitConfidence int   `yaml:"short_circuit_confidence" mapstructure:"short_circuit_confidence"`
	MinConfidence          int   `yaml:"min_confidence" mapstructure:"min_confidence"`
	BatchDelayMs           int   `yaml:"batch_delay_ms" mapstructure:"batch_delay_ms"`
	MaxTokens              int64 `yaml:"max_tokens" mapstructure:"max_tokens"`
	MaxAttempts            int   `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// DetailConfig configures detail fetching and evaluation.
type DetailConfig struct {
	RequestDelayMs  int   `yaml:"request_delay_ms" mapstructure:"request_delay_ms"`
	EvaluateDelayMs int   `yaml:"evaluate_delay_ms" mapstructure:"evaluate_delay_ms"`
	MaxHTMLChars    int   `yaml:"max_html_chars" mapstructure:"max_html_chars"`
	MaxTokens       int64 `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ExtractConfig configures URL extraction.
type ExtractConfig struct {
	ExcludePaths []string `yaml:"exclude_paths" mapstructure:"exclude_paths"`
}

// ScrapeConfig configures the listing and detail page transports.
type ScrapeConfig struct {
	TimeoutSecs       int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RenderTimeoutSecs int    `yaml:"render_timeout_secs" mapstructure:"render_timeout_secs"`
	UserAgent         string `yaml:"user_agent" mapstructure:"user_agent"`
	ChromePath        string `yaml:"chrome_path" mapstructure:"chrome_path"`
	MaxAttempts       int    `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// StoreConfig configures the seen-URL store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`             // json, sqlite or postgres
	Path        string `yaml:"path" mapstructure:"path"`                 // json file
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"` // postgres DSN or sqlite file
}

// EmailConfig holds SMTP settings.
type EmailConfig struct {
	Enabled bool     `yaml:"enabled" mapstructure:"enabled"`
	Host    string   `yaml:"host" mapstructure:"host"`
	Port    int      `yaml:"port" mapstructure:"port"`
	User    string   `yaml:"user" mapstructure:"user"`
	Pass    string   `yaml:"pass" mapstructure:"pass"`
	From    string   `yaml:"from" mapstructure:"from"`
	To      []string `yaml:"to" mapstructure:"to"`
}

// WebhookConfig configures the optional JSON webhook notifier.
type WebhookConfig struct {
	URL         string `yaml:"url" mapstructure:"url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ScheduleConfig configures the watch loop.
type ScheduleConfig struct {
	IntervalMinutes    int `yaml:"interval_minutes" mapstructure:"interval_minutes"`
	MaxIntervalMinutes int `yaml:"max_interval_minutes" mapstructure:"max_interval_minutes"`
}

// CycleConfig configures a single cycle.
type CycleConfig struct {
	TimeoutMinutes int `yaml:"timeout_minutes" mapstructure:"timeout_minutes"`
	GraceSecs      int `yaml:"grace_secs" mapstructure:"grace_secs"`
}

// ServerConfig configures the health server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultCriteria is used when no eligibility criteria are configured.
const DefaultCriteria = `MANDATORY requirements (all must be met):
- Must be in Antwerp city or area so Berchem, Deurne, Wilrijk, Borgerhout
- If room information is provided, must have at least 2 rooms (or 1 bedroom and a bureau)
- Must cost less than 1300 EUR/month (1,300 or 1300 or 1300.00)
- Must cost more than 950 EUR/month (950 or 950.00)
- If a move-in date is provided, it must be after July 30th, if it is not provided, it is not a problem

OPTIONAL preferences (nice to have, but not required):
- Terrace would be ideal

An apartment matches if it meets ALL mandatory requirements. The terrace is optional.`

var defaultAgencies = []map[string]any{
	{"name": "ERA", "url": "https://www.era.be/nl/te-huur/antwerpen", "selector": ".property-card"},
	{"name": "VB Vastgoed", "url": "https://www.vbvastgoed.be/huren", "selector": ".card"},
}

// Load reads configuration from .env, config file and environment.
func Load() (*Config, error) {
	// A missing .env is the normal case outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("EAGLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	// EAGLE_EMAIL_TO may be a comma-separated list.
	if len(cfg.Email.To) == 1 && strings.Contains(cfg.Email.To[0], ",") {
		cfg.Email.To = splitList(cfg.Email.To[0])
	}

	if cfg.AgenciesFile != "" {
		agencies, err := LoadAgencies(cfg.AgenciesFile)
		if err != nil {
			return nil, err
		}
		cfg.Agencies = agencies
	}

	if strings.TrimSpace(cfg.Criteria) == "" {
		cfg.Criteria = DefaultCriteria
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("agencies", defaultAgencies)
	v.SetDefault("agencies_file", "")
	v.SetDefault("criteria", "")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.classify_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.evaluate_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("classify.batch_size", 50)
	v.SetDefault("classify.short_circuit_threshold", 4)
	v.SetDefault("classify.short_circuit_confidence", 8)
	v.SetDefault("classify.min_confidence", 5)
	v.SetDefault("classify.batch_delay_ms", 1000)
	v.SetDefault("classify.max_tokens", 4096)
	v.SetDefault("classify.max_attempts", 2)
	v.SetDefault("detail.request_delay_ms", 300)
	v.SetDefault("detail.evaluate_delay_ms", 500)
	v.SetDefault("detail.max_html_chars", 50000)
	v.SetDefault("detail.max_tokens", 1024)
	v.SetDefault("scrape.timeout_secs", 30)
	v.SetDefault("scrape.render_timeout_secs", 50)
	v.SetDefault("scrape.max_attempts", 2)
	v.SetDefault("scrape.chrome_path", "")
	v.SetDefault("scrape.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("store.driver", "json")
	v.SetDefault("store.path", "data/scraped_urls.json")
	v.SetDefault("store.database_url", "")
	v.SetDefault("email.enabled", true)
	v.SetDefault("email.host", "smtp.gmail.com")
	v.SetDefault("email.port", 587)
	v.SetDefault("email.user", "")
	v.SetDefault("email.pass", "")
	v.SetDefault("email.from", "")
	v.SetDefault("email.to", []string{})
	v.SetDefault("webhook.url", "")
	v.SetDefault("webhook.timeout_secs", 10)
	v.SetDefault("schedule.interval_minutes", 30)
	v.SetDefault("schedule.max_interval_minutes", 45)
	v.SetDefault("cycle.timeout_minutes", 30)
	v.SetDefault("cycle.grace_secs", 30)
	v.SetDefault("server.port", 3000)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// LoadAgencies reads an agency list from a YAML file. The file holds either
// a bare list or a top-level "agencies" key.
func LoadAgencies(path string) ([]model.Agency, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "config: read agencies %s", path)
	}

	var wrapper struct {
		Agencies []model.Agency `yaml:"agencies"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err == nil && len(wrapper.Agencies) > 0 {
		return wrapper.Agencies, nil
	}

	var list []model.Agency
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, eris.Wrapf(err, "config: parse agencies %s", path)
	}
	return list, nil
}

// Validate checks the settings a cycle cannot run without.
func (c *Config) Validate() error {
	var missing []string
	if c.Anthropic.Key == "" {
		missing = append(missing, "EAGLE_ANTHROPIC_KEY")
	}
	if c.Email.Enabled {
		if c.Email.User == "" {
			missing = append(missing, "EAGLE_EMAIL_USER")
		}
		if c.Email.Pass == "" {
			missing = append(missing, "EAGLE_EMAIL_PASS")
		}
		if len(c.Email.To) == 0 {
			missing = append(missing, "EAGLE_EMAIL_TO")
		}
	}
	if len(missing) > 0 {
		return eris.Errorf("config: missing required settings: %s", strings.Join(missing, ", "))
	}
	return c.ValidateAgencies()
}

// ValidateAgencies checks agency names are present and unique and that every
// listing URL is absolute.
func (c *Config) ValidateAgencies() error {
	if len(c.Agencies) == 0 {
		return eris.New("config: no agencies configured")
	}
	seen := make(map[string]bool, len(c.Agencies))
	for i, a := range c.Agencies {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			return eris.Errorf("config: agency %d has no name", i)
		}
		if seen[name] {
			return eris.Errorf("config: duplicate agency name %q", name)
		}
		seen[name] = true

		u, err := url.Parse(a.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return eris.Errorf("config: agency %q has invalid url %q", name, a.URL)
		}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
