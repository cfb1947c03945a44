package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the reader service.
type Config struct {
	General GeneralConfig `mapstructure:"general"`
	Server  ServerConfig  `mapstructure:"server"`
	LLM     LLMConfig     `mapstructure:"llm"`
	Storage StorageConfig `mapstructure:"storage"`
	History HistoryConfig `mapstructure:"history"`
	Search  SearchConfig  `mapstructure:"search"`
	Extract ExtractConfig `mapstructure:"extract"`
	Export  ExportConfig  `mapstructure:"export"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
	// LogFile enables a rotating log file instead of stderr.
	LogFile       string `mapstructure:"log_file"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb"`
	LogMaxBackups int    `mapstructure:"log_max_backups"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address        string        `mapstructure:"address"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	AllowOrigins   []string      `mapstructure:"allow_origins"`
}

func (s ServerConfig) Validate() error {
	if strings.TrimSpace(s.Address) == "" {
		return fmt.Errorf("server.address required")
	}
	if s.RequestTimeout < 0 {
		return fmt.Errorf("server.request_timeout cannot be negative")
	}
	return nil
}

// LLMConfig configures the generative model and the retrieval tiers.
type LLMConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	// Primary and Fallback form the two-entry attempt table, tried in order.
	Primary         ModelTier `mapstructure:"primary"`
	Fallback        ModelTier `mapstructure:"fallback"`
	AnswerModel     string    `mapstructure:"answer_model"`
	MaxContextChars int       `mapstructure:"max_context_chars"`
}

// ModelTier is one attempt of the retrieval chain.
type ModelTier struct {
	Model      string `mapstructure:"model"`
	Search     bool   `mapstructure:"search"`
	URLContext bool   `mapstructure:"url_context"`
	// ThinkingBudget of 0 leaves the hint unset.
	ThinkingBudget int32 `mapstructure:"thinking_budget"`
}

// Normalize applies defaults for unset model values.
func (c LLMConfig) Normalize() LLMConfig {
	c.APIKey = strings.TrimSpace(c.APIKey)
	if c.APIKey == "" {
		c.APIKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	}
	if c.Timeout <= 0 {
		c.Timeout = 2 * time.Minute
	}
	c.Primary.Model = strings.TrimSpace(c.Primary.Model)
	c.Fallback.Model = strings.TrimSpace(c.Fallback.Model)
	c.AnswerModel = strings.TrimSpace(c.AnswerModel)
	if c.AnswerModel == "" {
		c.AnswerModel = c.Fallback.Model
	}
	if c.MaxContextChars <= 0 {
		c.MaxContextChars = 30000
	}
	return c
}

// Validate checks the model configuration.
func (c LLMConfig) Validate() error {
	if c.Primary.Model == "" {
		return fmt.Errorf("llm.primary.model required")
	}
	if c.Primary.ThinkingBudget < 0 || c.Fallback.ThinkingBudget < 0 {
		return fmt.Errorf("llm thinking_budget cannot be negative")
	}
	return nil
}

// Tiers returns the configured attempts in order, skipping an empty fallback.
func (c LLMConfig) Tiers() []ModelTier {
	tiers := []ModelTier{c.Primary}
	if c.Fallback.Model != "" {
		tiers = append(tiers, c.Fallback)
	}
	return tiers
}

// StorageConfig contains storage and persistence settings
type StorageConfig struct {
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("storage.redis.host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required")
	}
	return nil
}

// Addr is the host:port pair for the Redis client.
func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

// PostgresConfig contains Postgres connection settings
type PostgresConfig struct {
	URL      string        `mapstructure:"url"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	DBName   string        `mapstructure:"dbname"`
	SSLMode  string        `mapstructure:"sslmode"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Enabled reports whether any connection settings were given.
func (p PostgresConfig) Enabled() bool {
	return strings.TrimSpace(p.URL) != "" || strings.TrimSpace(p.Host) != ""
}

func (p PostgresConfig) Validate() error {
	if !p.Enabled() || strings.TrimSpace(p.URL) != "" {
		return nil
	}
	if strings.TrimSpace(p.Port) == "" {
		return fmt.Errorf("storage.postgres.port required when url is not provided")
	}
	if strings.TrimSpace(p.DBName) == "" {
		return fmt.Errorf("storage.postgres.dbname required when url is not provided")
	}
	return nil
}

// DSN returns the URL as given or builds one from the discrete fields.
func (p PostgresConfig) DSN() string {
	if u := strings.TrimSpace(p.URL); u != "" {
		return u
	}
	sslmode := p.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, p.Port, p.DBName, sslmode)
}

// HistoryConfig controls the reading history.
type HistoryConfig struct {
	// Backend is "memory" or "redis".
	Backend string `mapstructure:"backend"`
	Limit   int    `mapstructure:"limit"`
}

// Normalize applies defaults for unset history values.
func (c HistoryConfig) Normalize() HistoryConfig {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Backend == "" {
		c.Backend = "memory"
	}
	if c.Limit <= 0 {
		c.Limit = 50
	}
	return c
}

func (c HistoryConfig) Validate() error {
	switch c.Backend {
	case "memory", "redis":
		return nil
	default:
		return fmt.Errorf("history.backend must be memory or redis, got %q", c.Backend)
	}
}

// SearchConfig configures the saved-article index. An empty IndexPath keeps
// the index in memory.
type SearchConfig struct {
	IndexPath string `mapstructure:"index_path"`
}

// ExtractConfig configures local reader-mode extraction.
type ExtractConfig struct {
	// Fetcher is "http" or "chromedp".
	Fetcher   string        `mapstructure:"fetcher"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

// Normalize applies defaults for unset extraction values.
func (c ExtractConfig) Normalize() ExtractConfig {
	c.Fetcher = strings.ToLower(strings.TrimSpace(c.Fetcher))
	if c.Fetcher == "" {
		c.Fetcher = "http"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return c
}

func (c ExtractConfig) Validate() error {
	if c.Fetcher != "http" && c.Fetcher != "chromedp" {
		return fmt.Errorf("extract.fetcher must be http or chromedp, got %q", c.Fetcher)
	}
	return nil
}

// ExportConfig configures PDF printing and the spreadsheet saver.
type ExportConfig struct {
	PDFTimeout time.Duration `mapstructure:"pdf_timeout"`
	Sheets     SheetsConfig  `mapstructure:"sheets"`
}

// SheetsConfig configures appends to a Google spreadsheet. Saving to a sheet
// is disabled when SpreadsheetID is empty.
type SheetsConfig struct {
	SpreadsheetID   string `mapstructure:"spreadsheet_id"`
	Range           string `mapstructure:"range"`
	CredentialsFile string `mapstructure:"credentials_file"`
	AccessToken     string `mapstructure:"access_token"`
	Endpoint        string `mapstructure:"endpoint"`
}

// Enabled reports whether a target spreadsheet is configured.
func (s SheetsConfig) Enabled() bool {
	return strings.TrimSpace(s.SpreadsheetID) != ""
}

func (s SheetsConfig) Validate() error {
	if !s.Enabled() {
		return nil
	}
	if strings.TrimSpace(s.CredentialsFile) == "" && strings.TrimSpace(s.AccessToken) == "" {
		return fmt.Errorf("export.sheets requires credentials_file or access_token")
	}
	return nil
}

// Normalize applies defaults for unset export values.
func (c ExportConfig) Normalize() ExportConfig {
	if c.PDFTimeout <= 0 {
		c.PDFTimeout = time.Minute
	}
	if strings.TrimSpace(c.Sheets.Range) == "" {
		c.Sheets.Range = "Sheet1!A:E"
	}
	return c
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("general.log_level", "info")
	v.SetDefault("general.log_max_size_mb", 50)
	v.SetDefault("general.log_max_backups", 3)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.request_timeout", "3m")
	v.SetDefault("llm.primary.model", "gemini-2.5-flash")
	v.SetDefault("llm.primary.search", true)
	v.SetDefault("llm.primary.url_context", true)
	v.SetDefault("llm.fallback.model", "gemini-2.5-flash-lite")
	v.SetDefault("llm.fallback.search", true)
	v.SetDefault("llm.fallback.url_context", false)
	v.SetDefault("storage.redis.host", "localhost")
	v.SetDefault("storage.redis.port", "6379")
	v.SetDefault("history.backend", "memory")
	v.SetDefault("history.limit", 50)
	v.SetDefault("extract.fetcher", "http")

	// registered so READMODE_* variables reach Unmarshal without a config file
	for _, key := range []string{
		"general.log_file",
		"llm.api_key",
		"llm.base_url",
		"llm.answer_model",
		"storage.redis.password",
		"storage.postgres.url",
		"search.index_path",
		"export.sheets.spreadsheet_id",
		"export.sheets.credentials_file",
		"export.sheets.access_token",
	} {
		v.SetDefault(key, "")
	}
}

// Load reads config from path, or from the default search locations when path
// is empty. A missing config file is not an error: defaults and READMODE_*
// environment variables still apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config") // name of config file (without extension)
	v.SetConfigType("json")
	setDefaults(v)

	if path == "" {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		if exe, err := os.Executable(); err == nil {
			exeDir := filepath.Dir(exe)
			v.AddConfigPath(exeDir)
			v.AddConfigPath(filepath.Join(exeDir, "..", "config"))
		}
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("READMODE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.LLM = cfg.LLM.Normalize()
	cfg.History = cfg.History.Normalize()
	cfg.Extract = cfg.Extract.Normalize()
	cfg.Export = cfg.Export.Normalize()

	for _, validate := range []func() error{
		cfg.Server.Validate,
		cfg.LLM.Validate,
		cfg.History.Validate,
		cfg.Extract.Validate,
		cfg.Export.Sheets.Validate,
		cfg.Storage.Postgres.Validate,
	} {
		if err := validate(); err != nil {
			return nil, err
		}
	}
	if cfg.History.Backend == "redis" {
		if err := cfg.Storage.Redis.Validate(); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// LoadConfig loads config from file and panics when it is unusable.
func LoadConfig(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	return cfg
}
