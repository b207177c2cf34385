package main

import (
	_ "embed"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultConfigDir      = ".pixelpure"
	minParaphraseLength   = 10
	defaultOllamaTimeout  = 120 * time.Second
	defaultMaxUploadBytes = 512 << 20
)

// Item error policies for collaborator failures
const (
	OnItemErrorAbort = "abort"
	OnItemErrorSkip  = "skip"
)

// ConfigOverrides allows overriding embedded defaults with file paths and flags
type ConfigOverrides struct {
	SettingsPath         *string
	CaptionPromptPath    *string
	ParaphrasePromptPath *string
	StockSite            *string
	InputDirectory       *string
	OutputDirectory      *string
}

// Embedded configuration files
//
//go:embed .pixelpure/settings.yaml
var defaultSettings string

//go:embed .pixelpure/caption-system-prompt.md
var defaultCaptionPrompt string

//go:embed .pixelpure/paraphrase-system-prompt.md
var defaultParaphrasePrompt string

// AgentSettings configures one model call
type AgentSettings struct {
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// S3Settings configures manifest publishing; an empty bucket disables it
type S3Settings struct {
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	UsePathStyle    bool   `yaml:"use_path_style"`
}

// Settings represents the YAML configuration structure
type Settings struct {
	StockSite       string   `yaml:"stock_site"`
	InputDirectory  string   `yaml:"input_directory"`
	OutputDirectory string   `yaml:"output_directory"`
	Institutions    []string `yaml:"institutions"`
	MaxKeywords     int      `yaml:"max_keywords"`
	KeywordSeed     int64    `yaml:"keyword_seed"`
	OnItemError     string   `yaml:"on_item_error"`
	SkipDuplicates  bool     `yaml:"skip_duplicates"`
	Captioner       struct {
		Backend     string `yaml:"backend"`
		UseSidecar  bool   `yaml:"use_sidecar"`
		UseEmbedded bool   `yaml:"use_embedded"`
	} `yaml:"captioner"`
	Paraphraser struct {
		Backend string           `yaml:"backend"`
		Limits  ParaphraseLimits `yaml:",inline"`
	} `yaml:"paraphraser"`
	Agents struct {
		Caption    AgentSettings `yaml:"caption"`
		Paraphrase AgentSettings `yaml:"paraphrase"`
	} `yaml:"agents"`
	Ollama struct {
		BaseURL        string `yaml:"base_url"`
		VisionModel    string `yaml:"vision_model"`
		TextModel      string `yaml:"text_model"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"ollama"`
	Ledger struct {
		Path string `yaml:"path"`
	} `yaml:"ledger"`
	Publish struct {
		S3 S3Settings `yaml:"s3"`
	} `yaml:"publish"`
	Server struct {
		Addr               string `yaml:"addr"`
		UploadDirectory    string `yaml:"upload_directory"`
		ProcessedDirectory string `yaml:"processed_directory"`
		MaxUploadMB        int    `yaml:"max_upload_mb"`
	} `yaml:"server"`
}

// Config holds configuration and overrides
type Config struct {
	Settings  *Settings
	Overrides *ConfigOverrides
}

// NewConfig loads settings (writing the embedded defaults on first run) and
// applies overrides
func NewConfig(overrides *ConfigOverrides) (*Config, error) {
	var (
		settings *Settings
		err      error
	)
	if overrides != nil && overrides.SettingsPath != nil {
		settings, err = loadSettings(*overrides.SettingsPath)
	} else {
		if err := ensureConfigExists(); err != nil {
			return nil, fmt.Errorf("ensuring config files exist: %w", err)
		}
		settings, err = loadSettings(getConfigPath("settings.yaml"))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	cfg := &Config{Settings: settings, Overrides: overrides}
	cfg.applyOverrides()
	return cfg, nil
}

func (c *Config) applyOverrides() {
	if c.Overrides == nil {
		return
	}
	if c.Overrides.StockSite != nil {
		c.Settings.StockSite = *c.Overrides.StockSite
	}
	if c.Overrides.InputDirectory != nil {
		c.Settings.InputDirectory = *c.Overrides.InputDirectory
	}
	if c.Overrides.OutputDirectory != nil {
		c.Settings.OutputDirectory = *c.Overrides.OutputDirectory
	}
}

// Site parses the configured stock site
func (c *Config) Site() (StockSite, error) {
	return ParseStockSite(c.Settings.StockSite)
}

// GetCaptionPrompt returns the caption system prompt (from override file or embedded)
func (c *Config) GetCaptionPrompt() string {
	if c.Overrides != nil && c.Overrides.CaptionPromptPath != nil {
		if content, err := os.ReadFile(*c.Overrides.CaptionPromptPath); err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return strings.TrimSpace(defaultCaptionPrompt)
}

// GetParaphrasePrompt returns the paraphrase system prompt with length limits filled in
func (c *Config) GetParaphrasePrompt() string {
	prompt := defaultParaphrasePrompt
	if c.Overrides != nil && c.Overrides.ParaphrasePromptPath != nil {
		if content, err := os.ReadFile(*c.Overrides.ParaphrasePromptPath); err == nil {
			prompt = string(content)
		}
	}
	limits := c.Settings.Paraphraser.Limits
	prompt = strings.ReplaceAll(prompt, "{{.min_length}}", fmt.Sprint(limits.MinLength))
	prompt = strings.ReplaceAll(prompt, "{{.max_length}}", fmt.Sprint(limits.MaxLength))
	return strings.TrimSpace(prompt)
}

// OllamaTimeout returns the HTTP timeout for Ollama calls
func (c *Config) OllamaTimeout() time.Duration {
	if c.Settings.Ollama.TimeoutSeconds <= 0 {
		return defaultOllamaTimeout
	}
	return time.Duration(c.Settings.Ollama.TimeoutSeconds) * time.Second
}

// MaxUploadBytes bounds a single web upload request
func (c *Config) MaxUploadBytes() int64 {
	if c.Settings.Server.MaxUploadMB <= 0 {
		return defaultMaxUploadBytes
	}
	return int64(c.Settings.Server.MaxUploadMB) << 20
}

// loadSettings reads and validates a settings file
func loadSettings(settingsPath string) (*Settings, error) {
	data, err := os.ReadFile(settingsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file %s: %w", settingsPath, err)
	}
	return parseSettings(data)
}

func parseSettings(data []byte) (*Settings, error) {
	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings YAML: %w", err)
	}
	settings.normalize()
	return &settings, nil
}

// normalize fills defaults and clamps values the pipeline depends on
func (s *Settings) normalize() {
	if s.StockSite == "" {
		s.StockSite = string(SiteAdobeStock)
	}
	if s.Institutions == nil {
		s.Institutions = append([]string(nil), DefaultInstitutions...)
	}
	if s.MaxKeywords <= 0 {
		s.MaxKeywords = DefaultMaxKeywords
	}
	if s.MaxKeywords > DefaultMaxKeywords {
		log.Printf("Warning: max_keywords is %d, clamping to %d", s.MaxKeywords, DefaultMaxKeywords)
		s.MaxKeywords = DefaultMaxKeywords
	}
	switch s.OnItemError {
	case OnItemErrorAbort, OnItemErrorSkip:
	case "":
		s.OnItemError = OnItemErrorAbort
	default:
		log.Printf("Warning: unknown on_item_error %q, defaulting to %q", s.OnItemError, OnItemErrorAbort)
		s.OnItemError = OnItemErrorAbort
	}
	s.Captioner.Backend = strings.ToLower(strings.TrimSpace(s.Captioner.Backend))
	if s.Captioner.Backend == "" {
		s.Captioner.Backend = "anthropic"
	}
	s.Paraphraser.Backend = strings.ToLower(strings.TrimSpace(s.Paraphraser.Backend))
	if s.Paraphraser.Backend == "" {
		s.Paraphraser.Backend = "anthropic"
	}
	limits := &s.Paraphraser.Limits
	if limits.MinLength < minParaphraseLength {
		limits.MinLength = minParaphraseLength
	}
	if limits.MaxLength < limits.MinLength {
		log.Printf("Warning: paraphraser.max_length is %d, raising to min_length %d", limits.MaxLength, limits.MinLength)
		limits.MaxLength = limits.MinLength
	}
	if s.Server.Addr == "" {
		s.Server.Addr = ":8080"
	}
}

// getConfigPath returns the path to a config file in the .pixelpure directory
func getConfigPath(filename string) string {
	return filepath.Join(defaultConfigDir, filename)
}

// ensureConfigExists creates the config directory and writes default settings if needed
func ensureConfigExists() error {
	if err := os.MkdirAll(defaultConfigDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	settingsPath := getConfigPath("settings.yaml")
	if _, err := os.Stat(settingsPath); os.IsNotExist(err) {
		if err := os.WriteFile(settingsPath, []byte(defaultSettings), 0644); err != nil {
			return fmt.Errorf("writing settings.yaml: %w", err)
		}
	}

	return nil
}
