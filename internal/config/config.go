package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration for fitwatch.
type Config struct {
	Schedule     string // cron spec for watch mode
	Companies    []CompanyConfig
	Filters      FilterConfig
	Store        StoreConfig
	Scrape       ScrapeConfig
	Enrichment   EnrichmentConfig
	AI           AIConfig
	Ranking      RankingConfig
	Notification NotificationConfig
}

// CompanyConfig describes a single company's careers source.
type CompanyConfig struct {
	Name       string    `yaml:"name"`
	ATS        string    `yaml:"ats"` // greenhouse, lever, ashby, gem, workday or html
	BoardToken string    `yaml:"board_token"`
	URL        string    `yaml:"url"`    // workday cxs root or careers page
	Domain     string    `yaml:"domain"` // used to infer the company of legacy cache records
	Selectors  Selectors `yaml:"selectors"`
	Enabled    bool      `yaml:"enabled"`
}

// Selectors are CSS selectors for the html source.
type Selectors struct {
	Item         string `yaml:"item"`
	Title        string `yaml:"title"`
	Link         string `yaml:"link"`
	Team         string `yaml:"team"`
	Location     string `yaml:"location"`
	Description  string `yaml:"description"`
	Requirements string `yaml:"requirements"`
}

// FilterConfig holds keyword and location filter settings applied before
// postings reach the store.
type FilterConfig struct {
	TitleKeywords        []string `yaml:"title_keywords"`
	TitleExcludeKeywords []string `yaml:"title_exclude_keywords"`
	Locations            []string `yaml:"locations"`
}

// StoreConfig selects where the posting snapshot lives.
type StoreConfig struct {
	Backend  string `yaml:"backend"` // file, sqlite or redis
	Path     string `yaml:"path"`
	RedisURL string `yaml:"redis_url"`
	RedisKey string `yaml:"redis_key"`
}

// ScrapeConfig controls refresh behaviour and transport politeness.
type ScrapeConfig struct {
	MaxDetailFetches  int
	AllowEmptyRemoval bool
	KeepCachedDetails bool
	Retries           int
	RetryDelay        time.Duration
	MinDelay          time.Duration            // minimum gap between requests to the same ATS
	ATSOverrides      map[string]time.Duration // per-ATS overrides, keyed by ATS name
	Timeout           time.Duration            // per-request HTTP timeout
}

// MinDelayFor returns the configured delay for the given ATS, falling back to MinDelay.
func (s ScrapeConfig) MinDelayFor(ats string) time.Duration {
	if d, ok := s.ATSOverrides[ats]; ok {
		return d
	}
	return s.MinDelay
}

// EnrichmentConfig controls batched scoring.
type EnrichmentConfig struct {
	ResumePath  string
	BatchSize   int
	Pacing      time.Duration
	MaxPostings int
}

// AIConfig selects and authenticates the LLM provider.
type AIConfig struct {
	Enabled   bool
	Provider  string // anthropic or openai
	BaseURL   string
	Model     string
	APIKey    string // expanded from env var by Load
	Timeout   time.Duration
	MaxTokens int
	Retries   int
}

// RankingConfig controls the recommendation views.
type RankingConfig struct {
	TopN                 int      `yaml:"top_n"`
	MinOverallFit        float64  `yaml:"min_overall_fit"`
	MinRoleCompatibility float64  `yaml:"min_role_compatibility"`
	ManagementKeywords   []string `yaml:"management_keywords"`
	ManagementOverride   float64  `yaml:"management_override"`
	FilterManagement     bool     `yaml:"filter_management"`
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log", "slack" or "none"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

const (
	defaultSchedule         = "@every 6h"
	defaultStorePath        = "jobs_cache.json"
	defaultBatchSize        = 3
	defaultPacing           = 2 * time.Second
	defaultMaxTokens        = 4000
	defaultTopN             = 15
	defaultOverride         = 60
	defaultMaxDetailFetches = 5
	defaultAnthropicBaseURL = "https://api.anthropic.com/v1"
	defaultOpenAIBaseURL    = "https://api.openai.com/v1"
)

var (
	knownATS      = map[string]bool{"greenhouse": true, "lever": true, "ashby": true, "gem": true, "workday": true, "html": true}
	knownBackends = map[string]bool{"file": true, "sqlite": true, "redis": true}
)

// rawConfig is used for YAML unmarshaling (snake_case fields and durations as strings).
type rawConfig struct {
	Schedule     string             `yaml:"schedule"`
	Companies    []CompanyConfig    `yaml:"companies"`
	Filters      FilterConfig       `yaml:"filters"`
	Store        StoreConfig        `yaml:"store"`
	Scrape       rawScrapeConfig    `yaml:"scrape"`
	Enrichment   rawEnrichConfig    `yaml:"enrichment"`
	AI           rawAIConfig        `yaml:"ai"`
	Ranking      RankingConfig      `yaml:"ranking"`
	Notification NotificationConfig `yaml:"notification"`
}

type rawScrapeConfig struct {
	MaxDetailFetches  *int              `yaml:"max_detail_fetches"`
	AllowEmptyRemoval bool              `yaml:"allow_empty_removal"`
	KeepCachedDetails bool              `yaml:"keep_cached_details"`
	Retries           *int              `yaml:"retries"`
	RetryDelay        string            `yaml:"retry_delay"`
	MinDelay          string            `yaml:"min_delay"`
	ATSOverrides      map[string]string `yaml:"ats_overrides"`
	Timeout           string            `yaml:"timeout"`
}

type rawEnrichConfig struct {
	ResumePath  string `yaml:"resume_path"`
	BatchSize   int    `yaml:"batch_size"`
	Pacing      string `yaml:"pacing"`
	MaxPostings int    `yaml:"max_postings"`
}

type rawAIConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Provider  string `yaml:"provider"`
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	APIKey    string `yaml:"api_key"`
	Timeout   string `yaml:"timeout"`
	MaxTokens int    `yaml:"max_tokens"`
	Retries   *int   `yaml:"retries"`
}

// LoadDotEnv loads a .env file from the working directory when present so
// its variables are visible to Load's expansion. Existing variables win.
func LoadDotEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	if err := godotenv.Load(); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := &Config{
		Schedule:     raw.Schedule,
		Companies:    raw.Companies,
		Filters:      raw.Filters,
		Store:        raw.Store,
		Ranking:      raw.Ranking,
		Notification: raw.Notification,
	}
	if cfg.Schedule == "" {
		cfg.Schedule = defaultSchedule
	}
	for i := range cfg.Companies {
		cfg.Companies[i].ATS = strings.ToLower(strings.TrimSpace(cfg.Companies[i].ATS))
	}

	applyStore(&cfg.Store)
	if cfg.Scrape, err = parseScrape(raw.Scrape); err != nil {
		return nil, err
	}
	if cfg.Enrichment, err = parseEnrichment(raw.Enrichment); err != nil {
		return nil, err
	}
	if cfg.AI, err = parseAI(raw.AI); err != nil {
		return nil, err
	}
	applyRanking(&cfg.Ranking)
	if cfg.Notification.Type == "" {
		cfg.Notification.Type = "log"
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseDuration(field, value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, value, err)
	}
	return d, nil
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func applyStore(s *StoreConfig) {
	s.Backend = strings.ToLower(s.Backend)
	if s.Backend == "" {
		s.Backend = "file"
	}
	if s.Path == "" {
		switch s.Backend {
		case "sqlite":
			s.Path = "fitwatch.db"
		default:
			s.Path = defaultStorePath
		}
	}
}

func parseScrape(raw rawScrapeConfig) (ScrapeConfig, error) {
	sc := ScrapeConfig{
		MaxDetailFetches:  intOr(raw.MaxDetailFetches, defaultMaxDetailFetches),
		AllowEmptyRemoval: raw.AllowEmptyRemoval,
		KeepCachedDetails: raw.KeepCachedDetails,
		Retries:           intOr(raw.Retries, 2),
		ATSOverrides:      make(map[string]time.Duration),
	}

	var err error
	if sc.RetryDelay, err = parseDuration("scrape.retry_delay", raw.RetryDelay, 5*time.Second); err != nil {
		return sc, err
	}
	if sc.MinDelay, err = parseDuration("scrape.min_delay", raw.MinDelay, time.Second); err != nil {
		return sc, err
	}
	if sc.Timeout, err = parseDuration("scrape.timeout", raw.Timeout, 30*time.Second); err != nil {
		return sc, err
	}
	for ats, v := range raw.ATSOverrides {
		d, err := time.ParseDuration(v)
		if err != nil {
			return sc, fmt.Errorf("parse scrape.ats_overrides[%q]: %w", ats, err)
		}
		sc.ATSOverrides[ats] = d
	}
	return sc, nil
}

func parseEnrichment(raw rawEnrichConfig) (EnrichmentConfig, error) {
	ec := EnrichmentConfig{
		ResumePath:  raw.ResumePath,
		BatchSize:   raw.BatchSize,
		MaxPostings: raw.MaxPostings,
	}
	if ec.BatchSize == 0 {
		ec.BatchSize = defaultBatchSize
	}
	var err error
	ec.Pacing, err = parseDuration("enrichment.pacing", raw.Pacing, defaultPacing)
	return ec, err
}

func parseAI(raw rawAIConfig) (AIConfig, error) {
	ac := AIConfig{
		Enabled:   raw.Enabled,
		Provider:  strings.ToLower(raw.Provider),
		BaseURL:   raw.BaseURL,
		Model:     raw.Model,
		APIKey:    raw.APIKey,
		MaxTokens: raw.MaxTokens,
		Retries:   intOr(raw.Retries, 0), // opt-in
	}
	if ac.Provider == "" {
		ac.Provider = "anthropic"
	}
	if ac.BaseURL == "" {
		switch ac.Provider {
		case "anthropic":
			ac.BaseURL = defaultAnthropicBaseURL
		case "openai":
			ac.BaseURL = defaultOpenAIBaseURL
		}
	}
	if ac.MaxTokens == 0 {
		ac.MaxTokens = defaultMaxTokens
	}
	var err error
	ac.Timeout, err = parseDuration("ai.timeout", raw.Timeout, 120*time.Second)
	return ac, err
}

func applyRanking(r *RankingConfig) {
	if r.TopN == 0 {
		r.TopN = defaultTopN
	}
	if r.ManagementOverride == 0 {
		r.ManagementOverride = defaultOverride
	}
}

func validate(cfg *Config) error {
	enabled := 0
	for i, c := range cfg.Companies {
		if !c.Enabled {
			continue
		}
		enabled++
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("companies[%d]: name is required", i)
		}
		if !knownATS[c.ATS] {
			return fmt.Errorf("company %q: unknown ats %q", c.Name, c.ATS)
		}
		switch c.ATS {
		case "workday", "html":
			if c.URL == "" {
				return fmt.Errorf("company %q: url is required for ats %q", c.Name, c.ATS)
			}
		default:
			if c.BoardToken == "" {
				return fmt.Errorf("company %q: board_token is required for ats %q", c.Name, c.ATS)
			}
		}
		if c.ATS == "html" && (c.Selectors.Item == "" || c.Selectors.Title == "") {
			return fmt.Errorf("company %q: selectors.item and selectors.title are required for ats \"html\"", c.Name)
		}
	}
	if enabled == 0 {
		return fmt.Errorf("at least one company must be enabled")
	}

	if !knownBackends[cfg.Store.Backend] {
		return fmt.Errorf("store.backend must be file, sqlite or redis, got %q", cfg.Store.Backend)
	}
	if cfg.Store.Backend == "redis" && cfg.Store.RedisURL == "" {
		return fmt.Errorf("store.redis_url is required when store.backend is \"redis\"")
	}

	if cfg.Enrichment.BatchSize < 1 {
		return fmt.Errorf("enrichment.batch_size must be at least 1, got %d", cfg.Enrichment.BatchSize)
	}
	if cfg.Enrichment.Pacing < 0 {
		return fmt.Errorf("enrichment.pacing must not be negative, got %v", cfg.Enrichment.Pacing)
	}

	switch cfg.Notification.Type {
	case "log", "none":
	case "slack":
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	default:
		return fmt.Errorf("notification.type must be log, slack or none, got %q", cfg.Notification.Type)
	}

	if cfg.AI.Provider != "anthropic" && cfg.AI.Provider != "openai" {
		return fmt.Errorf("ai.provider must be anthropic or openai, got %q", cfg.AI.Provider)
	}
	if cfg.AI.Enabled {
		if cfg.AI.APIKey == "" {
			return fmt.Errorf("ai.api_key is required when ai.enabled is true")
		}
		if cfg.AI.Model == "" {
			return fmt.Errorf("ai.model is required when ai.enabled is true")
		}
	}

	return nil
}

// EnabledCompanies returns the companies with enabled set.
func (c *Config) EnabledCompanies() []CompanyConfig {
	var out []CompanyConfig
	for _, co := range c.Companies {
		if co.Enabled {
			out = append(out, co)
		}
	}
	return out
}

// CompanyDomains maps configured domains to company names for legacy
// record inference.
func (c *Config) CompanyDomains() map[string]string {
	domains := make(map[string]string)
	for _, co := range c.Companies {
		if co.Domain != "" {
			domains[strings.ToLower(co.Domain)] = co.Name
		}
	}
	return domains
}
