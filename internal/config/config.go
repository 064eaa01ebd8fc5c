package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultBaseURL = "http://127.0.0.1:6789"

	defaultHTTPTimeoutSec    = 20
	defaultPollIntervalMS    = 1000
	defaultPollTries         = 30
	defaultImportConcurrency = 4
	defaultUserAgent         = "rssant-cli/0.1"
)

const (
	configFolderName  = "rssant"
	configFileName    = "config.toml"
	configPathEnvName = "XDG_CONFIG_HOME"
	envPrefix         = "RSSANT_"
)

type Config struct {
	BaseURL           string
	CSRFToken         string
	StatePath         string
	Debug             bool
	HTTPTimeout       time.Duration
	UserAgent         string
	PollInterval      time.Duration
	PollTries         int
	RequestsPerSecond float64
	ImportConcurrency int
	PageSize          int
}

func Default(home string) Config {
	return Config{
		BaseURL:           DefaultBaseURL,
		StatePath:         filepath.Join(home, ".local", "share", "rssant", "state.db"),
		HTTPTimeout:       defaultHTTPTimeoutSec * time.Second,
		UserAgent:         defaultUserAgent,
		PollInterval:      defaultPollIntervalMS * time.Millisecond,
		PollTries:         defaultPollTries,
		ImportConcurrency: defaultImportConcurrency,
	}
}

// LoadConfig layers defaults, the config file, then RSSANT_* environment
// variables. Command flags are applied by the caller.
func LoadConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	cfg := Default(home)

	path, found, err := findConfigPath(home)
	if err != nil {
		return Config{}, err
	}
	if found {
		fileCfg, err := loadFileConfig(path)
		if err != nil {
			return Config{}, err
		}
		applyFileConfig(&cfg, fileCfg)
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

type fileConfig struct {
	BaseURL            *string  `toml:"base_url"`
	CSRFToken          *string  `toml:"csrf_token"`
	StatePath          *string  `toml:"state_path"`
	Debug              *bool    `toml:"debug"`
	HTTPTimeoutSeconds *int     `toml:"http_timeout_seconds"`
	UserAgent          *string  `toml:"user_agent"`
	PollIntervalMS     *int     `toml:"poll_interval_ms"`
	PollTries          *int     `toml:"poll_tries"`
	RequestsPerSecond  *float64 `toml:"requests_per_second"`
	ImportConcurrency  *int     `toml:"import_concurrency"`
	PageSize           *int     `toml:"page_size"`
}

func findConfigPath(home string) (string, bool, error) {
	candidates := make([]string, 0, 2)
	if xdg := strings.TrimSpace(os.Getenv(configPathEnvName)); xdg != "" {
		candidates = append(candidates, filepath.Join(xdg, configFolderName, configFileName))
	}
	candidates = append(candidates, filepath.Join(home, ".config", configFolderName, configFileName))

	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err == nil {
			if info.IsDir() {
				return "", false, fmt.Errorf("config path %q is a directory; expected a file", candidate)
			}
			return candidate, true, nil
		}
		if os.IsNotExist(err) {
			continue
		}
		return "", false, fmt.Errorf("failed to read config path %q: %w", candidate, err)
	}
	return "", false, nil
}

func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return fileConfig{}, fmt.Errorf("invalid config file %q: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		unknown := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			unknown = append(unknown, key.String())
		}
		sort.Strings(unknown)
		return fileConfig{}, fmt.Errorf("invalid config file %q: unknown key(s): %s", path, strings.Join(unknown, ", "))
	}
	if err := validateFileConfig(cfg); err != nil {
		return fileConfig{}, fmt.Errorf("invalid config file %q: %w", path, err)
	}
	return cfg, nil
}

func validateFileConfig(cfg fileConfig) error {
	if cfg.BaseURL != nil {
		if err := ValidateBaseURL(*cfg.BaseURL); err != nil {
			return fmt.Errorf("base_url: %w", err)
		}
	}
	if cfg.StatePath != nil && strings.TrimSpace(*cfg.StatePath) == "" {
		return fmt.Errorf("state_path must be non-empty when provided")
	}
	if cfg.HTTPTimeoutSeconds != nil && *cfg.HTTPTimeoutSeconds <= 0 {
		return fmt.Errorf("http_timeout_seconds must be > 0")
	}
	if cfg.PollIntervalMS != nil && *cfg.PollIntervalMS <= 0 {
		return fmt.Errorf("poll_interval_ms must be > 0")
	}
	if cfg.PollTries != nil && *cfg.PollTries < 1 {
		return fmt.Errorf("poll_tries must be >= 1")
	}
	if cfg.RequestsPerSecond != nil && *cfg.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second must be >= 0")
	}
	if cfg.ImportConcurrency != nil && *cfg.ImportConcurrency < 1 {
		return fmt.Errorf("import_concurrency must be >= 1")
	}
	if cfg.PageSize != nil && *cfg.PageSize < 0 {
		return fmt.Errorf("page_size must be >= 0")
	}
	return nil
}

// ValidateBaseURL accepts an absolute http(s) url.
func ValidateBaseURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("must be an absolute http(s) url, got %q", raw)
	}
	return nil
}

func applyFileConfig(cfg *Config, f fileConfig) {
	if f.BaseURL != nil {
		cfg.BaseURL = strings.TrimSpace(*f.BaseURL)
	}
	if f.CSRFToken != nil {
		cfg.CSRFToken = *f.CSRFToken
	}
	if f.StatePath != nil {
		cfg.StatePath = *f.StatePath
	}
	if f.Debug != nil {
		cfg.Debug = *f.Debug
	}
	if f.HTTPTimeoutSeconds != nil {
		cfg.HTTPTimeout = time.Duration(*f.HTTPTimeoutSeconds) * time.Second
	}
	if f.UserAgent != nil && strings.TrimSpace(*f.UserAgent) != "" {
		cfg.UserAgent = *f.UserAgent
	}
	if f.PollIntervalMS != nil {
		cfg.PollInterval = time.Duration(*f.PollIntervalMS) * time.Millisecond
	}
	if f.PollTries != nil {
		cfg.PollTries = *f.PollTries
	}
	if f.RequestsPerSecond != nil {
		cfg.RequestsPerSecond = *f.RequestsPerSecond
	}
	if f.ImportConcurrency != nil {
		cfg.ImportConcurrency = *f.ImportConcurrency
	}
	if f.PageSize != nil {
		cfg.PageSize = *f.PageSize
	}
}

// Invalid or empty environment values are ignored.
func applyEnvOverrides(cfg *Config) {
	if v := env("BASE_URL"); v != "" && ValidateBaseURL(v) == nil {
		cfg.BaseURL = v
	}
	if v := env("CSRF_TOKEN"); v != "" {
		cfg.CSRFToken = v
	}
	if v := env("STATE_PATH"); v != "" {
		cfg.StatePath = v
	}
	if v := env("DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = b
		}
	}
	if n, ok := envInt("HTTP_TIMEOUT_SECONDS", 1); ok {
		cfg.HTTPTimeout = time.Duration(n) * time.Second
	}
	if v := env("USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if n, ok := envInt("POLL_INTERVAL_MS", 1); ok {
		cfg.PollInterval = time.Duration(n) * time.Millisecond
	}
	if n, ok := envInt("POLL_TRIES", 1); ok {
		cfg.PollTries = n
	}
	if v := env("REQUESTS_PER_SECOND"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			cfg.RequestsPerSecond = f
		}
	}
	if n, ok := envInt("IMPORT_CONCURRENCY", 1); ok {
		cfg.ImportConcurrency = n
	}
	if n, ok := envInt("PAGE_SIZE", 0); ok {
		cfg.PageSize = n
	}
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(envPrefix + key))
}

func envInt(key string, min int) (int, bool) {
	v := env(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < min {
		return 0, false
	}
	return n, true
}
