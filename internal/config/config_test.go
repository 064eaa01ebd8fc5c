package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var configEnvKeys = []string{
	"HOME",
	configPathEnvName,
	"RSSANT_BASE_URL",
	"RSSANT_CSRF_TOKEN",
	"RSSANT_STATE_PATH",
	"RSSANT_DEBUG",
	"RSSANT_HTTP_TIMEOUT_SECONDS",
	"RSSANT_USER_AGENT",
	"RSSANT_POLL_INTERVAL_MS",
	"RSSANT_POLL_TRIES",
	"RSSANT_REQUESTS_PER_SECOND",
	"RSSANT_IMPORT_CONCURRENCY",
	"RSSANT_PAGE_SIZE",
}

func setEnvForTest(t *testing.T, key, value string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("set env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(key, old)
		} else {
			_ = os.Unsetenv(key)
		}
	})
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnvKeys {
		key := key
		old, had := os.LookupEnv(key)
		_ = os.Unsetenv(key)
		t.Cleanup(func() {
			if had {
				_ = os.Setenv(key, old)
			}
		})
	}
}

func writeConfigFile(t *testing.T, home string, body string) string {
	t.Helper()
	path := filepath.Join(home, ".config", configFolderName, configFileName)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}

func TestLoadConfig_NoConfigFileUsesDefaults(t *testing.T) {
	clearConfigEnv(t)
	home := t.TempDir()
	setEnvForTest(t, "HOME", home)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	want := Config{
		BaseURL:           DefaultBaseURL,
		StatePath:         filepath.Join(home, ".local", "share", "rssant", "state.db"),
		HTTPTimeout:       20 * time.Second,
		UserAgent:         defaultUserAgent,
		PollInterval:      time.Second,
		PollTries:         30,
		ImportConcurrency: 4,
	}
	if cfg != want {
		t.Fatalf("LoadConfig = %+v, want %+v", cfg, want)
	}
}

func TestLoadConfig_ConfigFileValuesApplied(t *testing.T) {
	clearConfigEnv(t)
	home := t.TempDir()
	setEnvForTest(t, "HOME", home)

	statePath := filepath.Join(t.TempDir(), "state.db")
	writeConfigFile(t, home, `
base_url = "https://rss.example.com"
csrf_token = "tok"
state_path = "`+statePath+`"
debug = true
http_timeout_seconds = 5
poll_interval_ms = 250
poll_tries = 10
requests_per_second = 2.5
import_concurrency = 8
page_size = 50
`)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.BaseURL != "https://rss.example.com" || cfg.CSRFToken != "tok" || cfg.StatePath != statePath || !cfg.Debug {
		t.Fatalf("unexpected string/bool fields: %+v", cfg)
	}
	if cfg.HTTPTimeout != 5*time.Second || cfg.PollInterval != 250*time.Millisecond {
		t.Fatalf("unexpected durations: %+v", cfg)
	}
	if cfg.PollTries != 10 || cfg.RequestsPerSecond != 2.5 || cfg.ImportConcurrency != 8 || cfg.PageSize != 50 {
		t.Fatalf("unexpected numeric fields: %+v", cfg)
	}
	if cfg.UserAgent != defaultUserAgent {
		t.Fatalf("UserAgent = %q, want %q", cfg.UserAgent, defaultUserAgent)
	}
}

func TestLoadConfig_XDGConfigPreferredOverHomeConfig(t *testing.T) {
	clearConfigEnv(t)
	home := t.TempDir()
	xdg := t.TempDir()
	setEnvForTest(t, "HOME", home)
	setEnvForTest(t, configPathEnvName, xdg)

	writeConfigFile(t, home, "poll_tries = 3\n")
	xdgPath := filepath.Join(xdg, configFolderName, configFileName)
	if err := os.MkdirAll(filepath.Dir(xdgPath), 0o755); err != nil {
		t.Fatalf("mkdir xdg config dir: %v", err)
	}
	if err := os.WriteFile(xdgPath, []byte("poll_tries = 12\n"), 0o644); err != nil {
		t.Fatalf("write xdg config file: %v", err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.PollTries != 12 {
		t.Fatalf("PollTries = %d, want 12", cfg.PollTries)
	}
}

func TestLoadConfig_EnvOverridesConfigFile(t *testing.T) {
	clearConfigEnv(t)
	home := t.TempDir()
	setEnvForTest(t, "HOME", home)

	writeConfigFile(t, home, `
base_url = "https://file.example"
state_path = "/tmp/from-config.db"
poll_tries = 2
`)

	envState := filepath.Join(t.TempDir(), "from-env.db")
	setEnvForTest(t, "RSSANT_BASE_URL", "http://env.example:8080")
	setEnvForTest(t, "RSSANT_STATE_PATH", envState)
	setEnvForTest(t, "RSSANT_POLL_TRIES", "6")
	setEnvForTest(t, "RSSANT_DEBUG", "true")
	setEnvForTest(t, "RSSANT_HTTP_TIMEOUT_SECONDS", "9")
	setEnvForTest(t, "RSSANT_USER_AGENT", "rssant-test/2.0")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.BaseURL != "http://env.example:8080" {
		t.Fatalf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.StatePath != envState {
		t.Fatalf("StatePath = %q, want %q", cfg.StatePath, envState)
	}
	if cfg.PollTries != 6 || !cfg.Debug || cfg.HTTPTimeout != 9*time.Second || cfg.UserAgent != "rssant-test/2.0" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
}

func TestLoadConfig_InvalidOrEmptyEnvDoesNotOverrideConfigFile(t *testing.T) {
	clearConfigEnv(t)
	home := t.TempDir()
	setEnvForTest(t, "HOME", home)

	writeConfigFile(t, home, `
base_url = "https://file.example"
poll_tries = 7
import_concurrency = 3
`)

	setEnvForTest(t, "RSSANT_BASE_URL", "not a url")
	setEnvForTest(t, "RSSANT_STATE_PATH", "")
	setEnvForTest(t, "RSSANT_POLL_TRIES", "0")
	setEnvForTest(t, "RSSANT_IMPORT_CONCURRENCY", "abc")
	setEnvForTest(t, "RSSANT_DEBUG", "maybe")
	setEnvForTest(t, "RSSANT_REQUESTS_PER_SECOND", "-1")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.BaseURL != "https://file.example" || cfg.PollTries != 7 || cfg.ImportConcurrency != 3 {
		t.Fatalf("invalid env overrode config: %+v", cfg)
	}
	if cfg.Debug || cfg.RequestsPerSecond != 0 {
		t.Fatalf("invalid env applied: %+v", cfg)
	}
	if cfg.StatePath != filepath.Join(home, ".local", "share", "rssant", "state.db") {
		t.Fatalf("StatePath = %q", cfg.StatePath)
	}
}

func TestLoadConfig_InvalidConfigReturnsError(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantSnippet string
	}{
		{
			name:        "base_url relative",
			body:        "base_url = \"/api\"\n",
			wantSnippet: "base_url: must be an absolute http(s) url",
		},
		{
			name:        "poll_tries too small",
			body:        "poll_tries = 0\n",
			wantSnippet: "poll_tries must be >= 1",
		},
		{
			name:        "poll_interval_ms non-positive",
			body:        "poll_interval_ms = 0\n",
			wantSnippet: "poll_interval_ms must be > 0",
		},
		{
			name:        "import_concurrency too small",
			body:        "import_concurrency = 0\n",
			wantSnippet: "import_concurrency must be >= 1",
		},
		{
			name:        "state_path empty",
			body:        "state_path = \"   \"\n",
			wantSnippet: "state_path must be non-empty",
		},
		{
			name:        "unknown key",
			body:        "db_path = \"x\"\n",
			wantSnippet: "unknown key(s): db_path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			home := t.TempDir()
			setEnvForTest(t, "HOME", home)
			path := writeConfigFile(t, home, tt.body)

			_, err := LoadConfig()
			if err == nil {
				t.Fatalf("LoadConfig() error = nil, want error")
			}
			msg := err.Error()
			if !strings.Contains(msg, tt.wantSnippet) {
				t.Fatalf("error %q does not contain %q", msg, tt.wantSnippet)
			}
			if !strings.Contains(msg, path) {
				t.Fatalf("error %q does not contain path %q", msg, path)
			}
		})
	}
}
