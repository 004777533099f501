package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config is the root configuration for daybook, stored in ~/.daybook/config.json.
// The file supports single-line // comments for documentation purposes.
type Config struct {
	Cloud CloudConfig `json:"cloud"`
	Sync  SyncConfig  `json:"sync"`
	Serve ServeConfig `json:"serve"`
}

// CloudConfig holds the cloud record store and sign-in settings.
type CloudConfig struct {
	// BaseURL is the cloud endpoint all record operations go to.
	BaseURL string `json:"base_url"`
	// ClientID identifies this app in the OAuth2 device code flow.
	ClientID string `json:"client_id"`
	// DeviceAuthURL overrides the device authorization endpoint. Empty = derived from BaseURL.
	DeviceAuthURL string `json:"device_auth_url"`
	// TokenURL overrides the token endpoint. Empty = derived from BaseURL.
	TokenURL string `json:"token_url"`
}

// SyncConfig controls automatic cloud sync.
type SyncConfig struct {
	// Enabled turns on automatic sync (startup and timer) in serve mode.
	Enabled bool `json:"enabled"`
	// IntervalMinutes is the pause between background syncs.
	IntervalMinutes int `json:"interval_minutes"`
}

// ServeConfig configures the local HTTP API started by `daybook serve`.
type ServeConfig struct {
	// Addr is the listen address of the local API.
	Addr string `json:"addr"`
	// AllowedOrigins lists browser origins allowed to call the API.
	AllowedOrigins []string `json:"allowed_origins"`
}

const (
	// DefaultBaseURL is the hosted daybook cloud endpoint.
	DefaultBaseURL = "https://cloud.daybook.app"
	// DefaultClientID is the public client registration used by the
	// device code flow. Replace with your own registration when running
	// against a self-hosted cloud.
	DefaultClientID = "daybook-desktop"
	// DefaultIntervalMinutes is the background sync cadence.
	DefaultIntervalMinutes = 15
	// DefaultAddr binds the local API to the loopback interface only.
	DefaultAddr = "127.0.0.1:8790"
)

// DeviceAuthEndpoint returns the device authorization endpoint,
// derived from BaseURL unless overridden.
func (c CloudConfig) DeviceAuthEndpoint() string {
	if c.DeviceAuthURL != "" {
		return c.DeviceAuthURL
	}
	return c.BaseURL + "/oauth2/devicecode"
}

// TokenEndpoint returns the token endpoint, derived from BaseURL unless
// overridden.
func (c CloudConfig) TokenEndpoint() string {
	if c.TokenURL != "" {
		return c.TokenURL
	}
	return c.BaseURL + "/oauth2/token"
}

// defaultConfig returns a Config pre-filled with sensible defaults.
func defaultConfig() Config {
	return Config{
		Cloud: CloudConfig{
			BaseURL:  DefaultBaseURL,
			ClientID: DefaultClientID,
		},
		Sync: SyncConfig{
			Enabled:         false,
			IntervalMinutes: DefaultIntervalMinutes,
		},
		Serve: ServeConfig{
			Addr:           DefaultAddr,
			AllowedOrigins: []string{"*"},
		},
	}
}

// configTemplate is the annotated config written on first run.
// Lines whose trimmed content starts with // are stripped before JSON parsing,
// allowing human-readable documentation inside the file.
const configTemplate = `// daybook configuration – ~/.daybook/config.json
//
// All settings are optional; the built-in defaults shown below work out of
// the box. Edit this file to customise daybook behaviour.
{
  // ── Cloud record store ────────────────────────────────────────────────────
  "cloud": {
    // Endpoint of the daybook cloud API. Point this at your own server
    // for self-hosted setups.
    "base_url": "https://cloud.daybook.app",

    // OAuth2 client ID used for the device code sign-in flow.
    "client_id": "daybook-desktop",

    // Explicit OAuth2 endpoint overrides. Leave empty to derive them
    // from base_url (<base_url>/oauth2/devicecode and /oauth2/token).
    "device_auth_url": "",
    "token_url": ""
  },

  // ── Automatic sync ────────────────────────────────────────────────────────
  "sync": {
    // When true, 'daybook serve' syncs on startup and on a timer.
    // Explicit 'daybook sync' always works regardless of this switch.
    "enabled": false,

    // Minutes between background syncs in serve mode.
    "interval_minutes": 15
  },

  // ── Local API ('daybook serve') ───────────────────────────────────────────
  "serve": {
    // Listen address. Keep it on loopback unless you know what you're doing.
    "addr": "127.0.0.1:8790",

    // Browser origins allowed to call the API, e.g. the desktop shell.
    "allowed_origins": ["*"]
  }
}
`

// configFilePath returns the path to ~/.daybook/config.json.
func configFilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".daybook", "config.json"), nil
}

// stripLineComments removes lines whose leading non-whitespace content starts
// with //. Only full-line comments are handled; inline comments are not stripped.
func stripLineComments(data []byte) []byte {
	var out []byte
	for _, line := range bytes.Split(data, []byte("\n")) {
		if bytes.HasPrefix(bytes.TrimLeft(line, " \t"), []byte("//")) {
			continue
		}
		out = append(out, line...)
		out = append(out, '\n')
	}
	return out
}

// Load reads ~/.daybook/config.json, creating it with annotated defaults on
// first run. Lines starting with // are treated as comments and stripped
// before JSON parsing.
func Load() (Config, error) {
	path, err := configFilePath()
	if err != nil {
		return defaultConfig(), err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		// First run: write the annotated template so users can discover options.
		if writeErr := writeDefault(path); writeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create config file %s: %v\n", path, writeErr)
		}
		return defaultConfig(), nil
	}
	if err != nil {
		return defaultConfig(), fmt.Errorf("reading config file %s: %w", path, err)
	}

	cleaned := stripLineComments(data)
	var cfg Config
	if err := json.Unmarshal(cleaned, &cfg); err != nil {
		return defaultConfig(), fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
	}

	// Fill zero-value fields with built-in defaults so callers always get
	// a usable Config even if the user only partially fills in the file.
	if cfg.Cloud.BaseURL == "" {
		cfg.Cloud.BaseURL = DefaultBaseURL
	}
	if cfg.Cloud.ClientID == "" {
		cfg.Cloud.ClientID = DefaultClientID
	}
	if cfg.Sync.IntervalMinutes <= 0 {
		cfg.Sync.IntervalMinutes = DefaultIntervalMinutes
	}
	if cfg.Serve.Addr == "" {
		cfg.Serve.Addr = DefaultAddr
	}
	if len(cfg.Serve.AllowedOrigins) == 0 {
		cfg.Serve.AllowedOrigins = []string{"*"}
	}

	return cfg, nil
}

// writeDefault creates the config directory and writes the annotated default
// config template.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
