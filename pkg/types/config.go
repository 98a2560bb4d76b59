package types

import "time"

// HTTPConfig holds shared HTTP settings for upstream calls.
type HTTPConfig struct {
	// Timeout bounds a single metadata request (default 30s).
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`

	// ContentTimeout bounds a single content download (default 60s).
	ContentTimeout time.Duration `mapstructure:"content_timeout" yaml:"content_timeout"`

	// UserAgent is sent with every upstream request.
	UserAgent string `mapstructure:"user_agent" yaml:"user_agent"`

	// MaxAttempts is the retry budget per upstream call (default 3).
	MaxAttempts int `mapstructure:"max_attempts" yaml:"max_attempts"`
}

// GovInfoConfig configures the GovInfo search and summary clients.
type GovInfoConfig struct {
	// APIKey is the api.data.gov key (env GOVINFO_API_KEY).
	APIKey string `mapstructure:"api_key" yaml:"api_key,omitempty"`

	// BaseURL overrides https://api.govinfo.gov when set.
	BaseURL string `mapstructure:"base_url" yaml:"base_url,omitempty"`
}

// FederalRegisterConfig configures the Federal Register client. The API
// needs no credential.
type FederalRegisterConfig struct {
	// BaseURL overrides https://www.federalregister.gov/api/v1 when set.
	BaseURL string `mapstructure:"base_url" yaml:"base_url,omitempty"`
}

// JiraConfig configures the issue tracker client.
type JiraConfig struct {
	// BaseURL is the Jira site root, e.g. https://example.atlassian.net (env JIRA_BASE_URL).
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// Email is the account used for basic auth (env JIRA_EMAIL).
	Email string `mapstructure:"email" yaml:"email"`

	// APIToken is the basic-auth password (env JIRA_API_TOKEN).
	APIToken string `mapstructure:"api_token" yaml:"api_token,omitempty"`
}

// ServerConfig configures the HTTP/MCP server.
type ServerConfig struct {
	// Addr is the listen address (default ":8000").
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// DiscoveryMode selects how the tool catalogue is listed.
type DiscoveryMode string

const (
	DiscoveryLocal  DiscoveryMode = "local"
	DiscoveryRemote DiscoveryMode = "remote"
)

// DiscoveryConfig configures tool discovery.
type DiscoveryConfig struct {
	Mode DiscoveryMode `mapstructure:"mode" yaml:"mode"`

	// URL is the MCP endpoint queried in remote mode.
	URL string `mapstructure:"url" yaml:"url"`
}

// MetricsConfig toggles the instrumented tool invoker and /metrics.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// CallLogConfig configures the optional SQLite tool call log. An empty Path
// disables it.
type CallLogConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error (default info).
	Level string `mapstructure:"level" yaml:"level"`

	// Development switches to the human-readable console encoder.
	Development bool `mapstructure:"development" yaml:"development"`
}

// Config groups all settings for the policy-engine process.
type Config struct {
	Server          ServerConfig          `mapstructure:"server" yaml:"server"`
	HTTP            HTTPConfig            `mapstructure:"http" yaml:"http"`
	GovInfo         GovInfoConfig         `mapstructure:"govinfo" yaml:"govinfo"`
	FederalRegister FederalRegisterConfig `mapstructure:"federal_register" yaml:"federal_register"`
	Jira            JiraConfig            `mapstructure:"jira" yaml:"jira"`
	Discovery       DiscoveryConfig       `mapstructure:"discovery" yaml:"discovery"`
	Metrics         MetricsConfig         `mapstructure:"metrics" yaml:"metrics"`
	CallLog         CallLogConfig         `mapstructure:"calllog" yaml:"calllog"`
	Log             LogConfig             `mapstructure:"log" yaml:"log"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{Addr: ":8000"},
		HTTP: HTTPConfig{
			Timeout:        30 * time.Second,
			ContentTimeout: 60 * time.Second,
			UserAgent:      "policy-engine/0.1",
			MaxAttempts:    3,
		},
		Discovery: DiscoveryConfig{
			Mode: DiscoveryLocal,
			URL:  "http://127.0.0.1:8000/mcp",
		},
		Log: LogConfig{Level: "info"},
	}
}
