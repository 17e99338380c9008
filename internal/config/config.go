package config

// Config represents the full application configuration.
type Config struct {
	Server        ServerConfig              `yaml:"server"`
	GitHub        GitHubConfig              `yaml:"github"`
	Analyzers     map[string]AnalyzerConfig `yaml:"analyzers"`
	HTTP          HTTPConfig                `yaml:"http"`
	Review        ReviewConfig              `yaml:"review"`
	Store         StoreConfig               `yaml:"store"`
	Observability ObservabilityConfig       `yaml:"observability"`
}

// ServerConfig holds the webhook listener settings.
type ServerConfig struct {
	Port          int    `yaml:"port"`
	WebhookSecret string `yaml:"webhookSecret"`
}

// GitHubConfig identifies the repository under review and how to
// authenticate against the API. Token auth and App auth are alternatives;
// App settings win when fully specified.
type GitHubConfig struct {
	Owner   string          `yaml:"owner"`
	Repo    string          `yaml:"repo"`
	Token   string          `yaml:"token"`
	BaseURL string          `yaml:"baseURL,omitempty"`
	App     GitHubAppConfig `yaml:"app"`
}

// GitHubAppConfig configures GitHub App installation authentication.
type GitHubAppConfig struct {
	ID             int64  `yaml:"id"`
	InstallationID int64  `yaml:"installationID"`
	PrivateKeyPath string `yaml:"privateKeyPath"`
}

// Configured reports whether App auth is fully specified.
func (a GitHubAppConfig) Configured() bool {
	return a.ID != 0 && a.InstallationID != 0 && a.PrivateKeyPath != ""
}

// AnalyzerConfig configures a single static analyzer backend.
type AnalyzerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Kind    string `yaml:"kind"` // "static" or "http"
	URL     string `yaml:"url,omitempty"`
	Token   string `yaml:"token,omitempty"`

	// HTTP overrides (optional, use global HTTP config if not set)
	Timeout    *string `yaml:"timeout,omitempty"`
	MaxRetries *int    `yaml:"maxRetries,omitempty"`
}

// HTTPConfig holds global HTTP client settings.
type HTTPConfig struct {
	Timeout           string  `yaml:"timeout"`
	MaxRetries        int     `yaml:"maxRetries"`
	InitialBackoff    string  `yaml:"initialBackoff"`
	MaxBackoff        string  `yaml:"maxBackoff"`
	BackoffMultiplier float64 `yaml:"backoffMultiplier"`
}

// ReviewConfig tunes the review pipeline.
type ReviewConfig struct {
	// IncludePatterns are doublestar globs a changed file must match to be
	// analyzed. Empty means every changed file is analyzed.
	IncludePatterns []string `yaml:"includePatterns"`

	// MaxConcurrentFiles bounds how many files are downloaded and analyzed
	// in parallel within one commit.
	MaxConcurrentFiles int `yaml:"maxConcurrentFiles"`
}

// StoreConfig configures the optional run-history persistence layer.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ObservabilityConfig configures logging.
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console or json
}
