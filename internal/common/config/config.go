// internal/common/config/config.go
package config

import (
	"fmt"
	"strings"
)

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig               `mapstructure:"app"`
	Server   ServerConfig            `mapstructure:"server"`
	Camunda  CamundaConfig           `mapstructure:"camunda"`
	Database DatabaseConfig          `mapstructure:"database"`
	OpenData OpenDataConfig          `mapstructure:"opendata"`
	QueryLog QueryLogConfig          `mapstructure:"query_log"`
	Workers  map[string]WorkerConfig `mapstructure:"workers"`
	Logging  LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address      string `mapstructure:"address"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout int    `mapstructure:"write_timeout"` // milliseconds
}

// CamundaConfig is optional. Workers start only when BrokerAddress is set.
type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

// Enabled reports whether a broker is configured.
func (c CamundaConfig) Enabled() bool {
	return c.BrokerAddress != ""
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"` // Single URL for backwards compatibility
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// --- Open data ---

// OpenDataConfig configures dataset lookup and the outbound dispatcher.
type OpenDataConfig struct {
	RegistryPath  string            `mapstructure:"registry_path"`
	Timeout       int               `mapstructure:"timeout"` // milliseconds
	MaxConcurrent int               `mapstructure:"max_concurrent"`
	CacheEnabled  bool              `mapstructure:"cache_enabled"`
	CacheTTL      int               `mapstructure:"cache_ttl"` // seconds
	Credentials   map[string]string `mapstructure:"credentials"`
}

// Credential returns the API key configured for a dataset id.
// Blank keys count as absent.
func (o OpenDataConfig) Credential(datasetID string) (string, bool) {
	key, ok := o.Credentials[strings.ToLower(datasetID)]
	if !ok || strings.TrimSpace(key) == "" {
		return "", false
	}
	return key, true
}

// CredentialEnvVars maps built-in dataset ids to the environment variables
// their API keys are read from when the config file leaves them empty.
var CredentialEnvVars = map[string]string{
	"petroleum_consumption": "PETROLEUM_API_KEY",
	"aviation_grievance":    "AVIATION_GRI_API_KEY",
	"flight_schedule":       "FLIGHT_SCHEDULE_API_KEY",
	"aviation_faqs":         "AV_FAQ_API_KEY",
	"airport_services":      "AIRPORT_SERVICES_API_KEY",
}

// Query log sinks.
const (
	SinkNone          = "none"
	SinkPostgres      = "postgres"
	SinkElasticsearch = "elasticsearch"
)

// QueryLogConfig selects where answered queries are recorded.
type QueryLogConfig struct {
	Sink  string `mapstructure:"sink"`
	Table string `mapstructure:"table"`
	Index string `mapstructure:"index"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
	// TraceSpans logs every finished span at debug level.
	TraceSpans bool `mapstructure:"trace_spans"`
}
