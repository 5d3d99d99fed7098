// Package config loads service configuration in layers: built-in defaults,
// an optional YAML file, a .env file, then environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	domainconfig "graphdiff/domain/config"
)

// Store backends
const (
	BackendFilesystem = "filesystem"
	BackendBadger     = "badger"
	BackendSQLite     = "sqlite"
	BackendDynamoDB   = "dynamodb"
	BackendMemory     = "memory"
)

// Config holds all application configuration
type Config struct {
	ServerAddress string `yaml:"server_address"`
	Environment   string `yaml:"environment"`
	LogLevel      string `yaml:"log_level"`

	Store    StoreConfig  `yaml:"store"`
	AWS      AWSConfig    `yaml:"aws"`
	Neo4j    Neo4jConfig  `yaml:"neo4j"`
	Features FeatureFlags `yaml:"features"`
	Auth     AuthConfig   `yaml:"auth"`
	Limits   LimitsConfig `yaml:"limits"`
	Cache    CacheConfig  `yaml:"cache"`

	// ConfigFile is the YAML file this config was read from, if any
	ConfigFile string   `yaml:"-"`
	LoadedFrom []string `yaml:"-"`
}

// StoreConfig selects and configures the comparison store
type StoreConfig struct {
	Backend        string        `yaml:"backend"`
	ComparisonsDir string        `yaml:"comparisons_dir"`
	BadgerPath     string        `yaml:"badger_path"`
	SQLitePath     string        `yaml:"sqlite_path"`
	DynamoDBTable  string        `yaml:"dynamodb_table"`
	Timeout        time.Duration `yaml:"timeout"`
}

// AWSConfig holds AWS settings
type AWSConfig struct {
	Region              string `yaml:"region"`
	EventBusName        string `yaml:"event_bus_name"`
	CloudWatchNamespace string `yaml:"cloudwatch_namespace"`
}

// Neo4jConfig points the snapshot importer at a Neo4j server
type Neo4jConfig struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// FeatureFlags toggles optional integrations
type FeatureFlags struct {
	EnableEvents     bool `yaml:"enable_events"`
	EnableMetrics    bool `yaml:"enable_metrics"`
	EnableCloudWatch bool `yaml:"enable_cloudwatch"`
	EnableTracing    bool `yaml:"enable_tracing"`
	EnableAuth       bool `yaml:"enable_auth"`
	EnableCache      bool `yaml:"enable_cache"`
}

// AuthConfig configures bearer-token authentication
type AuthConfig struct {
	JWTSecret          string `yaml:"jwt_secret"`
	JWTIssuer          string `yaml:"jwt_issuer"`
	JWTAudience        string `yaml:"jwt_audience"`
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute"`
}

// LimitsConfig overrides the environment's domain limits. Zero keeps the
// environment default.
type LimitsConfig struct {
	EvolutionWorkers    int   `yaml:"evolution_workers"`
	MaxNodesPerSnapshot int   `yaml:"max_nodes_per_snapshot"`
	MaxLinksPerSnapshot int   `yaml:"max_links_per_snapshot"`
	MaxVersions         int   `yaml:"max_versions"`
	MaxBodyBytes        int64 `yaml:"max_body_bytes"`
}

// CacheConfig configures the stored-comparison read cache
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		ServerAddress: ":8080",
		Environment:   "development",
		LogLevel:      "info",
		Store: StoreConfig{
			Backend:        BackendFilesystem,
			ComparisonsDir: "comparisons",
			BadgerPath:     "data/badger",
			SQLitePath:     "data/graphdiff.db",
			DynamoDBTable:  "graphdiff-comparisons",
			Timeout:        5 * time.Second,
		},
		AWS: AWSConfig{
			Region:              "us-west-2",
			EventBusName:        "graphdiff-events",
			CloudWatchNamespace: "GraphDiff",
		},
		Neo4j: Neo4jConfig{
			URI:      "neo4j://localhost:7687",
			Username: "neo4j",
		},
		Features: FeatureFlags{
			EnableMetrics: true,
			EnableCache:   true,
		},
		Auth: AuthConfig{
			JWTIssuer:          "graphdiff",
			JWTAudience:        "graphdiff-api",
			RateLimitPerMinute: 120,
		},
		Limits: LimitsConfig{
			MaxBodyBytes: 10 << 20,
		},
		Cache: CacheConfig{TTL: 5 * time.Minute},
	}
}

// Loader reads configuration from its layered sources
type Loader struct {
	configFile string
	envFiles   []string
	lookupEnv  func(string) (string, bool)
}

// NewLoader creates a loader reading CONFIG_FILE and .env
func NewLoader() *Loader {
	return &Loader{
		configFile: os.Getenv("CONFIG_FILE"),
		envFiles:   []string{".env"},
		lookupEnv:  os.LookupEnv,
	}
}

// WithConfigFile sets the YAML file to read
func (l *Loader) WithConfigFile(path string) *Loader {
	l.configFile = path
	return l
}

// WithEnvFiles sets the dotenv files to read; missing files are skipped
func (l *Loader) WithEnvFiles(paths ...string) *Loader {
	l.envFiles = paths
	return l
}

// ConfigFile returns the YAML file path, which may be empty
func (l *Loader) ConfigFile() string {
	return l.configFile
}

// Load builds and validates the configuration
func (l *Loader) Load() (*Config, error) {
	cfg := Default()
	cfg.LoadedFrom = []string{"defaults"}

	if l.configFile != "" {
		data, err := os.ReadFile(l.configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", l.configFile, err)
		}
		cfg.ConfigFile = l.configFile
		cfg.LoadedFrom = append(cfg.LoadedFrom, l.configFile)
	}

	dotenv := map[string]string{}
	for _, path := range l.envFiles {
		values, err := godotenv.Read(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		for k, v := range values {
			if _, seen := dotenv[k]; !seen {
				dotenv[k] = v
			}
		}
		cfg.LoadedFrom = append(cfg.LoadedFrom, path)
	}

	// Process environment wins over .env
	lookup := func(key string) (string, bool) {
		if v, ok := l.lookupEnv(key); ok && v != "" {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok && v != ""
	}
	if err := applyEnvironment(cfg, lookup); err != nil {
		return nil, err
	}
	cfg.LoadedFrom = append(cfg.LoadedFrom, "environment")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadConfig loads configuration from the default sources
func LoadConfig() (*Config, error) {
	return NewLoader().Load()
}

type envBinding struct {
	key   string
	apply func(string) error
}

func applyEnvironment(cfg *Config, lookup func(string) (string, bool)) error {
	bindings := []envBinding{
		{"SERVER_ADDRESS", setString(&cfg.ServerAddress)},
		{"ENVIRONMENT", setString(&cfg.Environment)},
		{"LOG_LEVEL", setString(&cfg.LogLevel)},

		{"STORE_BACKEND", setString(&cfg.Store.Backend)},
		{"COMPARISONS_DIR", setString(&cfg.Store.ComparisonsDir)},
		{"BADGER_PATH", setString(&cfg.Store.BadgerPath)},
		{"SQLITE_PATH", setString(&cfg.Store.SQLitePath)},
		{"DYNAMODB_TABLE", setString(&cfg.Store.DynamoDBTable)},
		{"STORE_TIMEOUT", setDuration(&cfg.Store.Timeout)},

		{"AWS_REGION", setString(&cfg.AWS.Region)},
		{"EVENT_BUS_NAME", setString(&cfg.AWS.EventBusName)},
		{"CLOUDWATCH_NAMESPACE", setString(&cfg.AWS.CloudWatchNamespace)},

		{"NEO4J_URI", setString(&cfg.Neo4j.URI)},
		{"NEO4J_USERNAME", setString(&cfg.Neo4j.Username)},
		{"NEO4J_PASSWORD", setString(&cfg.Neo4j.Password)},
		{"NEO4J_DATABASE", setString(&cfg.Neo4j.Database)},

		{"ENABLE_EVENTS", setBool(&cfg.Features.EnableEvents)},
		{"ENABLE_METRICS", setBool(&cfg.Features.EnableMetrics)},
		{"ENABLE_CLOUDWATCH", setBool(&cfg.Features.EnableCloudWatch)},
		{"ENABLE_TRACING", setBool(&cfg.Features.EnableTracing)},
		{"ENABLE_AUTH", setBool(&cfg.Features.EnableAuth)},
		{"ENABLE_CACHE", setBool(&cfg.Features.EnableCache)},

		{"JWT_SECRET", setString(&cfg.Auth.JWTSecret)},
		{"JWT_ISSUER", setString(&cfg.Auth.JWTIssuer)},
		{"JWT_AUDIENCE", setString(&cfg.Auth.JWTAudience)},
		{"RATE_LIMIT_PER_MINUTE", setInt(&cfg.Auth.RateLimitPerMinute)},

		{"EVOLUTION_WORKERS", setInt(&cfg.Limits.EvolutionWorkers)},
		{"MAX_NODES_PER_SNAPSHOT", setInt(&cfg.Limits.MaxNodesPerSnapshot)},
		{"MAX_LINKS_PER_SNAPSHOT", setInt(&cfg.Limits.MaxLinksPerSnapshot)},
		{"MAX_VERSIONS", setInt(&cfg.Limits.MaxVersions)},
		{"MAX_BODY_BYTES", setInt64(&cfg.Limits.MaxBodyBytes)},

		{"CACHE_TTL", setDuration(&cfg.Cache.TTL)},
	}

	for _, b := range bindings {
		raw, ok := lookup(b.key)
		if !ok {
			continue
		}
		if err := b.apply(raw); err != nil {
			return fmt.Errorf("invalid %s: %w", b.key, err)
		}
	}
	return nil
}

func setString(dst *string) func(string) error {
	return func(v string) error {
		*dst = v
		return nil
	}
}

func setBool(dst *bool) func(string) error {
	return func(v string) error {
		switch strings.ToLower(v) {
		case "true", "1", "yes", "on":
			*dst = true
		case "false", "0", "no", "off":
			*dst = false
		default:
			return fmt.Errorf("not a boolean: %q", v)
		}
		return nil
	}
}

func setInt(dst *int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}
}

func setInt64(dst *int64) func(string) error {
	return func(v string) error {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}
}

func setDuration(dst *time.Duration) func(string) error {
	return func(v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*dst = d
		return nil
	}
}

// Validate checks the configuration is complete for the selected backend
// and features
func (c *Config) Validate() error {
	if c.ServerAddress == "" {
		return fmt.Errorf("SERVER_ADDRESS is required")
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if c.Store.Timeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be positive")
	}

	switch c.Store.Backend {
	case BackendFilesystem:
		if c.Store.ComparisonsDir == "" {
			return fmt.Errorf("COMPARISONS_DIR is required for the filesystem store")
		}
	case BackendBadger:
		if c.Store.BadgerPath == "" {
			return fmt.Errorf("BADGER_PATH is required for the badger store")
		}
	case BackendSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite store")
		}
	case BackendDynamoDB:
		if c.Store.DynamoDBTable == "" || c.AWS.Region == "" {
			return fmt.Errorf("DYNAMODB_TABLE and AWS_REGION are required for the dynamodb store")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend)
	}

	if c.Features.EnableEvents && c.AWS.EventBusName == "" {
		return fmt.Errorf("EVENT_BUS_NAME is required when events are enabled")
	}
	if c.Features.EnableAuth && c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when auth is enabled")
	}
	if c.IsProduction() && c.Store.Backend == BackendMemory {
		return fmt.Errorf("the memory store is not allowed in production")
	}
	if c.Limits.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive")
	}

	return c.DomainConfig().Validate()
}

// DomainConfig returns the environment's domain limits with overrides applied
func (c *Config) DomainConfig() *domainconfig.DomainConfig {
	d := domainconfig.LoadDomainConfig(c.Environment)
	if c.Limits.EvolutionWorkers != 0 {
		d.EvolutionWorkers = c.Limits.EvolutionWorkers
	}
	if c.Limits.MaxNodesPerSnapshot != 0 {
		d.MaxNodesPerSnapshot = c.Limits.MaxNodesPerSnapshot
	}
	if c.Limits.MaxLinksPerSnapshot != 0 {
		d.MaxLinksPerSnapshot = c.Limits.MaxLinksPerSnapshot
	}
	if c.Limits.MaxVersions != 0 {
		d.MaxVersions = c.Limits.MaxVersions
	}
	return d
}

// Level returns the parsed log level, defaulting to info
func (c *Config) Level() zapcore.Level {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
