package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Config holds the application configuration
type Config struct {
	Timeout    time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=10s,description=Feed fetch timeout"`
	ReAlert    time.Duration `yaml:"re_alert" json:"re_alert" jsonschema:"default=24h,description=Re-alert interval for future-dated entries"`
	NoNotify   bool          `yaml:"no_notify" json:"no_notify" jsonschema:"default=false,description=Disable email and chat notifications globally"`
	TZ         string        `yaml:"tz" json:"tz" jsonschema:"description=Display timezone for alert dates (IANA name),example=America/New_York"`
	LogLevel   string        `yaml:"loglevel" json:"loglevel" jsonschema:"enum=debug,enum=info,enum=warn,enum=error,description=Log level"`
	MaxWorkers int           `yaml:"max_workers" json:"max_workers" jsonschema:"default=0,minimum=0,description=Maximum feeds processed concurrently (0 is unlimited)"`

	Severity       SeverityConfig    `yaml:"severity" json:"severity" jsonschema:"description=Keywords used to classify entry severity"`
	TimezoneFixups map[string]string `yaml:"timezone_fixups" json:"timezone_fixups,omitempty" jsonschema:"description=Extra timezone abbreviations mapped to UTC offsets"`

	Storage StorageConfig `yaml:"storage" json:"storage" jsonschema:"description=State storage backend"`
	Locking LockingConfig `yaml:"locking" json:"locking" jsonschema:"description=Global run lock backend"`
	Server  ServerConfig  `yaml:"server" json:"server" jsonschema:"description=Status server, used in daemon mode"`

	Outputs    Outputs `yaml:"outputs" json:"outputs" jsonschema:"description=Global output settings"`
	FeedGroups []Group `yaml:"feedgroups" json:"feedgroups" jsonschema:"description=Groups of feeds"`
}

// SeverityConfig holds classifier keyword sets
type SeverityConfig struct {
	Good    []string `yaml:"good" json:"good,omitempty" jsonschema:"description=Keywords of resolved events"`
	Warning []string `yaml:"warning" json:"warning,omitempty" jsonschema:"description=Keywords of in-progress events"`
}

// Group is a named set of feeds sharing credentials and outputs
type Group struct {
	Name           string  `yaml:"name" json:"name" jsonschema:"required,description=Group name"`
	Username       string  `yaml:"username" json:"username,omitempty" jsonschema:"description=Basic auth user for all feeds of the group"`
	Password       string  `yaml:"password" json:"password,omitempty" jsonschema:"description=Basic auth password for all feeds of the group"`
	AlertOnFailure bool    `yaml:"alert_on_failure" json:"alert_on_failure" jsonschema:"default=false,description=Alert when a feed can't be fetched"`
	Outputs        Outputs `yaml:"outputs" json:"outputs" jsonschema:"description=Group output overrides"`
	Feeds          []Feed  `yaml:"feeds" json:"feeds" jsonschema:"description=Feeds of the group"`
}

// Feed is a single configured feed
type Feed struct {
	Name           string  `yaml:"name" json:"name" jsonschema:"required,description=Feed name"`
	URL            string  `yaml:"url" json:"url" jsonschema:"required,description=Feed URL"`
	Username       string  `yaml:"username" json:"username,omitempty" jsonschema:"description=Basic auth user overriding the group one"`
	Password       string  `yaml:"password" json:"password,omitempty" jsonschema:"description=Basic auth password overriding the group one"`
	AlertOnFailure *bool   `yaml:"alert_on_failure" json:"alert_on_failure,omitempty" jsonschema:"description=Overrides group alert_on_failure"`
	Outputs        Outputs `yaml:"outputs" json:"outputs" jsonschema:"description=Feed output overrides"`
}

// StorageConfig selects and configures the state backend
type StorageConfig struct {
	Type   string       `yaml:"type" json:"type" jsonschema:"enum=file,enum=sqlite,enum=redis,default=file,description=Storage backend"`
	File   FileConfig   `yaml:"file" json:"file" jsonschema:"description=File backend"`
	SQLite SQLiteConfig `yaml:"sqlite" json:"sqlite" jsonschema:"description=SQLite backend"`
	Redis  RedisConfig  `yaml:"redis" json:"redis" jsonschema:"description=Redis backend"`
}

// LockingConfig selects and configures the lock backend
type LockingConfig struct {
	Type     string        `yaml:"type" json:"type" jsonschema:"enum=file,enum=sqlite,enum=redis,default=file,description=Locking backend"`
	Name     string        `yaml:"name" json:"name" jsonschema:"default=rssalert-main,description=Lock name"`
	Lease    time.Duration `yaml:"lease" json:"lease" jsonschema:"default=1h,description=Lock lease time"`
	Wait     time.Duration `yaml:"wait" json:"wait" jsonschema:"default=5s,description=Delay between lock attempts"`
	Attempts int           `yaml:"attempts" json:"attempts" jsonschema:"default=1,minimum=1,description=Lock acquisition attempts"`
	File     FileConfig    `yaml:"file" json:"file" jsonschema:"description=File backend"`
	SQLite   SQLiteConfig  `yaml:"sqlite" json:"sqlite" jsonschema:"description=SQLite backend"`
	Redis    RedisConfig   `yaml:"redis" json:"redis" jsonschema:"description=Redis backend"`
}

// FileConfig configures file based backends
type FileConfig struct {
	Path string `yaml:"path" json:"path" jsonschema:"description=Directory for state or lock files"`
}

// SQLiteConfig configures sqlite based backends
type SQLiteConfig struct {
	DSN string `yaml:"dsn" json:"dsn" jsonschema:"default=file:rssalert.db?cache=shared&mode=rwc&_txlock=immediate,description=Database connection string"`
}

// RedisConfig configures redis based backends
type RedisConfig struct {
	Addr     string        `yaml:"addr" json:"addr" jsonschema:"default=localhost:6379,description=Redis address"`
	Username string        `yaml:"username" json:"username,omitempty" jsonschema:"description=Redis user"`
	Password string        `yaml:"password" json:"password,omitempty" jsonschema:"description=Redis password"`
	DB       int           `yaml:"db" json:"db" jsonschema:"default=0,description=Redis database number"`
	Prefix   string        `yaml:"prefix" json:"prefix" jsonschema:"default=rssalert:,description=Key prefix"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Total time to retry connecting"`
}

// ServerConfig configures the status server
type ServerConfig struct {
	Listen  string        `yaml:"listen" json:"listen" jsonschema:"default=:8080,description=HTTP server listen address"`
	Timeout time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=HTTP server timeout"`
}

// Load reads configuration from YAML/JSON files or conf.d directories.
// Later paths override earlier ones, leaf by leaf.
func Load(paths ...string) (*Config, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no config files")
	}

	var cfg Config
	for _, p := range paths {
		if err := loadPath(p, &cfg); err != nil {
			return nil, err
		}
	}

	setDefaults(&cfg)

	// validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// verify against embedded schema
	if err := VerifyAgainstEmbeddedSchema(&cfg); err != nil {
		// log warning but don't fail - schema validation is supplementary
		fmt.Printf("warning: schema validation failed: %v\n", err)
	}

	return &cfg, nil
}

// loadPath loads a single file or all yaml files of a directory, in lexical order
func loadPath(path string, cfg *Config) error {
	st, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if !st.IsDir() {
		return loadFile(path, cfg)
	}

	dirEntries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("read config dir: %w", err)
	}
	names := make([]string, 0, len(dirEntries))
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if ext := filepath.Ext(name); ext != ".yaml" && ext != ".yml" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := loadFile(filepath.Join(path, name), cfg); err != nil {
			return err
		}
	}
	return nil
}

// loadFile decodes a file on top of cfg. Decoding into the already populated struct keeps
// every key the file doesn't mention, so files layer per leaf.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	// json is a subset of yaml, one decoder keeps field names and duration parsing the same
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml", ".json":
	default:
		return fmt.Errorf("parse config %s: unknown file format", path)
	}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func setDefaults(cfg *Config) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.ReAlert == 0 {
		cfg.ReAlert = 24 * time.Hour
	}

	// storage defaults
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "file"
	}
	setBackendDefaults(&cfg.Storage.File, &cfg.Storage.SQLite, &cfg.Storage.Redis, "/var/run/rss_state", "rssalert:state:")

	// locking defaults
	if cfg.Locking.Type == "" {
		cfg.Locking.Type = "file"
	}
	if cfg.Locking.Name == "" {
		cfg.Locking.Name = "rssalert-main"
	}
	if cfg.Locking.Lease == 0 {
		cfg.Locking.Lease = time.Hour
	}
	if cfg.Locking.Wait == 0 {
		cfg.Locking.Wait = 5 * time.Second
	}
	if cfg.Locking.Attempts == 0 {
		cfg.Locking.Attempts = 1
	}
	setBackendDefaults(&cfg.Locking.File, &cfg.Locking.SQLite, &cfg.Locking.Redis, "/var/lock", "rssalert:lock:")

	// server defaults
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8080"
	}
	if cfg.Server.Timeout == 0 {
		cfg.Server.Timeout = 30 * time.Second
	}
}

func setBackendDefaults(f *FileConfig, s *SQLiteConfig, r *RedisConfig, path, prefix string) {
	if f.Path == "" {
		f.Path = path
	}
	if s.DSN == "" {
		s.DSN = "file:rssalert.db?cache=shared&mode=rwc&_txlock=immediate"
	}
	if r.Addr == "" {
		r.Addr = "localhost:6379"
	}
	if r.Prefix == "" {
		r.Prefix = prefix
	}
	if r.Timeout == 0 {
		r.Timeout = 30 * time.Second
	}
}

// validate checks configuration for correctness
func validate(cfg *Config) error {
	if cfg.Timeout < time.Second {
		return fmt.Errorf("timeout must be at least 1 second")
	}
	if cfg.ReAlert <= 0 {
		return fmt.Errorf("re_alert must be positive")
	}
	if cfg.MaxWorkers < 0 {
		return fmt.Errorf("max_workers must be non-negative")
	}
	if _, err := cfg.Location(); err != nil {
		return err
	}

	for _, t := range []string{cfg.Storage.Type, cfg.Locking.Type} {
		switch t {
		case "file", "sqlite", "redis":
		default:
			return fmt.Errorf("unknown backend type %q", t)
		}
	}
	if cfg.Locking.Attempts < 1 {
		return fmt.Errorf("locking.attempts must be at least 1")
	}

	for i, g := range cfg.FeedGroups {
		if g.Name == "" {
			return fmt.Errorf("feedgroups[%d].name is required", i)
		}
		for j, f := range g.Feeds {
			if f.Name == "" {
				return fmt.Errorf("feedgroups[%d].feeds[%d].name is required", i, j)
			}
			if f.URL == "" {
				return fmt.Errorf("feed %s-%s: url is required", g.Name, f.Name)
			}
		}
	}

	if err := cfg.Outputs.Slack.validateLevels(); err != nil {
		return err
	}
	for _, g := range cfg.FeedGroups {
		if err := g.Outputs.Slack.validateLevels(); err != nil {
			return fmt.Errorf("group %s: %w", g.Name, err)
		}
		for _, f := range g.Feeds {
			if err := f.Outputs.Slack.validateLevels(); err != nil {
				return fmt.Errorf("feed %s-%s: %w", g.Name, f.Name, err)
			}
		}
	}

	return nil
}

// Location returns the display timezone, local time if not set
func (c *Config) Location() (*time.Location, error) {
	if c.TZ == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.TZ)
	if err != nil {
		return nil, fmt.Errorf("invalid tz %q: %w", c.TZ, err)
	}
	return loc, nil
}

// FeedCount returns the number of configured feeds in all groups
func (c *Config) FeedCount() int {
	n := 0
	for _, g := range c.FeedGroups {
		n += len(g.Feeds)
	}
	return n
}

// Secrets returns configured passwords and tokens, to be masked in logs
func (c *Config) Secrets() []string {
	var res []string
	add := func(vals ...string) {
		for _, v := range vals {
			if v != "" {
				res = append(res, v)
			}
		}
	}
	outputSecrets := func(o Outputs) {
		add(o.Email.Password, o.Slack.Token)
	}
	add(c.Storage.Redis.Password, c.Locking.Redis.Password)
	outputSecrets(c.Outputs)
	for _, g := range c.FeedGroups {
		add(g.Password)
		outputSecrets(g.Outputs)
		for _, f := range g.Feeds {
			add(f.Password)
			outputSecrets(f.Outputs)
		}
	}
	return res
}

// GetServerConfig returns server configuration
func (c *Config) GetServerConfig() (listen string, timeout time.Duration) {
	return c.Server.Listen, c.Server.Timeout
}
