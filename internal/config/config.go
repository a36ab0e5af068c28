// Package config loads dbcrawl settings from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/koba/dbcrawl/internal/database"
	"github.com/koba/dbcrawl/internal/filter"
	"github.com/koba/dbcrawl/internal/infolevel"
)

// Config represents the dbcrawl configuration
type Config struct {
	Database DatabaseConfig    `mapstructure:"database"`
	Crawl    CrawlConfig       `mapstructure:"crawl"`
	Queries  map[string]string `mapstructure:"queries"`
	Log      LogConfig         `mapstructure:"log"`
}

// DatabaseConfig represents the connection settings
type DatabaseConfig struct {
	Type     string `mapstructure:"type"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Path     string `mapstructure:"path"`
}

// RuleConfig holds the include and exclude patterns of one rule
type RuleConfig struct {
	Include string `mapstructure:"include"`
	Exclude string `mapstructure:"exclude"`
}

// CrawlConfig represents what a crawl retrieves
type CrawlConfig struct {
	InfoLevel        string     `mapstructure:"info_level"`
	TableNamePattern string     `mapstructure:"table_name_pattern"`
	TableTypes       []string   `mapstructure:"table_types"`
	SortAlphabetical bool       `mapstructure:"sort_alphabetical"`
	Schemas          RuleConfig `mapstructure:"schemas"`
	Tables           RuleConfig `mapstructure:"tables"`
	Columns          RuleConfig `mapstructure:"columns"`
	Procedures       RuleConfig `mapstructure:"procedures"`
	ProcedureColumns RuleConfig `mapstructure:"procedure_columns"`

	// Flags switches single retrievals on or off on top of InfoLevel
	Flags map[string]bool `mapstructure:"flags"`

	// Grep keeps the matching tables and the tables within the depths
	Grep             GrepConfig `mapstructure:"grep"`
	ParentTableDepth int        `mapstructure:"parent_table_depth"`
	ChildTableDepth  int        `mapstructure:"child_table_depth"`
}

// GrepConfig selects tables by their columns and definitions. A rule
// without patterns is not applied.
type GrepConfig struct {
	Columns     RuleConfig `mapstructure:"columns"`
	Definitions RuleConfig `mapstructure:"definitions"`
	Invert      bool       `mapstructure:"invert"`
}

// LogConfig represents logger settings
type LogConfig struct {
	Mode  string `mapstructure:"mode"`
	Level string `mapstructure:"level"`
}

// environment maps configuration keys to the variables the tool has always read
var environment = map[string]string{
	"database.type":     "DB_TYPE",
	"database.host":     "DB_HOST",
	"database.port":     "DB_PORT",
	"database.name":     "DB_NAME",
	"database.user":     "DB_USER",
	"database.password": "DB_PASSWORD",
	"database.path":     "DB_PATH",
}

// Load loads the configuration from path, or from dbcrawl.yaml in the
// working directory when path is empty. A missing dbcrawl.yaml is not an
// error; a missing explicit path is.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("database.type", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "")
	v.SetDefault("database.name", "")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.path", "")
	v.SetDefault("crawl.info_level", infolevel.Standard().Tag())
	v.SetDefault("crawl.table_name_pattern", "")
	v.SetDefault("crawl.table_types", []string{})
	v.SetDefault("crawl.sort_alphabetical", false)
	for _, rule := range []string{"schemas", "tables", "columns", "procedures", "procedure_columns", "grep.columns", "grep.definitions"} {
		v.SetDefault("crawl."+rule+".include", "")
		v.SetDefault("crawl."+rule+".exclude", "")
	}
	v.SetDefault("crawl.grep.invert", false)
	v.SetDefault("crawl.parent_table_depth", 0)
	v.SetDefault("crawl.child_table_depth", 0)
	v.SetDefault("log.mode", "development")
	v.SetDefault("log.level", "warn")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("dbcrawl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Enable environment variable support
	for key, env := range environment {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}
	v.SetEnvPrefix("DBCRAWL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// validateConfig validates the configuration and fills in engine defaults
func validateConfig(cfg *Config) error {
	if cfg.Database.Type != "" {
		if _, err := database.NewSource(cfg.Source()); err != nil {
			return fmt.Errorf("database.type: %w", err)
		}
		if cfg.Database.Port == "" {
			cfg.Database.Port = database.DefaultPort(cfg.Database.Type)
		}
	}

	if _, err := cfg.Crawl.Level(); err != nil {
		return fmt.Errorf("crawl: %w", err)
	}

	rules := map[string]RuleConfig{
		"schemas":           cfg.Crawl.Schemas,
		"tables":            cfg.Crawl.Tables,
		"columns":           cfg.Crawl.Columns,
		"procedures":        cfg.Crawl.Procedures,
		"procedure_columns": cfg.Crawl.ProcedureColumns,
		"grep.columns":      cfg.Crawl.Grep.Columns,
		"grep.definitions":  cfg.Crawl.Grep.Definitions,
	}
	for name, rule := range rules {
		if _, err := rule.Rule(); err != nil {
			return fmt.Errorf("crawl.%s: %w", name, err)
		}
	}

	if cfg.Crawl.ParentTableDepth < 0 || cfg.Crawl.ChildTableDepth < 0 {
		return errors.New("crawl: table depths must not be negative")
	}
	return nil
}

// Source returns the connection settings of the configured database.
func (c *Config) Source() database.Config {
	return database.Config{
		Type:     c.Database.Type,
		Host:     c.Database.Host,
		Port:     c.Database.Port,
		Database: c.Database.Name,
		User:     c.Database.User,
		Password: c.Database.Password,
		Path:     c.Database.Path,
		Queries:  c.Queries,
	}
}

// Rule compiles the patterns.
func (r RuleConfig) Rule() (*filter.Rule, error) {
	return filter.NewRule(r.Include, r.Exclude)
}

// Empty reports whether the rule has no patterns.
func (r RuleConfig) Empty() bool {
	return r.Include == "" && r.Exclude == ""
}

// GrepRule compiles a grep rule, returning nil when it has no patterns.
func (r RuleConfig) GrepRule() (*filter.Rule, error) {
	if r.Empty() {
		return nil, nil
	}
	return r.Rule()
}

// Level returns the configured info level preset, or a custom level derived
// from it when flags are set.
func (c *CrawlConfig) Level() (*infolevel.Level, error) {
	level, err := infolevel.Parse(c.InfoLevel)
	if err != nil || len(c.Flags) == 0 {
		return level, err
	}

	custom := infolevel.Custom(level)
	for name, enabled := range c.Flags {
		flag, ok := infolevel.LookupFlag(name)
		if !ok {
			return nil, fmt.Errorf("unknown retrieval flag: %q", name)
		}
		if err := custom.Set(flag, enabled); err != nil {
			return nil, err
		}
	}
	custom.Lock()
	return custom, nil
}
