package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/de-tools/posture-atlas/pkg/services/controls"
	"github.com/de-tools/posture-atlas/pkg/services/controls/sources"
	"github.com/de-tools/posture-atlas/pkg/services/controls/sources/orgpolicy"
	"github.com/de-tools/posture-atlas/pkg/services/hierarchy"
	"github.com/de-tools/posture-atlas/pkg/services/refresh"
	"github.com/de-tools/posture-atlas/pkg/store/backend"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "POSTURE"

type Config struct {
	OrganizationID string          `mapstructure:"organization_id"`
	Workers        int             `mapstructure:"workers"`
	Sources        []string        `mapstructure:"sources"`
	OrgPolicy      OrgPolicyConfig `mapstructure:"org_policy"`
	Hierarchy      HierarchyConfig `mapstructure:"hierarchy"`
	Refresh        RefreshConfig   `mapstructure:"refresh"`
	Cache          CacheConfig     `mapstructure:"cache"`
	Server         ServerConfig    `mapstructure:"server"`
}

type OrgPolicyConfig struct {
	Constraints []string `mapstructure:"constraints"`
	Concurrency int      `mapstructure:"concurrency"`
}

type HierarchyConfig struct {
	MaxDepth    int `mapstructure:"max_depth"`
	Concurrency int `mapstructure:"concurrency"`
}

type RefreshConfig struct {
	ProjectTimeout time.Duration `mapstructure:"project_timeout"`
}

type CacheConfig struct {
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	DSN       string `mapstructure:"dsn"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	PathStyle bool   `mapstructure:"path_style"`
	Prefix    string `mapstructure:"prefix"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Load reads the optional config file at path and overlays POSTURE_* environment
// variables. Variables from a .env file in the working directory are loaded
// first when the file exists.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("organization_id", "")
	v.SetDefault("workers", 5)
	v.SetDefault("sources", controls.DefaultSourceIDs())
	v.SetDefault("org_policy.constraints", orgpolicy.DefaultConstraints())
	v.SetDefault("org_policy.concurrency", 8)
	v.SetDefault("hierarchy.max_depth", 32)
	v.SetDefault("hierarchy.concurrency", 4)
	v.SetDefault("refresh.project_timeout", 5*time.Minute)
	v.SetDefault("cache.driver", backend.DriverDuckDB)
	v.SetDefault("cache.path", "")
	v.SetDefault("cache.dsn", "")
	v.SetDefault("cache.bucket", "")
	v.SetDefault("cache.region", "")
	v.SetDefault("cache.endpoint", "")
	v.SetDefault("cache.path_style", false)
	v.SetDefault("cache.prefix", "")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
}

// Validate reports every problem found in the configuration at once.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.OrganizationID) == "" {
		errs = append(errs, errors.New("organization_id is required"))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if len(c.Sources) == 0 {
		errs = append(errs, errors.New("at least one source must be configured"))
	}
	known := controls.DefaultSourceIDs()
	seen := make(map[string]bool, len(c.Sources))
	for _, id := range c.Sources {
		if seen[id] {
			errs = append(errs, fmt.Errorf("source %q is listed twice", id))
		}
		seen[id] = true
		if !slices.Contains(known, id) {
			errs = append(errs, fmt.Errorf("unknown source %q", id))
		}
	}
	if seen[controls.SourceOrgPolicies] && len(c.OrgPolicy.Constraints) == 0 {
		errs = append(errs, errors.New("org_policy.constraints must not be empty when org_policies is enabled"))
	}
	if c.Hierarchy.MaxDepth < 1 {
		errs = append(errs, fmt.Errorf("hierarchy.max_depth must be at least 1, got %d", c.Hierarchy.MaxDepth))
	}
	if !slices.Contains(backend.Drivers(), c.Cache.Driver) {
		errs = append(errs, fmt.Errorf("unknown cache driver %q, expected one of %s",
			c.Cache.Driver, strings.Join(backend.Drivers(), ", ")))
	}
	if c.Cache.Driver == backend.DriverPostgres && c.Cache.DSN == "" {
		errs = append(errs, errors.New("cache.dsn is required for the postgres driver"))
	}
	if c.Cache.Driver == backend.DriverS3 && c.Cache.Bucket == "" {
		errs = append(errs, errors.New("cache.bucket is required for the s3 driver"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

func (c *Config) ResolverSettings() hierarchy.Settings {
	return hierarchy.Settings{
		OrganizationID: c.OrganizationID,
		MaxDepth:       c.Hierarchy.MaxDepth,
		Concurrency:    c.Hierarchy.Concurrency,
	}
}

func (c *Config) SourceSettings() sources.Settings {
	return sources.Settings{
		OrganizationID:    c.OrganizationID,
		Constraints:       c.OrgPolicy.Constraints,
		PolicyConcurrency: c.OrgPolicy.Concurrency,
	}
}

func (c *Config) ControllerConfig() refresh.Config {
	return refresh.Config{
		OrganizationID: c.OrganizationID,
		Workers:        c.Workers,
		ProjectTimeout: c.Refresh.ProjectTimeout,
	}
}

func (c *Config) BackendSettings() backend.Settings {
	return backend.Settings{
		Driver:    c.Cache.Driver,
		Path:      c.Cache.Path,
		DSN:       c.Cache.DSN,
		Bucket:    c.Cache.Bucket,
		Region:    c.Cache.Region,
		Endpoint:  c.Cache.Endpoint,
		PathStyle: c.Cache.PathStyle,
		Prefix:    c.Cache.Prefix,
	}
}

func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}
