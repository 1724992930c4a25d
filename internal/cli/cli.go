package cli

import (
	"cmp"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/drawbridge/pkg/cache"
	"github.com/matzehuels/drawbridge/pkg/checkip"
	"github.com/matzehuels/drawbridge/pkg/cloud"
	cloudaws "github.com/matzehuels/drawbridge/pkg/cloud/aws"
	"github.com/matzehuels/drawbridge/pkg/config"
	"github.com/matzehuels/drawbridge/pkg/dns"
	dnsaws "github.com/matzehuels/drawbridge/pkg/dns/aws"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "drawbridge"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// Backends connects to the cloud and DNS provider described by cfg.
type Backends func(ctx context.Context, cfg config.Config, c cache.Cache) (cloud.Cloud, dns.Provider, error)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Backends defaults to AWS (EC2 and Route53).
	Backends Backends

	flags globalFlags

	cfgOnce sync.Once
	cfg     config.Config
	cfgErr  error
}

// globalFlags are the persistent flags of the root command.
type globalFlags struct {
	verbose     bool
	configPath  string
	region      string
	profile     string
	noCache     bool
	noHistory   bool
	metricsFile string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:   newLogger(w, level),
		Backends: awsBackends,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// =============================================================================
// Configuration
// =============================================================================

// configPath returns --config if given, otherwise the default location.
func (c *CLI) configPath() (string, error) {
	if c.flags.configPath != "" {
		return c.flags.configPath, nil
	}
	return config.Path()
}

// config loads the configuration file once and applies flag overrides.
func (c *CLI) config() (config.Config, error) {
	c.cfgOnce.Do(func() {
		path, err := c.configPath()
		if err != nil {
			c.cfgErr = err
			return
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.cfgErr = err
			return
		}
		if c.flags.region != "" {
			cfg.AWS.Region = c.flags.region
		}
		if c.flags.profile != "" {
			cfg.AWS.Profile = c.flags.profile
		}
		c.cfg = cfg
	})
	return c.cfg, c.cfgErr
}

// =============================================================================
// Backend Factory
// =============================================================================

// awsBackends builds the EC2 cloud and the Route53 DNS provider.
func awsBackends(ctx context.Context, cfg config.Config, zoneCache cache.Cache) (cloud.Cloud, dns.Provider, error) {
	logger := loggerFromContext(ctx)

	awsCfg, err := cloudaws.LoadConfig(ctx, cfg.AWS.Region, cfg.AWS.Profile)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("loaded AWS configuration", "region", awsCfg.Region, "profile", cfg.AWS.Profile)

	ec2 := cloudaws.New(awsCfg, cloudaws.Options{
		TagKey:   cfg.AWS.TagKey,
		TagValue: cfg.AWS.TagValue,
		Wait: cloud.Waiter{
			Interval: cfg.Wait.PollInterval.Duration,
			Timeout:  cfg.Wait.Timeout.Duration,
		},
		Logger: logger,
	})

	route53 := dnsaws.New(awsCfg, dnsaws.Options{
		TTL:          cfg.DNS.TTL,
		Cache:        zoneCache,
		Keyer:        cache.NewScopedKeyer(cache.NewDefaultKeyer(), zoneCacheScope(ctx, awsCfg.Credentials, cfg.AWS.Profile)),
		ZoneCacheTTL: cfg.DNS.ZoneCacheTTL.Duration,
		Logger:       logger,
	})
	return ec2, route53, nil
}

// zoneCacheScope returns the cache key prefix for hosted zones. Zones belong
// to an account, so the prefix is derived from the access key in use and
// falls back to the profile name when no credentials can be retrieved.
func zoneCacheScope(ctx context.Context, creds aws.CredentialsProvider, profile string) string {
	if creds != nil {
		if c, err := creds.Retrieve(ctx); err == nil && c.AccessKeyID != "" {
			return "key:" + cache.Hash([]byte(c.AccessKeyID))[:16] + ":"
		}
	}
	return "profile:" + cmp.Or(profile, os.Getenv("AWS_PROFILE"), "default") + ":"
}

// newCache opens the file cache, falling back to no caching.
func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// newCheckIP returns a client for the configured checkip service.
func newCheckIP(cfg config.Config) *checkip.Client {
	client := checkip.New()
	client.URL = cfg.CheckIP.URL
	return client
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/drawbridge/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
