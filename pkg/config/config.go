// Package config loads drawbridge's TOML configuration file.
//
// The file is optional; a missing file yields [Default]. Command-line flags
// override values from the file. Example:
//
//	[aws]
//	region = "eu-central-1"
//	profile = "work"
//	tag_key = "drawbridge"
//	tag_value = "true"
//
//	[dns]
//	ttl = 60
//	zone_cache_ttl = "1h"
//
//	[wait]
//	poll_interval = "2s"
//	timeout = "10m"
//	concurrency = 4
//
//	[checkip]
//	url = "https://checkip.amazonaws.com/"
//
//	[aliases]
//	postgres = "5432/tcp"
//
//	[defaults]
//	sources = ["self"]
//	protocols = ["ssh"]
package config

import (
	stderrors "errors"
	"io"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/drawbridge/pkg/checkip"
	"github.com/matzehuels/drawbridge/pkg/errors"
	"github.com/matzehuels/drawbridge/pkg/iprules"
)

// EnvPath names the environment variable that overrides the config location.
const EnvPath = "DRAWBRIDGE_CONFIG"

// Config is the parsed configuration file.
type Config struct {
	AWS      AWS               `toml:"aws"`
	DNS      DNS               `toml:"dns"`
	Wait     Wait              `toml:"wait"`
	CheckIP  CheckIP           `toml:"checkip"`
	Aliases  map[string]string `toml:"aliases"`
	Defaults Defaults          `toml:"defaults"`
}

// AWS selects the account, region, and the tag marking managed resources.
type AWS struct {
	Region   string `toml:"region"`
	Profile  string `toml:"profile"`
	TagKey   string `toml:"tag_key"`
	TagValue string `toml:"tag_value"`
}

// DNS controls record TTLs and the hosted-zone cache.
type DNS struct {
	TTL          int64    `toml:"ttl"`
	ZoneCacheTTL Duration `toml:"zone_cache_ttl"`
}

// Wait controls instance state polling and parallelism.
type Wait struct {
	PollInterval Duration `toml:"poll_interval"`
	Timeout      Duration `toml:"timeout"`
	Concurrency  int      `toml:"concurrency"`
}

// CheckIP locates the service that resolves the "self" source.
type CheckIP struct {
	URL string `toml:"url"`
}

// Defaults fill in open's --source and --protocol when none are given.
type Defaults struct {
	Sources   []string `toml:"sources"`
	Protocols []string `toml:"protocols"`
}

// Duration is a time.Duration written as a string such as "90s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		AWS: AWS{
			TagKey:   "drawbridge",
			TagValue: "true",
		},
		DNS: DNS{
			TTL:          60,
			ZoneCacheTTL: Duration{time.Hour},
		},
		Wait: Wait{
			PollInterval: Duration{time.Second},
			Timeout:      Duration{10 * time.Minute},
			Concurrency:  4,
		},
		CheckIP: CheckIP{URL: checkip.DefaultURL},
		Aliases: map[string]string{},
	}
}

// Path returns the config file location: $DRAWBRIDGE_CONFIG if set,
// otherwise drawbridge/config.toml under $XDG_CONFIG_HOME or ~/.config.
func Path() (string, error) {
	if p := os.Getenv(EnvPath); p != "" {
		return p, nil
	}
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "cannot locate config directory")
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "drawbridge", "config.toml"), nil
}

// Load reads the file at path over [Default]. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if stderrors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid config file %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errors.New(errors.ErrCodeInvalidConfig, "unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	if cfg.Aliases == nil {
		cfg.Aliases = map[string]string{}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges and that aliases and defaults parse.
func (c Config) Validate() error {
	switch {
	case c.AWS.TagKey == "":
		return errors.New(errors.ErrCodeInvalidConfig, "aws.tag_key must not be empty")
	case c.DNS.TTL <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "dns.ttl must be positive, got %d", c.DNS.TTL)
	case c.DNS.ZoneCacheTTL.Duration < 0:
		return errors.New(errors.ErrCodeInvalidConfig, "dns.zone_cache_ttl must not be negative")
	case c.Wait.PollInterval.Duration <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "wait.poll_interval must be positive")
	case c.Wait.Timeout.Duration < c.Wait.PollInterval.Duration:
		return errors.New(errors.ErrCodeInvalidConfig, "wait.timeout must be at least wait.poll_interval")
	case c.Wait.Concurrency < 1:
		return errors.New(errors.ErrCodeInvalidConfig, "wait.concurrency must be at least 1, got %d", c.Wait.Concurrency)
	}

	if err := errors.ValidateURL(c.CheckIP.URL); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "checkip.url")
	}

	aliases, err := c.ProtocolAliases()
	if err != nil {
		return err
	}
	for _, p := range c.Defaults.Protocols {
		if _, _, err := aliases.Expand(p); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "defaults.protocols")
		}
	}
	for _, s := range c.Defaults.Sources {
		if s == iprules.SelfSource {
			continue
		}
		if _, err := iprules.ParseSource(s); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "defaults.sources")
		}
	}
	return nil
}

// ProtocolAliases returns the built-in aliases extended by [aliases].
func (c Config) ProtocolAliases() (iprules.Aliases, error) {
	extra := make(iprules.Aliases, len(c.Aliases))
	for _, name := range slices.Sorted(maps.Keys(c.Aliases)) {
		p, err := iprules.ParseProtocol(c.Aliases[name])
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "aliases.%s", name)
		}
		extra[name] = p
	}
	return iprules.DefaultAliases().With(extra), nil
}

// Encode writes c as TOML.
func Encode(w io.Writer, c Config) error {
	return toml.NewEncoder(w).Encode(c)
}
