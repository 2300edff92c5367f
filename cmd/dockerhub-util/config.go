package main

import (
	"os"
	"time"

	"github.com/lodthe/dockerhub-util/pkg/dockerhub"

	gconfig "github.com/gookit/config/v2"
	gyaml "github.com/gookit/config/v2/yaml"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

const DefaultConfigPath = "dockerhub-util.yml"

type LogFormat string

const (
	PrettyLogFormat LogFormat = "pretty"
	JSONLogFormat   LogFormat = "json"
)

type Config struct {
	Endpoint       string        `mapstructure:"endpoint"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxRPS         int           `mapstructure:"max_rps"`
	RetryDelay     time.Duration `mapstructure:"rate_limit_retry_delay"`

	LogLevel  string    `mapstructure:"log_level"`
	LogFormat LogFormat `mapstructure:"log_format"`

	LatestVersions []LatestVersionEntry `mapstructure:"latest_versions"`
}

// LatestVersionEntry is one repository of the latest-versions report.
// A pinned version skips the registry lookup for the entry.
type LatestVersionEntry struct {
	Repository    string `mapstructure:"repository"`
	EnvVariable   string `mapstructure:"env_variable"`
	PinnedVersion string `mapstructure:"pinned_version"`
}

// LoadConfig reads the optional YAML config file. Lookup order for the
// path: the --config flag, the DOCKERHUB_UTIL_CONFIG_PATH variable,
// the default location. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("DOCKERHUB_UTIL_CONFIG_PATH")
	}
	if path == "" {
		path = DefaultConfigPath
	}

	loader := gconfig.NewWithOptions(
		"dockerhub-util",
		gconfig.ParseEnv,
		gconfig.Readonly,
		func(opts *gconfig.Options) {
			opts.DecoderConfig = &mapstructure.DecoderConfig{
				TagName:          "mapstructure",
				WeaklyTypedInput: true,
				DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
			}
		},
	)
	loader.AddDriver(gyaml.Driver)

	err := loader.LoadExists(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}

	cfg := new(Config)
	err = loader.BindStruct("", cfg)
	if err != nil {
		return nil, errors.Wrap(err, "config binding failed")
	}

	if endpoint := os.Getenv("DOCKERHUB_UTIL_ENDPOINT"); endpoint != "" {
		cfg.Endpoint = endpoint
	}

	err = cfg.validate()
	if err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return cfg, nil
}

// validate verifies the loaded config and sets default values for missed fields.
func (c *Config) validate() error {
	if c.Endpoint == "" {
		c.Endpoint = dockerhub.DockerHubURL
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = dockerhub.DefaultRequestTimeout
	}
	if c.MaxRPS == 0 {
		c.MaxRPS = dockerhub.DefaultMaxRPS
	}
	if c.MaxRPS < 0 {
		return errors.New("max_rps must be positive")
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = dockerhub.DefaultRetryDelay
	}

	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	switch c.LogFormat {
	case PrettyLogFormat, JSONLogFormat:
	case "":
		c.LogFormat = PrettyLogFormat
	default:
		return errors.Errorf("unknown log format %s (supported: %s, %s)", c.LogFormat, PrettyLogFormat, JSONLogFormat)
	}

	for _, entry := range c.LatestVersions {
		if entry.Repository == "" {
			return errors.New("latest_versions entries require repository")
		}
		if entry.EnvVariable == "" {
			return errors.New("latest_versions entries require env_variable")
		}
	}

	return nil
}
