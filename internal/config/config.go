package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"pixelate/internal/apperr"
	"pixelate/internal/model"
)

// Environment variables that override the file.
const (
	EnvServerURL      = "PIXELATE_SERVER_URL"
	EnvRequestTimeout = "PIXELATE_REQUEST_TIMEOUT"
	EnvBusyFallback   = "PIXELATE_BUSY_FALLBACK"
	EnvLogLevel       = "PIXELATE_LOG_LEVEL"
	EnvLogFile        = "PIXELATE_LOG_FILE"
	EnvStripMetadata  = "PIXELATE_STRIP_METADATA"
)

// Default values
const (
	DefaultServerURL    = "http://localhost:5000"
	DefaultBusyFallback = 2 * time.Second
	DefaultMaxFileSize  = 16 * 1024 * 1024
	DefaultLogLevel     = "info"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Defaults DefaultsConfig `yaml:"defaults"`
	Upload   UploadConfig   `yaml:"upload"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig describes the conversion service and the request policy.
// A zero RequestTimeout leaves uploads unbounded.
type ServerConfig struct {
	URL            string        `yaml:"url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	BusyFallback   time.Duration `yaml:"busy_fallback"`
}

// DefaultsConfig seeds the option pickers when the UI starts.
type DefaultsConfig struct {
	Palette       string `yaml:"palette"`
	Mode          string `yaml:"quantization_mode"`
	MaxResolution int    `yaml:"max_resolution"`
	UpscaleFactor int    `yaml:"upscale_factor"`
}

type UploadConfig struct {
	MaxFileSize   int64 `yaml:"max_file_size"`
	StripMetadata bool  `yaml:"strip_metadata"`
	PreserveICC   bool  `yaml:"preserve_icc"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns a configuration usable without any file.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL:          DefaultServerURL,
			BusyFallback: DefaultBusyFallback,
		},
		Defaults: DefaultsConfig{
			Mode:          string(model.DefaultMode),
			MaxResolution: model.DefaultMaxResolution,
			UpscaleFactor: model.DefaultUpscaleFactor,
		},
		Upload: UploadConfig{
			MaxFileSize: DefaultMaxFileSize,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/pixelate/config.yaml or its platform
// equivalent.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "pixelate.yaml"
	}
	return filepath.Join(dir, "pixelate", "config.yaml")
}

// Load builds the configuration from defaults, an optional .env file, the YAML
// file at path and PIXELATE_* environment variables, in that order. A missing
// file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, apperr.Wrap(apperr.KindConfig, "config.load", "failed to read .env", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, apperr.Wrap(apperr.KindConfig, "config.load", fmt.Sprintf("invalid config file %s", path), err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, apperr.Wrap(apperr.KindConfig, "config.load", fmt.Sprintf("cannot read %s", path), err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvServerURL); v != "" {
		c.Server.URL = v
	}
	if v := os.Getenv(EnvRequestTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return apperr.Wrap(apperr.KindConfig, "config.env", EnvRequestTimeout+" is not a duration", err)
		}
		c.Server.RequestTimeout = d
	}
	if v := os.Getenv(EnvBusyFallback); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return apperr.Wrap(apperr.KindConfig, "config.env", EnvBusyFallback+" is not a duration", err)
		}
		c.Server.BusyFallback = d
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvLogFile); v != "" {
		c.Log.File = v
	}
	if v := os.Getenv(EnvStripMetadata); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return apperr.Wrap(apperr.KindConfig, "config.env", EnvStripMetadata+" is not a boolean", err)
		}
		c.Upload.StripMetadata = b
	}
	return nil
}

// Validate rejects values the client cannot work with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return apperr.New(apperr.KindConfig, "config.validate", fmt.Sprintf("server url %q must be absolute", c.Server.URL))
	}
	if c.Server.RequestTimeout < 0 || c.Server.BusyFallback < 0 {
		return apperr.New(apperr.KindConfig, "config.validate", "durations must not be negative")
	}
	if _, err := c.Options(); err != nil {
		return apperr.Wrap(apperr.KindConfig, "config.validate", err.Error(), err)
	}
	if c.Upload.MaxFileSize < 0 {
		return apperr.New(apperr.KindConfig, "config.validate", "upload.max_file_size must not be negative")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return apperr.New(apperr.KindConfig, "config.validate", fmt.Sprintf("unknown log level %q", c.Log.Level))
	}
	return nil
}

// Options converts the defaults section into processing options.
func (c *Config) Options() (model.ProcessingOptions, error) {
	mode, err := model.ParseQuantizationMode(c.Defaults.Mode)
	if err != nil {
		return model.ProcessingOptions{}, err
	}
	opts := model.ProcessingOptions{
		Mode:          mode,
		MaxResolution: c.Defaults.MaxResolution,
		UpscaleFactor: c.Defaults.UpscaleFactor,
	}
	return opts, opts.Validate()
}

// Save writes the configuration as YAML, creating parent directories.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
