package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Location types understood by the data source layer.
const (
	LocationLocalFile = "localFile"
	LocationMinio     = "minio"
)

// Config is the SPC Data Service configuration, assembled from defaults,
// the config file, SDS_* environment variables and command-line flags.
type Config struct {
	Host                 string     `mapstructure:"host" json:"host,omitempty"`
	Port                 int        `mapstructure:"port" json:"port,omitempty"`
	Debug                bool       `mapstructure:"debug" json:"debug,omitempty"`
	ConfigFile           string     `mapstructure:"config" json:"config_file,omitempty"`
	UseCache             bool       `mapstructure:"use_cache" json:"use_cache,omitempty"`
	CacheLocation        string     `mapstructure:"cache_location" json:"cache_location,omitempty"`
	CachePollingInterval int        `mapstructure:"cache_polling_interval" json:"cache_polling_interval,omitempty"`
	CacheMaxBytes        int64      `mapstructure:"cache_max_bytes" json:"cache_max_bytes,omitempty"`
	MaxFileBytes         int64      `mapstructure:"max_file_bytes" json:"max_file_bytes,omitempty"`
	LocationDetails      []Location `mapstructure:"location_details" json:"location_details,omitempty"`
}

// Location is one named place SPC files are read from. Credentials are
// never serialised back to clients.
type Location struct {
	LocationName   string `mapstructure:"location_name" json:"location_name"`
	LocationType   string `mapstructure:"location_type" json:"location_type"`
	Path           string `mapstructure:"path" json:"path,omitempty"`
	MinioBucket    string `mapstructure:"minio_bucket" json:"minio_bucket,omitempty"`
	Location       string `mapstructure:"location" json:"location,omitempty"`
	MinioAccessKey string `mapstructure:"minio_access_key" json:"-"`
	MinioSecretKey string `mapstructure:"minio_secret_key" json:"-"`
	Secure         bool   `mapstructure:"secure" json:"secure,omitempty"`
}

// FindLocation returns the location called name.
func (c *Config) FindLocation(name string) (Location, bool) {
	for _, l := range c.LocationDetails {
		if l.LocationName == name {
			return l, true
		}
	}
	return Location{}, false
}

// NewFlagSet declares the service flags with their defaults.
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringP("host", "i", "0.0.0.0", "Host where the server will run")
	fs.IntP("port", "p", 5055, "Port where the server will run")
	fs.BoolP("debug", "d", false, "Whether or not to enable debug logging")
	fs.StringP("config", "c", "./sdsConfig.json", "Location of SDS config file (JSON or YAML)")
	fs.BoolP("use-cache", "u", true, "Use SDS Cache. Can be disabled for certain cases like testing.")
	fs.StringP("cache-location", "C", "./sdscache/", "Where the cache will be stored")
	fs.IntP("cache-polling-interval", "P", 60, "How often to check the cache (in seconds)")
	fs.Int64P("cache-max-bytes", "m", 100000000, "How large to allow the cache to be")
	fs.Int64P("max-file-bytes", "M", 256<<20, "Largest SPC file that will be decoded")
	return fs
}

// Load parses args into fs and merges the result with the config file and
// environment. A missing config file is only an error when it was named
// explicitly.
func Load(fs *pflag.FlagSet, args []string) (*Config, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix("SDS")
	v.AutomaticEnv()

	var bindErr error
	fs.VisitAll(func(f *pflag.Flag) {
		if err := v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f); err != nil {
			bindErr = errors.Join(bindErr, err)
		}
	})
	if bindErr != nil {
		return nil, bindErr
	}

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			explicit := fs.Changed("config") || os.Getenv("SDS_CONFIG") != ""
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("reading config file %s: %w", file, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.MaxFileBytes <= 0 {
		errs = append(errs, fmt.Errorf("max_file_bytes must be positive, got %d", c.MaxFileBytes))
	}
	if c.UseCache {
		if c.CacheLocation == "" {
			errs = append(errs, errors.New("cache_location is required when the cache is enabled"))
		}
		if c.CacheMaxBytes <= 0 {
			errs = append(errs, fmt.Errorf("cache_max_bytes must be positive, got %d", c.CacheMaxBytes))
		}
		if c.CachePollingInterval <= 0 {
			errs = append(errs, fmt.Errorf("cache_polling_interval must be positive, got %d", c.CachePollingInterval))
		}
	}

	seen := make(map[string]bool)
	for i, l := range c.LocationDetails {
		switch {
		case l.LocationName == "":
			errs = append(errs, fmt.Errorf("location %d has no name", i))
		case seen[l.LocationName]:
			errs = append(errs, fmt.Errorf("location %s is defined twice", l.LocationName))
		}
		seen[l.LocationName] = true

		switch l.LocationType {
		case LocationLocalFile:
			if l.Path == "" {
				errs = append(errs, fmt.Errorf("location %s: path is required", l.LocationName))
			}
		case LocationMinio:
			if l.Location == "" || l.MinioBucket == "" {
				errs = append(errs, fmt.Errorf("location %s: location and minio_bucket are required", l.LocationName))
			}
		default:
			errs = append(errs, fmt.Errorf("location %s: unsupported location type %q", l.LocationName, l.LocationType))
		}
	}
	return errors.Join(errs...)
}
