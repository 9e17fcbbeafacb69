package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// RECOMMENDER_SERVER_ADDR for server.addr.
const EnvPrefix = "RECOMMENDER"

// Config is the runtime configuration shared by the daemon and the CLIs.
type Config struct {
	Log       Log       `mapstructure:"log"`
	Server    Server    `mapstructure:"server"`
	Store     Store     `mapstructure:"store"`
	Recommend Recommend `mapstructure:"recommend"`
}

// Log configures the zap logger.
type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Server configures the gRPC listener and the metrics endpoint.
type Server struct {
	Addr        string `mapstructure:"addr"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// Store locates the intake database.
type Store struct {
	Path string `mapstructure:"path"`
}

// Recommend holds engine-facing defaults.
type Recommend struct {
	// DefaultProfile is used when a request names none. Empty means
	// detect the profile from the signal keys.
	DefaultProfile string `mapstructure:"default_profile"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Log:    Log{Level: "info", Format: "json"},
		Server: Server{Addr: ":50061", MetricsAddr: ":9090"},
		Store:  Store{Path: "intake.db"},
	}
}

// Load reads defaults, then the optional YAML file at path, then
// RECOMMENDER_* environment variables. A missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return nil, fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can see it during
// Unmarshal.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.metrics_addr", d.Server.MetricsAddr)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("recommend.default_profile", d.Recommend.DefaultProfile)
}
