package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const configFile = "happyvote"

// Config holds the persisted client state plus deploy-time settings read from
// the environment. Only PreferredNetwork and DarkTheme are written back; the
// rest is supplied via HAPPYVOTE_* variables or the config file.
type Config struct {
	PreferredNetwork string            `mapstructure:"preferred_network"`
	DarkTheme        bool              `mapstructure:"dark_theme"`
	RelayURL         string            `mapstructure:"relay_url"`
	RelayProjectID   string            `mapstructure:"relay_project_id"`
	Contracts        map[string]string `mapstructure:"contracts"` // network key -> address override

	v   *viper.Viper
	dir string
}

// Load reads config from dir (or creates defaults). dir defaults to
// ~/.happyvote. Environment variables with the HAPPYVOTE_ prefix override
// file values, e.g. HAPPYVOTE_RELAY_PROJECT_ID.
func Load(dir string) (*Config, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not determine home dir: %w", err)
		}
		dir = filepath.Join(home, ".happyvote")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigName(configFile)
	v.SetConfigType("json")
	v.AddConfigPath(dir)
	v.SetEnvPrefix("happyvote")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("preferred_network", DefaultNetwork)
	v.SetDefault("dark_theme", true)
	v.SetDefault("relay_url", "")
	v.SetDefault("relay_project_id", "")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{v: v, dir: dir}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Contracts == nil {
		cfg.Contracts = make(map[string]string)
	}
	return cfg, nil
}

// SetPreferredNetwork updates and persists the preferred network key. The key
// is stored as given; callers validate it against the registry first.
func (c *Config) SetPreferredNetwork(key string) error {
	c.PreferredNetwork = key
	c.v.Set("preferred_network", key)
	return c.save()
}

// SetDarkTheme updates and persists the theme preference.
func (c *Config) SetDarkTheme(dark bool) error {
	c.DarkTheme = dark
	c.v.Set("dark_theme", dark)
	return c.save()
}

// ContractOverride returns the contract address override for a network key,
// checking HAPPYVOTE_CONTRACT_<KEY> first, then the config file map.
func (c *Config) ContractOverride(key string) string {
	env := "HAPPYVOTE_CONTRACT_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
	if addr := os.Getenv(env); addr != "" {
		return addr
	}
	return c.Contracts[key]
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.dir
}

func (c *Config) save() error {
	return c.v.WriteConfigAs(filepath.Join(c.dir, configFile+".json"))
}
