// Package config loads the gsheets settings from (in order of precedence) GSHEETS_ environment
// variables, an optional configuration file and the built-in defaults. A .env file is loaded into
// the environment first, so the Google credentials and tokens can also be kept there.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/uhppoted/gsheets/auth"
)

const ENV_PREFIX = "GSHEETS"
const DEFAULT_ENV_FILE = ".env"
const DEFAULT_RETRIES = 3

type Config struct {
	Credentials string        `mapstructure:"credentials"`
	Tokens      string        `mapstructure:"tokens"`
	Scopes      []string      `mapstructure:"scopes"`
	Spreadsheet string        `mapstructure:"spreadsheet"`
	Retries     int           `mapstructure:"retries"`
	WorkDir     string        `mapstructure:"workdir"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// Load reads the configuration. The file may be any format viper recognises by extension and
// is optional if empty. The env file defaults to '.env' and is ignored if it does not exist.
func Load(file, env string) (*Config, error) {
	if env == "" {
		env = DEFAULT_ENV_FILE
	}

	if err := godotenv.Load(env); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading %v (%w)", env, err)
	}

	v := viper.New()

	v.SetDefault("credentials", auth.DEFAULT_CREDENTIALS)
	v.SetDefault("tokens", auth.DEFAULT_TOKENS)
	v.SetDefault("scopes", auth.DefaultScopes)
	v.SetDefault("spreadsheet", "")
	v.SetDefault("retries", DEFAULT_RETRIES)
	v.SetDefault("workdir", ".")
	v.SetDefault("timeout", 60*time.Second)

	v.SetEnvPrefix(ENV_PREFIX)
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading configuration file %v (%w)", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration (%w)", err)
	}

	if cfg.Retries < 1 {
		return nil, fmt.Errorf("invalid 'retries' (%v) - must be at least 1", cfg.Retries)
	}

	return &cfg, nil
}

// Auth returns the credentials, tokens and scopes as an auth.Config, with relative credentials
// and tokens paths resolved against the working directory.
func (c Config) Auth() auth.Config {
	return auth.Config{
		Credentials: c.resolve(c.Credentials),
		Tokens:      c.resolve(c.Tokens),
		Scopes:      c.Scopes,
	}
}

func (c Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || c.WorkDir == "" {
		return path
	}

	return filepath.Join(c.WorkDir, path)
}
