// Package cli implements the dynql command line tool.
package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Drivers accepted by --driver.
var Drivers = []string{"sqlite", "postgres", "mysql", "sqlserver"}

// Config is the connection the commands run against.
type Config struct {
	Driver  string
	DSN     string
	Verbose bool
}

// newViper reads flags, DYNQL_* environment variables and an optional
// .dynql.yaml from the working or home directory, in that order of
// precedence. .env files are loaded into the environment first.
func newViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	loadDotEnv()

	v := viper.New()
	v.SetConfigName(".dynql")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
		v.AddConfigPath(filepath.Join(home, ".config", "dynql"))
	}

	v.SetEnvPrefix("DYNQL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "reading config file")
		}
	}
	if err := v.BindPFlags(flags); err != nil {
		return nil, errors.Wrap(err, "binding flags")
	}
	return v, nil
}

// loadDotEnv loads .env and then .env.local, which wins.
func loadDotEnv() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
	if _, err := os.Stat(".env.local"); err == nil {
		_ = godotenv.Overload(".env.local")
	}
}

func configFrom(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Driver:  strings.ToLower(v.GetString("driver")),
		DSN:     v.GetString("dsn"),
		Verbose: v.GetBool("verbose"),
	}
	if cfg.DSN == "" {
		return nil, errors.New("no connection: set --dsn or DYNQL_DSN")
	}
	for _, d := range Drivers {
		if cfg.Driver == d {
			return cfg, nil
		}
	}
	return nil, errors.Errorf("unknown driver %q, want one of %s", cfg.Driver, strings.Join(Drivers, ", "))
}
