package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/ludviglundgren/xdcc-cli/internal/domain"

	"github.com/mitchellh/go-homedir"
	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	DefaultHost     = "irc.rizon.net"
	DefaultPort     = 6667
	DefaultBot      = "Ginpachi-Sensei"
	DefaultRetry    = 1
	DefaultTimeout  = 30
	DefaultListFile = "downlist.txt"
)

// CfgFile is set from the --config flag.
var CfgFile string

// Dir returns the per-user config directory.
func Dir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", pkgerrors.Wrap(err, "could not read home dir")
	}
	return filepath.Join(home, ".config", "xdl"), nil
}

// Load reads the config file (optional unless set explicitly with
// --config) and XDL_ environment variables on top of the defaults.
func Load(cfgFile string) (domain.AppConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("XDL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		// Use config file from the flag.
		v.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			return domain.AppConfig{}, pkgerrors.Wrap(err, "could not read home dir")
		}

		v.SetConfigName(".xdl")
		// Search config in directories
		v.AddConfigPath(".")
		v.AddConfigPath(home)
		v.AddConfigPath(filepath.Join(home, ".config", "xdl"))
	}

	if err := v.ReadInConfig(); err != nil {
		var ferr viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &ferr) {
			return domain.AppConfig{}, pkgerrors.Wrap(err, "could not read config")
		}
	}

	var cfg domain.AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return domain.AppConfig{}, pkgerrors.Wrap(err, "could not decode config")
	}

	if cfg.Download.Path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return domain.AppConfig{}, pkgerrors.Wrap(err, "could not get working dir")
		}
		cfg.Download.Path = wd
	}

	if cfg.History.Path == "" {
		dir, err := Dir()
		if err != nil {
			return domain.AppConfig{}, err
		}
		cfg.History.Path = filepath.Join(dir, "history.db")
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("verbose", false)
	v.SetDefault("irc.host", DefaultHost)
	v.SetDefault("irc.port", DefaultPort)
	v.SetDefault("irc.nick", "")
	v.SetDefault("irc.channels", []string{})
	v.SetDefault("irc.tls", false)
	v.SetDefault("irc.proxy", "")
	v.SetDefault("download.bot", DefaultBot)
	v.SetDefault("download.path", "")
	v.SetDefault("download.retry", DefaultRetry)
	v.SetDefault("download.timeout", DefaultTimeout)
	v.SetDefault("download.botNameMatch", false)
	v.SetDefault("download.extract", false)
	v.SetDefault("download.listFile", DefaultListFile)
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", "")
}
