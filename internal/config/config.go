package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	dirName   = ".service-express"
	fileName  = "config"
	fileType  = "yaml"
	envPrefix = "SERVICE_EXPRESS"
)

// Configuration keys.
const (
	KeyPackageManager           = "package_manager"
	KeyMinPackageManagerVersion = "min_package_manager_version"
	KeyPreset                   = "preset"
	KeySkipInstall              = "skip_install"
)

// Defaults for the configuration keys.
const (
	DefaultPackageManager           = "npm"
	DefaultMinPackageManagerVersion = "6.0.0"
)

// Settings is the resolved configuration for one invocation.
type Settings struct {
	PackageManager           string
	MinPackageManagerVersion string
	Preset                   string
	SkipInstall              bool
}

// Dir returns the config directory (~/.service-express).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return dirName
	}
	return filepath.Join(home, dirName)
}

// FilePath returns the default config file path.
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// Loader resolves Settings. A Loader is not safe for concurrent use.
type Loader struct {
	v *viper.Viper

	// explicit is true when the caller named the config file, in which
	// case it must exist.
	explicit bool
}

// NewLoader creates a Loader reading from path. An empty path means
// FilePath(), which may be missing; an explicit path must exist.
func NewLoader(path string) *Loader {
	explicit := path != ""
	if !explicit {
		path = FilePath()
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType(fileType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyPackageManager, DefaultPackageManager)
	v.SetDefault(KeyMinPackageManagerVersion, DefaultMinPackageManagerVersion)
	v.SetDefault(KeyPreset, "")
	v.SetDefault(KeySkipInstall, false)

	return &Loader{v: v, explicit: explicit}
}

// Override sets a value with higher precedence than file and environment.
// The CLI uses it for flags the user set explicitly.
func (l *Loader) Override(key string, value interface{}) {
	l.v.Set(key, value)
}

// Load reads the config file (if present) and returns the merged settings.
func (l *Loader) Load() (Settings, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
		if l.explicit || !missing {
			return Settings{}, fmt.Errorf("reading config file %s: %w", l.v.ConfigFileUsed(), err)
		}
	}

	s := Settings{
		PackageManager:           strings.TrimSpace(l.v.GetString(KeyPackageManager)),
		MinPackageManagerVersion: strings.TrimSpace(l.v.GetString(KeyMinPackageManagerVersion)),
		Preset:                   strings.TrimSpace(l.v.GetString(KeyPreset)),
		SkipInstall:              l.v.GetBool(KeySkipInstall),
	}
	if s.PackageManager == "" {
		return Settings{}, fmt.Errorf("config: %s must not be empty", KeyPackageManager)
	}
	return s, nil
}
