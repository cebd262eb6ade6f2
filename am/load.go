package am

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/teranos/classdb/errors"
)

// EnvPrefix prefixes environment overrides: CLASSDB_SERVER_ADDR sets server.addr.
const EnvPrefix = "CLASSDB"

// ProjectConfigName is looked up in the working directory.
const ProjectConfigName = "classdb.toml"

var (
	mu            sync.Mutex
	globalConfig  *Config
	viperInstance *viper.Viper

	// ConfigSources records, per flattened key, the file that last set it
	ConfigSources = map[string]SourceInfo{}
)

// Load reads the configuration once and caches it. Reset forces a re-read.
func Load() (*Config, error) {
	mu.Lock()
	defer mu.Unlock()

	if globalConfig != nil {
		return globalConfig, nil
	}

	cfg, err := LoadWithViper(initViper())
	if err != nil {
		return nil, err
	}
	globalConfig = cfg
	return globalConfig, nil
}

// GetViper returns the Viper instance backing Load.
func GetViper() *viper.Viper {
	mu.Lock()
	defer mu.Unlock()
	return initViper()
}

// LoadWithViper unmarshals and validates the configuration held by v.
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return &cfg, nil
}

// LoadFromFile loads defaults overlaid with one file, ignoring the
// environment and the standard search paths.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.WithDetailf(errors.Wrap(err, "failed to read config file"), "path: %s", path)
	}
	cfg, err := LoadWithViper(v)
	if err != nil {
		return nil, errors.WithDetailf(err, "path: %s", path)
	}
	return cfg, nil
}

// Reset clears the cached configuration.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	globalConfig = nil
	viperInstance = nil
	ConfigSources = map[string]SourceInfo{}
}

func initViper() *viper.Viper {
	if viperInstance != nil {
		return viperInstance
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	BindEnvVars(v)

	SetDefaults(v)
	mergeConfigFiles(v, SearchPaths())

	viperInstance = v
	return v
}

// SearchPaths lists the config files consulted by Load, lowest precedence first.
func SearchPaths() []SourceInfo {
	paths := []SourceInfo{
		{Source: SourceSystem, Path: "/etc/classdb/config.toml"},
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, SourceInfo{Source: SourceUser, Path: filepath.Join(home, ".classdb", "config.toml")})
	}
	if wd, err := os.Getwd(); err == nil {
		paths = append(paths, SourceInfo{Source: SourceProject, Path: filepath.Join(wd, ProjectConfigName)})
	}
	return paths
}

// ActivePath returns the highest-precedence config file that exists, or "".
func ActivePath() string {
	paths := SearchPaths()
	for i := len(paths) - 1; i >= 0; i-- {
		if _, err := os.Stat(paths[i].Path); err == nil {
			return paths[i].Path
		}
	}
	return ""
}

// mergeConfigFiles overlays every existing file in order, recording which
// file set each key.
func mergeConfigFiles(v *viper.Viper, paths []SourceInfo) {
	for _, src := range paths {
		if _, err := os.Stat(src.Path); err != nil {
			continue
		}

		fileViper := viper.New()
		fileViper.SetConfigFile(src.Path)
		fileViper.SetConfigType("toml")
		if err := fileViper.ReadInConfig(); err != nil {
			continue
		}

		if err := v.MergeConfigMap(fileViper.AllSettings()); err != nil {
			continue
		}
		for _, key := range fileViper.AllKeys() {
			ConfigSources[key] = src
		}
	}
}
