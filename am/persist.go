package am

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/teranos/classdb/errors"
)

// BackupSuffix is appended to the previous version of a persisted file.
const BackupSuffix = ".bak"

// Persist writes c as TOML to path, keeping the previous file as path.bak.
// A non-nil watcher is told to ignore the write.
func Persist(c *Config, path string, watcher *ConfigWatcher) error {
	if err := c.Validate(); err != nil {
		return errors.Wrap(err, "refusing to persist invalid config")
	}

	data, err := c.TOML()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), DefaultDirPermissions); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}
	if err := createBackup(path); err != nil {
		return errors.Wrap(err, "failed to create backup")
	}

	if watcher != nil {
		watcher.MarkOwnWrite()
	}
	if err := os.WriteFile(path, data, DefaultFilePermissions); err != nil {
		return errors.WithDetailf(errors.Wrap(err, "failed to write config"), "path: %s", path)
	}
	return nil
}

// TOML renders c in the layout Load reads back.
func (c *Config) TOML() ([]byte, error) {
	data, err := toml.Marshal(c.toMap())
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal config")
	}
	return data, nil
}

// createBackup copies an existing file at path to path.bak.
func createBackup(path string) error {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}
	return os.WriteFile(path+BackupSuffix, content, DefaultFilePermissions)
}

// toMap renders c with the same keys Load reads, durations as strings.
func (c *Config) toMap() map[string]interface{} {
	classifiers := make([]map[string]interface{}, 0, len(c.Indexer.Classifiers))
	for _, clf := range c.Indexer.Classifiers {
		criteria := make([]map[string]interface{}, 0, len(clf.Criteria))
		for _, crit := range clf.Criteria {
			m := map[string]interface{}{"id": crit.ID, "binary": crit.Binary}
			if len(crit.Depends) > 0 {
				m["depends"] = crit.Depends
			}
			criteria = append(criteria, m)
		}
		classifiers = append(classifiers, map[string]interface{}{"name": clf.Name, "criteria": criteria})
	}

	endpoints := make(map[string]interface{}, len(c.Remote.Endpoints))
	for name, base := range c.Remote.Endpoints {
		endpoints[name] = base
	}

	return map[string]interface{}{
		"database": map[string]interface{}{"path": c.Database.Path},
		"indexer": map[string]interface{}{
			"enabled":           c.Indexer.Enabled,
			"estimate_progress": c.Indexer.EstimateProgress,
			"classifiers":       classifiers,
		},
		"query": map[string]interface{}{
			"number_of_results": c.Query.NumberOfResults,
			"threshold":         c.Query.Threshold,
			"only_best":         c.Query.OnlyBest,
		},
		"remote": map[string]interface{}{
			"timeout":         c.Remote.Timeout.String(),
			"rate_per_second": c.Remote.RatePerSecond,
			"burst":           c.Remote.Burst,
			"allow_private":   c.Remote.AllowPrivate,
			"endpoints":       endpoints,
		},
		"server": map[string]interface{}{
			"addr":         c.Server.Addr,
			"read_timeout": c.Server.ReadTimeout.String(),
		},
		"log": map[string]interface{}{
			"json":      c.Log.JSON,
			"verbosity": c.Log.Verbosity,
		},
	}
}

// Default returns the configuration Load yields when no file or
// environment override exists.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: DefaultDatabasePath},
		Indexer:  IndexerConfig{Enabled: true},
		Query:    QueryConfig{NumberOfResults: -1, OnlyBest: true},
		Remote: RemoteConfig{
			Timeout:       defaultRemoteTimeout,
			RatePerSecond: 10,
			Burst:         1,
			AllowPrivate:  true,
			Endpoints:     map[string]string{},
		},
		Server: ServerConfig{Addr: DefaultServerAddr, ReadTimeout: defaultReadTimeout},
	}
}
