package am

import (
	"time"

	"github.com/spf13/viper"
)

// File and directory permissions for config files written by classdb.
const (
	DefaultDirPermissions  = 0750
	DefaultFilePermissions = 0644
)

const (
	DefaultDatabasePath = "classdb.db"
	DefaultServerAddr   = ":8080"

	defaultRemoteTimeout = 30 * time.Second
	defaultReadTimeout   = 10 * time.Second
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", DefaultDatabasePath)

	v.SetDefault("indexer.enabled", true)
	v.SetDefault("indexer.estimate_progress", false)

	v.SetDefault("query.number_of_results", -1)
	v.SetDefault("query.threshold", 0.0)
	v.SetDefault("query.only_best", true)

	v.SetDefault("remote.timeout", defaultRemoteTimeout.String())
	v.SetDefault("remote.rate_per_second", 10.0)
	v.SetDefault("remote.burst", 1)
	v.SetDefault("remote.allow_private", true)

	v.SetDefault("server.addr", DefaultServerAddr)
	v.SetDefault("server.read_timeout", defaultReadTimeout.String())

	v.SetDefault("log.json", false)
	v.SetDefault("log.verbosity", 0)
}

// BindEnvVars binds the settings most often overridden per deployment.
func BindEnvVars(v *viper.Viper) {
	v.BindEnv("database.path", "CLASSDB_DATABASE_PATH")
	v.BindEnv("server.addr", "CLASSDB_SERVER_ADDR")
	v.BindEnv("log.json", "CLASSDB_LOG_JSON")
}

// GetDatabasePath returns the configured database path
func (c *Config) GetDatabasePath() string {
	if c.Database.Path == "" {
		return DefaultDatabasePath
	}
	return c.Database.Path
}

// GetServerAddr returns the configured listen address
func (c *Config) GetServerAddr() string {
	if c.Server.Addr == "" {
		return DefaultServerAddr
	}
	return c.Server.Addr
}
