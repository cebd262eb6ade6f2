// Package am holds the classdb configuration: where it is read from, its
// defaults, its validation, and live reloading.
package am

import (
	"fmt"
	"time"

	"github.com/teranos/classdb/endpoint"
)

// Config is the complete classdb configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Indexer  IndexerConfig  `mapstructure:"indexer"`
	Query    QueryConfig    `mapstructure:"query"`
	Remote   RemoteConfig   `mapstructure:"remote"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
}

// DatabaseConfig locates the SQLite classification store.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// IndexerConfig configures which classifier endpoints run on each item.
type IndexerConfig struct {
	Enabled          bool               `mapstructure:"enabled"`
	EstimateProgress bool               `mapstructure:"estimate_progress"` // collect batches up front for fractional progress
	Classifiers      []ClassifierConfig `mapstructure:"classifiers"`
}

// ClassifierConfig lists the criteria one classifier is asked about.
type ClassifierConfig struct {
	Name     string            `mapstructure:"name"`
	Criteria []CriterionConfig `mapstructure:"criteria"`
}

// CriterionConfig is one classifier endpoint.
type CriterionConfig struct {
	ID      string   `mapstructure:"id"`
	Binary  bool     `mapstructure:"binary"`
	Depends []string `mapstructure:"depends"` // criteria that must be indexed first
}

// QueryConfig holds the default search parameters.
type QueryConfig struct {
	NumberOfResults int     `mapstructure:"number_of_results"` // -1 = unbounded
	Threshold       float32 `mapstructure:"threshold"`
	OnlyBest        bool    `mapstructure:"only_best"`
}

// RemoteConfig configures classifiers reached over HTTP.
type RemoteConfig struct {
	Timeout       time.Duration     `mapstructure:"timeout"`
	RatePerSecond float64           `mapstructure:"rate_per_second"`
	Burst         int               `mapstructure:"burst"`
	AllowPrivate  bool              `mapstructure:"allow_private"` // permit loopback and private-range hosts
	Endpoints     map[string]string `mapstructure:"endpoints"`     // classifier name = "base URL"
}

// ServerConfig configures the HTTP boundary.
type ServerConfig struct {
	Addr        string        `mapstructure:"addr"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
}

// LogConfig configures the global logger.
type LogConfig struct {
	JSON      bool `mapstructure:"json"`
	Verbosity int  `mapstructure:"verbosity"`
}

// Endpoints flattens the configured classifiers into descriptors, in
// declaration order.
func (c *Config) Endpoints() []endpoint.Descriptor {
	var ds []endpoint.Descriptor
	for _, clf := range c.Indexer.Classifiers {
		for _, crit := range clf.Criteria {
			ds = append(ds, endpoint.New(clf.Name, crit.ID, crit.Depends, crit.Binary))
		}
	}
	return ds
}

// String returns a one-line summary of the config.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Database: %s, Classifiers: %d, Remotes: %d, Server: %s}",
		c.Database.Path, len(c.Indexer.Classifiers), len(c.Remote.Endpoints), c.Server.Addr)
}
