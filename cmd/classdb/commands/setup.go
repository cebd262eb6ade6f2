package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/classdb/am"
	"github.com/teranos/classdb/classifier"
	"github.com/teranos/classdb/errors"
	"github.com/teranos/classdb/indexer"
	"github.com/teranos/classdb/internal/httpclient"
	"github.com/teranos/classdb/logger"
	"github.com/teranos/classdb/query"
	"github.com/teranos/classdb/store"
)

var (
	configPath string
	dbPath     string
	staticPath string
	jsonLogs   bool

	// cfg is set by Setup before any command runs
	cfg *am.Config
)

// AddGlobalFlags registers the flags every command understands.
func AddGlobalFlags(root *cobra.Command) {
	root.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	root.PersistentFlags().StringVar(&configPath, "config", "", "Read configuration from this file only")
	root.PersistentFlags().StringVar(&dbPath, "db-path", "", "Database path (overrides config)")
	root.PersistentFlags().StringVar(&staticPath, "static", "", "TOML fixture of static classifiers to register")
	root.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Emit logs as JSON")
}

// Setup loads the configuration and initializes the global logger. An
// unusable configuration degrades to the defaults, which have no endpoints.
func Setup(cmd *cobra.Command) error {
	var err error
	if configPath != "" {
		cfg, err = am.LoadFromFile(configPath)
	} else {
		cfg, err = am.Load()
	}
	if err != nil {
		pterm.Warning.Printfln("Configuration unusable, running with defaults: %v", err)
		cfg = am.Default()
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}

	verbosity, _ := cmd.Flags().GetCount("verbose")
	if err := logger.Initialize(jsonLogs || cfg.Log.JSON, max(verbosity, cfg.Log.Verbosity)); err != nil {
		return errors.Wrap(err, "failed to initialize logger")
	}
	return nil
}

// openStore opens and migrates the configured database.
func openStore() (*store.Store, error) {
	path := cfg.GetDatabasePath()
	st, err := store.Open(path)
	if err != nil {
		return nil, errors.WithDetailf(err, "path: %s", path)
	}
	return st, nil
}

// buildRegistry registers the configured remote classifiers and the
// --static fixture, if any.
func buildRegistry() (*classifier.Registry, error) {
	registry := classifier.NewRegistry()

	client := httpclient.New(cfg.Remote.Timeout, httpclient.Options{
		AllowedSchemes: []string{"http", "https"},
		AllowPrivate:   cfg.Remote.AllowPrivate,
	})
	remotes, err := classifier.NewRemotes(cfg.Remote.Endpoints, client, classifier.RemoteOptions{
		RatePerSecond: cfg.Remote.RatePerSecond,
		Burst:         cfg.Remote.Burst,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to configure remote classifiers")
	}
	for _, r := range remotes {
		if err := registry.Register(r); err != nil {
			return nil, err
		}
	}

	if staticPath != "" {
		statics, err := classifier.LoadFixture(staticPath)
		if err != nil {
			return nil, err
		}
		for _, s := range statics {
			if err := registry.Register(s); err != nil {
				return nil, err
			}
		}
	}

	logger.Debugw("Classifiers registered", "classifiers", registry.List())
	return registry, nil
}

// newIndexer builds an indexer over st, configured from cfg. A cyclic
// endpoint configuration leaves it with no endpoints.
func newIndexer(st indexer.Storage, lookup classifier.Lookup, opts ...indexer.Option) *indexer.Indexer {
	opts = append(opts, indexer.WithEstimateProgress(cfg.Indexer.EstimateProgress))
	ix := indexer.New(st, lookup, opts...)
	if err := ix.Configure(cfg.Endpoints()); err != nil {
		pterm.Warning.Printfln("Classifier endpoints ignored: %v", err)
	}
	if !cfg.Indexer.Enabled {
		ix.Disable()
	}
	return ix
}

// defaultParams converts the configured query defaults.
func defaultParams() (query.Params, error) {
	return query.NewParams(cfg.Query.NumberOfResults, cfg.Query.Threshold, cfg.Query.OnlyBest)
}
