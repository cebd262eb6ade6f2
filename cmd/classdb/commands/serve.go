package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/classdb/am"
	"github.com/teranos/classdb/classifier"
	"github.com/teranos/classdb/errors"
	"github.com/teranos/classdb/indexer"
	"github.com/teranos/classdb/logger"
	"github.com/teranos/classdb/server"
)

const shutdownTimeout = 30 * time.Second

// ServeCmd starts the HTTP server
var ServeCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   "Start the classdb HTTP server",
	Long: `Serve search, classification and indexing over HTTP.

The configuration file is watched: edits to [indexer] take effect without a
restart. Remote classifier changes need a restart.

Routes:
  GET    /classification/query?query=&onlybest=&threshold=&nresults=
  GET    /classification/classify/{classifier}/{criterion}?uri=
  POST   /classification/index        {"items": [...]}
  DELETE /classification/index?uri=
  GET    /health
  GET    /metrics`,
	RunE: runServe,
}

var serveAddr string

func init() {
	ServeCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.ComponentLogger("serve")

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	registry, err := buildRegistry()
	if err != nil {
		return err
	}
	lookup := classifier.NewCache(registry)
	ix := newIndexer(st, lookup, indexer.WithEmitter(indexer.NewLogEmitter(nil)))

	defaults, err := defaultParams()
	if err != nil {
		return errors.Wrap(err, "invalid query defaults in configuration")
	}

	addr := cfg.GetServerAddr()
	if serveAddr != "" {
		addr = serveAddr
	}
	srv := server.New(server.Options{
		Store:       st,
		Indexer:     ix,
		Lookup:      lookup,
		Defaults:    defaults,
		Addr:        addr,
		ReadTimeout: cfg.Server.ReadTimeout,
	})

	if watcher := watchConfig(ix); watcher != nil {
		defer watcher.Stop()
	}

	pterm.Info.Printfln("classdb serving %s (database %s, %d endpoints, classifiers %v)",
		addr, cfg.GetDatabasePath(), len(ix.Endpoints()), registry.List())

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case <-sigChan:
		pterm.Info.Println("Shutting down gracefully (press Ctrl+C again to force)...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	shutdownDone := make(chan error, 1)
	go func() {
		shutdownDone <- srv.Shutdown(ctx)
	}()

	select {
	case err := <-shutdownDone:
		if err != nil {
			log.Warnw("Shutdown incomplete", logger.FieldError, err)
			return err
		}
		pterm.Success.Println("Server stopped cleanly")
		return nil
	case <-sigChan:
		pterm.Warning.Println("Force shutdown - exiting immediately")
		os.Exit(1)
		return nil
	}
}

// watchConfig follows the active config file and applies indexer changes
// live. It returns nil when there is no file to watch.
func watchConfig(ix *indexer.Indexer) *am.ConfigWatcher {
	log := logger.ComponentLogger("serve")

	path := configPath
	var opts []am.WatcherOption
	if path != "" {
		opts = append(opts, am.WithLoader(func() (*am.Config, error) {
			return am.LoadFromFile(path)
		}))
	} else {
		path = am.ActivePath()
	}
	if path == "" {
		log.Infow("No configuration file to watch")
		return nil
	}

	watcher, err := am.NewConfigWatcher(path, opts...)
	if err != nil {
		log.Warnw("Config watching disabled", logger.FieldFile, path, logger.FieldError, err)
		return nil
	}
	watcher.OnReload(func(next *am.Config) error {
		return applyIndexerConfig(ix, next)
	})
	watcher.Start()
	log.Infow("Watching configuration", logger.FieldFile, path)
	return watcher
}

// applyIndexerConfig moves ix to the [indexer] settings of next.
func applyIndexerConfig(ix *indexer.Indexer, next *am.Config) error {
	ix.SetEstimateProgress(next.Indexer.EstimateProgress)
	if next.Indexer.Enabled {
		ix.Enable()
	} else {
		ix.Disable()
	}
	return ix.Configure(next.Endpoints())
}
