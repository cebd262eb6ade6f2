// Package server exposes the classification store over HTTP: ranked
// search, direct classification, and indexing of new items.
package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/classdb/classifier"
	"github.com/teranos/classdb/errors"
	"github.com/teranos/classdb/indexer"
	"github.com/teranos/classdb/logger"
	"github.com/teranos/classdb/query"
	"github.com/teranos/classdb/store"
)

const maxBodyBytes = 1 << 20

// Store is what the server needs from the classification store.
type Store interface {
	Reader(ctx context.Context) (store.Reader, error)
	Count(ctx context.Context) (int, error)
}

// Options wires the server to its collaborators. Nil collaborators make
// the routes that need them answer 503.
type Options struct {
	Store    Store
	Indexer  *indexer.Indexer
	Lookup   classifier.Lookup
	Defaults query.Params

	Addr        string
	ReadTimeout time.Duration
}

// Server is the classdb HTTP boundary.
type Server struct {
	opts   Options
	mux    *http.ServeMux
	http   *http.Server
	logger *zap.SugaredLogger

	// indexSlot admits one writer at a time
	indexSlot chan struct{}
}

// New builds a server and registers its routes.
func New(opts Options) *Server {
	s := &Server{
		opts:      opts,
		mux:       http.NewServeMux(),
		logger:    logger.ComponentLogger("server"),
		indexSlot: make(chan struct{}, 1),
	}
	s.setupRoutes()
	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: opts.ReadTimeout,
		ReadTimeout:       opts.ReadTimeout,
	}
	return s
}

// Handler returns the routed handler with request middleware applied.
func (s *Server) Handler() http.Handler {
	return s.instrument(s.mux)
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", s.opts.Addr)
	}
	return s.Serve(ln)
}

// Serve serves on ln until Shutdown. A clean shutdown returns nil.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Infow("HTTP server listening", logger.FieldAddress, ln.Addr().String())
	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "HTTP server failed")
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones,
// including a running index task, until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Infow("Initiating server shutdown")
	if err := s.http.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "failed to shut down HTTP server")
	}
	s.logger.Infow("Server stopped")
	return nil
}

// acquireIndexSlot blocks until no other writer is running or ctx ends.
func (s *Server) acquireIndexSlot(ctx context.Context) (release func(), err error) {
	select {
	case s.indexSlot <- struct{}{}:
		return func() { <-s.indexSlot }, nil
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "waiting for index slot")
	}
}
