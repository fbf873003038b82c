// Package server exposes class execution and inspection over Connect RPC
// with a CBOR codec.
package server

import (
	"net/http"

	"connectrpc.com/connect"
	"github.com/tliron/commonlog"

	"github.com/chazu/classrun/store"
)

// ClassServer serves RunService over HTTP.
type ClassServer struct {
	service *RunService
	mux     *http.ServeMux
}

// ServerOption configures a ClassServer.
type ServerOption func(*serverConfig)

type serverConfig struct {
	store *store.Store
	trace bool
}

// WithStore records every uploaded class and run in st.
func WithStore(st *store.Store) ServerOption {
	return func(c *serverConfig) { c.store = st }
}

// WithTrace logs every executed instruction at debug level.
func WithTrace(trace bool) ServerOption {
	return func(c *serverConfig) { c.trace = trace }
}

// New creates a ClassServer.
func New(opts ...ServerOption) *ClassServer {
	cfg := &serverConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	s := &ClassServer{
		service: NewRunService(cfg.store, cfg.trace),
		mux:     http.NewServeMux(),
	}

	codec := connect.WithCodec(cborCodec{})
	s.mux.Handle(RunProcedure, connect.NewUnaryHandler(RunProcedure, s.service.Run, codec))
	s.mux.Handle(InspectProcedure, connect.NewUnaryHandler(InspectProcedure, s.service.Inspect, codec))

	return s
}

// Handler returns the HTTP handler serving every procedure.
func (s *ClassServer) Handler() http.Handler {
	return s.mux
}

// ListenAndServe starts the HTTP server on the given address.
// The address should be in the form "host:port" or ":port".
func (s *ClassServer) ListenAndServe(addr string) error {
	log := commonlog.GetLogger("classrun.server")
	log.Infof("classrun server listening on %s", addr)
	log.Infof("  Connect (CBOR): http://%s%s", addr, RunProcedure)
	return http.ListenAndServe(addr, s.mux)
}
