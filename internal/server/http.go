// Package server exposes the simulator to external plotting clients
// over HTTP and WebSocket. It carries diagnostics only; the core
// correctness contract lives in the modem, channel and stats packages.
package server

import (
	"net/http"

	"github.com/charmbracelet/log"
)

// Server is the diagnostics HTTP server.
type Server struct {
	mux      *http.ServeMux
	handlers *Handlers
	addr     string
	logger   *log.Logger
}

// NewServer creates a server bound to addr.
func NewServer(addr string, handlers *Handlers, logger *log.Logger) *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		handlers: handlers,
		addr:     addr,
		logger:   logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/run", s.handlers.HandleRun)
	s.mux.HandleFunc("/api/sweep", s.handlers.HandleSweep)
	s.mux.HandleFunc("/ws", s.handlers.HandleWebSocket)
}

// Start starts the HTTP server and blocks.
func (s *Server) Start() error {
	s.logger.Info("diagnostics server listening", "addr", s.addr)
	return http.ListenAndServe(s.addr, s.mux)
}
