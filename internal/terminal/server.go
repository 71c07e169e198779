// Package terminal is the board's primary client surface: a bidirectional
// TCP stream presenting the retro terminal UI, rendered through
// internal/render and internal/frame and backed by the same door manager
// and notification broker the HTTP surface shares.
package terminal

import (
	"errors"
	"fmt"
	"net"

	"github.com/boardops/boardops/internal/boardlog"
	"github.com/boardops/boardops/internal/config"
	"github.com/boardops/boardops/internal/db"
	"github.com/boardops/boardops/internal/door"
	"github.com/boardops/boardops/internal/notify"
	"github.com/boardops/boardops/internal/sysop"
)

// Dependencies collects the collaborators a terminal session dispatches
// to. cmd/boardops wires one shared set of these in alongside the HTTP
// server's own Dependencies.
type Dependencies struct {
	DB     *db.DB
	Broker *notify.Broker
	Doors  *door.Manager
	Pager  *sysop.Pager
	Log    boardlog.Logger
}

// Server listens for terminal connections and spawns one session per
// accepted connection.
type Server struct {
	cfg      *config.Config
	deps     Dependencies
	listener net.Listener
}

// New builds a terminal Server. Call Start to begin accepting
// connections.
func New(cfg *config.Config, deps Dependencies) *Server {
	return &Server{cfg: cfg, deps: deps}
}

// Start binds the configured telnet port and accepts connections until
// the listener is closed by Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.TelnetPort))
	if err != nil {
		return err
	}
	s.listener = ln
	s.deps.Log.Info("terminal server listening", "addr", ln.Addr().String())

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		sess := newSession(conn, s.deps)
		go sess.run()
	}
}

// Shutdown stops accepting new connections. In-flight sessions drain on
// their own as their connections close.
func (s *Server) Shutdown() error {
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}
