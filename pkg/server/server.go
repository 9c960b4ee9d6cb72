// Package server wires together pkg/registry, pkg/executor and pkg/worker
// behind a TCP listener speaking pkg/protocol, plus the replica-side dial
// loop that turns REPLICAOF into an actual streaming connection.
//
// Grounded on _examples/original_source/src/main.rs's accept loop: decode a
// frame, flatten it to a command line, parse, dispatch through the worker
// pool, encode the response, with a mode switch into replica fan-out on
// "_PSYNC_OK". The per-connection goroutine-per-client shape mirrors
// main.rs's tokio::spawn one-task-per-socket model.
package server

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"

	"github.com/unsetsoft/toridb/pkg/config"
	"github.com/unsetsoft/toridb/pkg/executor"
	"github.com/unsetsoft/toridb/pkg/registry"
	"github.com/unsetsoft/toridb/pkg/worker"
)

// Server owns the registry, executor, and worker pool shared by every
// connection it accepts.
type Server struct {
	cfg      config.Config
	registry *registry.Registry
	executor *executor.Executor
	pool     *worker.Pool

	connCount int64
}

// New builds a Server rooted at cfg. It does not yet listen.
func New(cfg config.Config) *Server {
	ex := executor.New(cfg.DataDir)
	return &Server{
		cfg:      cfg,
		registry: registry.New(cfg.DataDir, cfg.MaxConnections, cfg.MaxKeys),
		executor: ex,
		pool:     worker.New(cfg.Workers, ex),
	}
}

// Addr is the host:port this server listens on per its resolved Config.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
}

// Serve accepts connections on ln until ctx is canceled or Accept fails.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		if atomic.LoadInt64(&s.connCount) >= int64(s.cfg.MaxConnections) {
			conn.Write([]byte("-ERR max number of clients reached\r\n"))
			conn.Close()
			continue
		}
		atomic.AddInt64(&s.connCount, 1)
		go func() {
			defer atomic.AddInt64(&s.connCount, -1)
			s.handleConnection(ctx, conn)
		}()
	}
}

// Shutdown closes the on-disk command log for every database touched so
// far, flushing its pending batch to disk before the process exits.
func (s *Server) Shutdown() {
	for _, name := range s.registry.Names() {
		if _, cmdLog, ok := s.registry.Get(name); ok && cmdLog != nil {
			cmdLog.Close()
		}
	}
}
