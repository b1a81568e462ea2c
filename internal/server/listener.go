package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"

	"github.com/vyrodovalexey/avroute/internal/observability"
)

// listener owns one http.Server and the socket it serves.
type listener struct {
	name    string
	server  *http.Server
	ln      net.Listener
	logger  observability.Logger
	running atomic.Bool
	done    chan struct{}
}

func newListener(name string, server *http.Server, logger observability.Logger) *listener {
	return &listener{
		name:   name,
		server: server,
		logger: logger,
	}
}

// start binds the socket synchronously so bind errors reach the caller,
// then serves in the background.
func (l *listener) start(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", l.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", l.server.Addr, err)
	}

	l.ln = ln
	l.done = make(chan struct{})
	l.running.Store(true)

	l.logger.Info("listener started",
		observability.String("name", l.name),
		observability.String("address", ln.Addr().String()),
	)

	go l.serve()

	return nil
}

func (l *listener) serve() {
	defer close(l.done)

	if err := l.server.Serve(l.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.logger.Error("listener error",
			observability.String("name", l.name),
			observability.Error(err),
		)
	}
	l.running.Store(false)
}

// stop drains in-flight requests and waits for the serve loop to exit, so
// the port is free once it returns.
func (l *listener) stop(ctx context.Context) error {
	if l.ln == nil {
		return nil
	}

	l.logger.Info("stopping listener",
		observability.String("name", l.name),
	)

	err := l.server.Shutdown(ctx)
	if err != nil {
		if closeErr := l.server.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}

	<-l.done
	l.running.Store(false)

	if err != nil {
		return fmt.Errorf("failed to shutdown listener %s gracefully: %w", l.name, err)
	}

	l.logger.Info("listener stopped",
		observability.String("name", l.name),
	)
	return nil
}

// addr returns the bound address, which differs from the configured one
// when port 0 was requested.
func (l *listener) addr() string {
	if l.ln == nil {
		return l.server.Addr
	}
	return l.ln.Addr().String()
}
