// Package server serves the line protocol over TCP, one goroutine per session.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/rbright/tvremote/internal/protocol"
)

// Handler answers one non-blank line.
type Handler interface {
	HandleLine(line string) (protocol.Response, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(line string) (protocol.Response, error)

func (f HandlerFunc) HandleLine(line string) (protocol.Response, error) {
	return f(line)
}

// Options bounds per-session resources. Zero values disable the limit.
type Options struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxSessions  int
}

// Server owns the accept loop and every live session.
type Server struct {
	handler Handler
	opts    Options
	logger  *slog.Logger

	mu       sync.Mutex
	closing  bool
	sessions map[string]net.Conn
	wg       sync.WaitGroup
	slots    chan struct{}
}

func New(handler Handler, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		handler:  handler,
		opts:     opts,
		logger:   logger,
		sessions: make(map[string]net.Conn),
	}
	if opts.MaxSessions > 0 {
		s.slots = make(chan struct{}, opts.MaxSessions)
	}
	return s
}

// Serve accepts clients until context cancellation or listener close. On
// return every session has been closed and its goroutine has finished.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-ctx.Done()
		_ = listener.Close()
		s.closeSessions()
	}()

	s.logger.Info("listening", "addr", listener.Addr().String())

	for {
		if !s.acquireSlot(ctx) {
			s.wg.Wait()
			return nil
		}

		conn, err := listener.Accept()
		if err != nil {
			s.releaseSlot()
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				cancel()
				s.wg.Wait()
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			cancel()
			s.wg.Wait()
			return fmt.Errorf("accept connection: %w", err)
		}

		s.wg.Add(1)
		go func(c net.Conn) {
			defer s.wg.Done()
			defer s.releaseSlot()
			s.serveSession(c)
		}(conn)
	}
}

// ActiveSessions reports the number of open sessions.
func (s *Server) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) acquireSlot(ctx context.Context) bool {
	if s.slots == nil {
		return ctx.Err() == nil
	}
	select {
	case s.slots <- struct{}{}:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Server) releaseSlot() {
	if s.slots == nil {
		return
	}
	<-s.slots
}

// track registers a live session. It reports false once shutdown has begun.
func (s *Server) track(id string, conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.sessions[id] = conn
	return true
}

func (s *Server) untrack(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *Server) closeSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closing = true
	for _, conn := range s.sessions {
		_ = conn.Close()
	}
}
