package server

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/rbright/tvremote/internal/protocol"
)

// frameBufferSize caps how much of one line is buffered. Longer frames are
// drained and answered as over-long whatever their trimmed length, so the
// 256-rune limit on the trimmed line only decides frames that fit.
const frameBufferSize = 16 * 1024

// serveSession runs the sequential read-answer loop for one connection. Each
// line is fully answered before the next is read.
func (s *Server) serveSession(conn net.Conn) {
	id := uuid.NewString()
	logger := s.logger.With("session", id, "remote", conn.RemoteAddr().String())

	defer conn.Close()
	if !s.track(id, conn) {
		return
	}
	defer s.untrack(id)

	logger.Info("session opened")
	start := time.Now()
	served := 0
	defer func() {
		logger.Info("session closed", "lines", served, "duration", time.Since(start).String())
	}()

	reader := bufio.NewReaderSize(conn, frameBufferSize)
	for {
		if s.opts.ReadTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout))
		}
		line, overflow, err := readLine(reader)
		if err != nil {
			logReadError(logger, err)
			return
		}

		var resp protocol.Response
		if overflow {
			resp = protocol.ReplyLineTooLong()
		} else {
			trimmed := protocol.TrimLine(line)
			if trimmed == "" {
				continue
			}
			if utf8.RuneCountInString(trimmed) > protocol.MaxLineLength {
				resp = protocol.ReplyLineTooLong()
			} else {
				resp = s.respond(logger, trimmed)
			}
		}

		if s.opts.WriteTimeout > 0 {
			_ = conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
		}
		if _, err := io.WriteString(conn, resp.Wire()); err != nil {
			logger.Debug("write failed", "error", err.Error())
			return
		}
		served++
	}
}

// respond converts handler errors and panics into ERR 500 so the session
// survives them.
func (s *Server) respond(logger *slog.Logger, line string) (resp protocol.Response) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("dispatch panic", "line", line, "panic", fmt.Sprint(r))
			resp = protocol.ReplyServerError()
		}
	}()

	resp, err := s.handler.HandleLine(line)
	if err != nil {
		logger.Warn("dispatch failed", "line", line, "error", err.Error())
		return protocol.ReplyServerError()
	}
	logger.Debug("dispatched", "line", line, "reply", resp.String())
	return resp
}

// readLine returns one line without its CRLF or LF terminator. A final
// unterminated line before end-of-stream is still returned. overflow is set
// when the frame did not fit the reader buffer; the rest of it is discarded.
func readLine(r *bufio.Reader) (line string, overflow bool, err error) {
	for {
		buf, err := r.ReadSlice('\n')
		switch {
		case err == nil:
			if overflow {
				return "", true, nil
			}
			return strings.TrimSuffix(strings.TrimSuffix(string(buf), "\n"), "\r"), false, nil
		case errors.Is(err, bufio.ErrBufferFull):
			overflow = true
		case errors.Is(err, io.EOF) && (overflow || len(buf) > 0):
			if overflow {
				return "", true, nil
			}
			return strings.TrimSuffix(string(buf), "\r"), false, nil
		default:
			return "", false, err
		}
	}
}

func logReadError(logger *slog.Logger, err error) {
	var ne net.Error
	switch {
	case errors.Is(err, io.EOF):
		return
	case errors.Is(err, net.ErrClosed):
		logger.Debug("session closed by server")
	case errors.As(err, &ne) && ne.Timeout():
		logger.Info("read timeout")
	default:
		logger.Info("read failed", "error", err.Error())
	}
}
