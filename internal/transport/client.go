// Package transport is the client side of the line protocol: a CRLF line
// writer and reader over one TCP connection, with no protocol knowledge.
package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"syscall"
	"time"
)

// ErrClosed is returned when the peer has closed the connection.
var ErrClosed = errors.New("connection closed by peer")

// Client is one open connection. SendAndReceive is safe for concurrent use;
// Send and ReceiveLine are not meant to be interleaved across goroutines.
type Client struct {
	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
}

// Dial opens a TCP connection to addr.
func Dial(ctx context.Context, addr string, timeout time.Duration) (*Client, error) {
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewClient(conn), nil
}

// NewClient wraps an established connection.
func NewClient(conn net.Conn) *Client {
	return &Client{conn: conn, reader: bufio.NewReader(conn)}
}

// Send writes line followed by CRLF.
func (c *Client) Send(line string) error {
	if _, err := io.WriteString(c.conn, line+"\r\n"); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	return nil
}

// ReceiveLine reads one line and strips its terminator. It returns ErrClosed
// when the peer closes before a full line arrives.
func (c *Client) ReceiveLine() (string, error) {
	line, err := c.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			if line != "" {
				return strings.TrimSuffix(line, "\r"), nil
			}
			return "", ErrClosed
		}
		return "", fmt.Errorf("receive: %w", err)
	}
	return strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r"), nil
}

// SendAndReceive performs one request/reply round trip.
func (c *Client) SendAndReceive(line string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.Send(line); err != nil {
		return "", err
	}
	return c.ReceiveLine()
}

// SetDeadline bounds every following read and write.
func (c *Client) SetDeadline(t time.Time) error {
	return c.conn.SetDeadline(t)
}

// RemoteAddr is the resolved peer address.
func (c *Client) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Exchange dials addr, sends each line and collects one reply per line.
func Exchange(ctx context.Context, addr string, lines []string, timeout time.Duration) ([]string, error) {
	client, err := Dial(ctx, addr, timeout)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	if err := client.SetDeadline(time.Now().Add(timeout)); err != nil {
		return nil, fmt.Errorf("set deadline: %w", err)
	}

	replies := make([]string, 0, len(lines))
	for _, line := range lines {
		reply, err := client.SendAndReceive(line)
		if err != nil {
			return replies, err
		}
		replies = append(replies, reply)
	}
	return replies, nil
}

// Probe checks whether a responsive server is listening on addr.
func Probe(ctx context.Context, addr string, timeout time.Duration) (bool, error) {
	replies, err := Exchange(ctx, addr, []string{"PING"}, timeout)
	if err == nil {
		if replies[0] == "OK" || replies[0] == "OK PONG" {
			return true, nil
		}
		return false, fmt.Errorf("probe %s: unexpected reply %q", addr, replies[0])
	}
	if IsConnectionRefused(err) {
		return false, nil
	}
	return false, fmt.Errorf("probe %s: %w", addr, err)
}

// IsConnectionRefused reports no-listener failures.
func IsConnectionRefused(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}
