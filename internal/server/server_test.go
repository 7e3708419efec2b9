package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rbright/tvremote/internal/dispatch"
	"github.com/rbright/tvremote/internal/protocol"
	"github.com/rbright/tvremote/internal/tv"
	"github.com/stretchr/testify/require"
)

type testClient struct {
	t      *testing.T
	conn   net.Conn
	reader *bufio.Reader
}

func startServer(t *testing.T, handler Handler, opts Options) string {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	srv := New(handler, opts, nil)
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- srv.Serve(ctx, listener)
	}()

	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-serveDone)
	})
	return listener.Addr().String()
}

func startTVServer(t *testing.T, channels int) string {
	t.Helper()
	set, err := tv.New(channels)
	require.NoError(t, err)
	addr := startServer(t, dispatch.New(set), Options{})
	return addr
}

func dial(t *testing.T, addr string) *testClient {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &testClient{t: t, conn: conn, reader: bufio.NewReader(conn)}
}

func (c *testClient) write(raw string) {
	c.t.Helper()
	_, err := c.conn.Write([]byte(raw))
	require.NoError(c.t, err)
}

func (c *testClient) readLine() string {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	line, err := c.reader.ReadString('\n')
	require.NoError(c.t, err)
	return line
}

func (c *testClient) roundTrip(line string) string {
	c.t.Helper()
	c.write(line + "\r\n")
	return c.readLine()
}

func TestScenarioOverTCP(t *testing.T) {
	client := dial(t, startTVServer(t, 7))

	require.Equal(t, "ERR 401 TV_OFF\r\n", client.roundTrip("GET"))
	require.Equal(t, "OK\r\n", client.roundTrip("ON"))
	require.Equal(t, "OK CH=1\r\n", client.roundTrip("GET"))
	require.Equal(t, "OK CH=5\r\n", client.roundTrip("SET 5"))
	require.Equal(t, "ERR 400 BAD_COMMAND\r\n", client.roundTrip("HELLO"))
	require.Equal(t, "OK CH=5\r\n", client.roundTrip("   get   "))
}

func TestBlankLinesProduceNoReply(t *testing.T) {
	client := dial(t, startTVServer(t, 3))

	client.write("\r\n   \r\n\t\r\nSTATUS\r\n")
	require.Equal(t, "OK OFF\r\n", client.readLine())
}

func TestLineTooLongKeepsSessionOpen(t *testing.T) {
	client := dial(t, startTVServer(t, 3))

	require.Equal(t, "ERR 400 LINE_TOO_LONG\r\n", client.roundTrip(strings.Repeat("A", protocol.MaxLineLength+1)))
	require.Equal(t, "OK\r\n", client.roundTrip("ON"))
	require.Equal(t, "OK C=3\r\n", client.roundTrip("CHANNELS"))
}

func TestLineAtLimitIsParsed(t *testing.T) {
	client := dial(t, startTVServer(t, 3))

	line := "SET" + strings.Repeat(" ", protocol.MaxLineLength-4) + "2"
	require.Len(t, line, protocol.MaxLineLength)
	require.Equal(t, "ERR 401 TV_OFF\r\n", client.roundTrip(line))
}

func TestOversizedFrameIsDrained(t *testing.T) {
	client := dial(t, startTVServer(t, 3))

	require.Equal(t, "ERR 400 LINE_TOO_LONG\r\n", client.roundTrip(strings.Repeat("B", 3*frameBufferSize)))
	require.Equal(t, "OK OFF\r\n", client.roundTrip("STATUS"))
}

func TestOversizedFrameWinsOverShortTrimmedLength(t *testing.T) {
	client := dial(t, startTVServer(t, 3))

	padded := "ON" + strings.Repeat(" ", frameBufferSize+4000)
	require.Equal(t, "ERR 400 LINE_TOO_LONG\r\n", client.roundTrip(padded))
	require.Equal(t, "OK OFF\r\n", client.roundTrip("STATUS"))

	padded = "ON" + strings.Repeat(" ", frameBufferSize/2)
	require.Equal(t, "OK\r\n", client.roundTrip(padded))
}

func TestOnlyASCIIWhitespaceIsTrimmedOrSplit(t *testing.T) {
	client := dial(t, startTVServer(t, 9))

	require.Equal(t, "OK\r\n", client.roundTrip("\x00ON"))
	require.Equal(t, "ERR 400 BAD_COMMAND\r\n", client.roundTrip("SET\u00a05"))
	require.Equal(t, "OK CH=5\r\n", client.roundTrip("SET\t5"))

	client.write("\x00\x01\r\n")
	require.Equal(t, "OK CH=5\r\n", client.roundTrip("GET"))
}

func TestBareLineFeedTerminator(t *testing.T) {
	client := dial(t, startTVServer(t, 3))

	client.write("ON\nGET\n")
	require.Equal(t, "OK\r\n", client.readLine())
	require.Equal(t, "OK CH=1\r\n", client.readLine())
}

func TestUnterminatedFinalLineIsAnswered(t *testing.T) {
	client := dial(t, startTVServer(t, 3))

	client.write("STATUS")
	require.NoError(t, client.conn.(*net.TCPConn).CloseWrite())
	require.Equal(t, "OK OFF\r\n", client.readLine())
}

func TestHandlerFailuresBecomeServerErrors(t *testing.T) {
	handler := HandlerFunc(func(line string) (protocol.Response, error) {
		switch line {
		case "FAIL":
			return protocol.Response{}, errors.New("boom")
		case "PANIC":
			panic("unexpected")
		default:
			return protocol.ReplyOK(), nil
		}
	})
	addr := startServer(t, handler, Options{})
	client := dial(t, addr)

	require.Equal(t, "ERR 500 SERVER_ERROR\r\n", client.roundTrip("FAIL"))
	require.Equal(t, "ERR 500 SERVER_ERROR\r\n", client.roundTrip("PANIC"))
	require.Equal(t, "OK\r\n", client.roundTrip("PING"))
}

func TestConcurrentSessionsShareState(t *testing.T) {
	const channels = 100
	set, err := tv.New(channels)
	require.NoError(t, err)
	set.TurnOn()
	addr := startServer(t, dispatch.New(set), Options{})

	var wg sync.WaitGroup
	for w := 0; w < 2; w++ {
		client := dial(t, addr)
		wg.Add(1)
		go func(w int, client *testClient) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				n := (w*37+i*13)%channels + 1
				reply, err := exchangeRaw(client, fmt.Sprintf("SET %d", n))
				if err != nil {
					t.Errorf("SET: %v", err)
					return
				}
				if reply != fmt.Sprintf("OK CH=%d\r\n", n) {
					t.Errorf("SET %d reply = %q", n, reply)
					return
				}

				reply, err = exchangeRaw(client, "GET")
				if err != nil {
					t.Errorf("GET: %v", err)
					return
				}
				var got int
				if _, err := fmt.Sscanf(reply, "OK CH=%d\r\n", &got); err != nil || got < 1 || got > channels {
					t.Errorf("GET reply = %q", reply)
					return
				}
			}
		}(w, client)
	}
	wg.Wait()

	snap := set.Snapshot()
	require.GreaterOrEqual(t, snap.Current, 1)
	require.LessOrEqual(t, snap.Current, channels)
}

func exchangeRaw(c *testClient, line string) (string, error) {
	if _, err := c.conn.Write([]byte(line + "\r\n")); err != nil {
		return "", err
	}
	if err := c.conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		return "", err
	}
	return c.reader.ReadString('\n')
}

func TestSecondClientServedWhileFirstIsOpen(t *testing.T) {
	addr := startTVServer(t, 5)
	first := dial(t, addr)
	require.Equal(t, "OK\r\n", first.roundTrip("ON"))

	second := dial(t, addr)
	require.Equal(t, "OK CH=1\r\n", second.roundTrip("GET"))
	require.Equal(t, "OK CH=2\r\n", first.roundTrip("UP"))
	require.Equal(t, "OK CH=2\r\n", second.roundTrip("GET"))
}

func TestMaxSessionsQueuesExtraClients(t *testing.T) {
	addr := startServer(t, HandlerFunc(func(string) (protocol.Response, error) {
		return protocol.ReplyOK(), nil
	}), Options{MaxSessions: 1})

	first := dial(t, addr)
	require.Equal(t, "OK\r\n", first.roundTrip("PING"))

	second := dial(t, addr)
	second.write("PING\r\n")
	require.NoError(t, second.conn.SetReadDeadline(time.Now().Add(150*time.Millisecond)))
	_, err := second.reader.ReadString('\n')
	var ne net.Error
	require.True(t, errors.As(err, &ne) && ne.Timeout(), "expected queued client, got %v", err)

	require.NoError(t, first.conn.Close())
	require.Equal(t, "OK\r\n", second.readLine())
}

func TestShutdownClosesActiveSessions(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := New(HandlerFunc(func(string) (protocol.Response, error) {
		return protocol.ReplyOK(), nil
	}), Options{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- srv.Serve(ctx, listener)
	}()

	first := dial(t, listener.Addr().String())
	second := dial(t, listener.Addr().String())
	require.Equal(t, "OK\r\n", first.roundTrip("PING"))
	require.Equal(t, "OK\r\n", second.roundTrip("PING"))
	require.Equal(t, 2, srv.ActiveSessions())

	cancel()
	require.NoError(t, <-serveDone)
	require.Zero(t, srv.ActiveSessions())

	for _, client := range []*testClient{first, second} {
		require.NoError(t, client.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, err := client.reader.ReadString('\n')
		require.Error(t, err)
	}
}

func TestReadLine(t *testing.T) {
	reader := bufio.NewReaderSize(strings.NewReader("ON\r\nGET\n"+strings.Repeat("x", 64)+"\nlast"), 16)

	line, overflow, err := readLine(reader)
	require.NoError(t, err)
	require.False(t, overflow)
	require.Equal(t, "ON", line)

	line, _, err = readLine(reader)
	require.NoError(t, err)
	require.Equal(t, "GET", line)

	_, overflow, err = readLine(reader)
	require.NoError(t, err)
	require.True(t, overflow)

	line, overflow, err = readLine(reader)
	require.NoError(t, err)
	require.False(t, overflow)
	require.Equal(t, "last", line)

	_, _, err = readLine(reader)
	require.Error(t, err)
}
