package doctor

import (
	"bufio"
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/rbright/tvremote/internal/config"
	"github.com/rbright/tvremote/internal/health"
	"github.com/stretchr/testify/require"
)

func TestReportOKAndString(t *testing.T) {
	report := Report{Checks: []Check{
		{Name: "one", Pass: true, Message: "good"},
		{Name: "two", Pass: false, Message: "bad"},
	}}

	require.False(t, report.OK())
	text := report.String()
	require.Contains(t, text, "[OK] one: good")
	require.Contains(t, text, "[FAIL] two: bad")
}

func TestProbeAddr(t *testing.T) {
	require.Equal(t, "127.0.0.1:1238", ProbeAddr(config.ServerConfig{Port: 1238}))
	require.Equal(t, "127.0.0.1:1", ProbeAddr(config.ServerConfig{ListenHost: "0.0.0.0", Port: 1}))
	require.Equal(t, "[::1]:9", ProbeAddr(config.ServerConfig{ListenHost: "::1", Port: 9}))
}

func pingServer(t *testing.T) int {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				if _, err := bufio.NewReader(c).ReadString('\n'); err == nil {
					_, _ = c.Write([]byte("OK\r\n"))
				}
			}(conn)
		}
	}()
	return listener.Addr().(*net.TCPAddr).Port
}

func TestRunPassesWithLiveServer(t *testing.T) {
	loaded := config.Loaded{Path: "/tmp/x.jsonc", Config: config.Default(), Exists: true}
	loaded.Config.Server.Port = pingServer(t)

	report := Run(context.Background(), loaded)
	require.True(t, report.OK(), report.String())
	require.Contains(t, report.String(), "PING answered")
}

func TestRunFailsWithoutServer(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())

	loaded := config.Loaded{Path: "/tmp/missing.jsonc", Config: config.Default()}
	loaded.Config.Server.Port = port
	loaded.Config.Client.DialTimeoutMS = 200

	report := Run(context.Background(), loaded)
	require.False(t, report.OK())
	require.Contains(t, report.String(), "not found; using defaults")
	require.Contains(t, report.String(), "no server listening on 127.0.0.1:"+strconv.Itoa(port))
}

func TestRunChecksHealthWhenEnabled(t *testing.T) {
	healthListener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv := health.NewServer()
	srv.SetServing(true)
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- srv.Serve(ctx, healthListener)
	}()

	loaded := config.Loaded{Path: "/tmp/x.jsonc", Config: config.Default(), Exists: true}
	loaded.Config.Server.Port = pingServer(t)
	loaded.Config.Health.Enable = true
	loaded.Config.Health.Address = healthListener.Addr().String()
	loaded.Config.Client.DialTimeoutMS = int((2 * time.Second).Milliseconds())

	report := Run(context.Background(), loaded)
	require.True(t, report.OK(), report.String())
	require.Contains(t, report.String(), "[OK] health: SERVING")

	cancel()
	require.NoError(t, <-serveDone)
}
