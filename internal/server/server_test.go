package server

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startServer runs a server on an ephemeral port and returns it with its base URL.
func startServer(t *testing.T, latency time.Duration, logger *logrus.Logger) (*Server, string) {
	t.Helper()

	s, err := New(&Config{Latency: latency, Port: 0, Root: testRoot(t), Logger: logger})
	require.NoError(t, err)
	require.NoError(t, s.Listen())

	done := make(chan error, 1)
	go func() { done <- s.Serve() }()
	t.Cleanup(func() {
		s.Close()
		assert.NoError(t, <-done)
	})

	port := s.Addr().(*net.TCPAddr).Port
	return s, fmt.Sprintf("http://127.0.0.1:%d", port)
}

func testClient() *http.Client {
	return &http.Client{
		Timeout:   10 * time.Second,
		Transport: &http.Transport{DisableKeepAlives: true},
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(&Config{Latency: -time.Millisecond})
	assert.Error(t, err)

	_, err = New(&Config{Port: 70000})
	assert.Error(t, err)
}

func TestBanner(t *testing.T) {
	s, _ := startServer(t, 0, nil)

	port := s.Addr().(*net.TCPAddr).Port
	assert.Equal(t, fmt.Sprintf("Serving HTTP on 0.0.0.0 port %d ...", port), s.Banner())
}

func TestListenIPv4Only(t *testing.T) {
	s, _ := startServer(t, 0, nil)

	addr, ok := s.Addr().(*net.TCPAddr)
	require.True(t, ok)
	assert.NotNil(t, addr.IP.To4(), "listener should be bound to an IPv4 address")
	assert.True(t, addr.IP.IsUnspecified())
}

func TestNoServerTimeouts(t *testing.T) {
	s, err := New(&Config{Latency: time.Hour})
	require.NoError(t, err)
	defer s.Close()

	assert.Zero(t, s.httpServer.ReadTimeout)
	assert.Zero(t, s.httpServer.ReadHeaderTimeout)
	assert.Zero(t, s.httpServer.WriteTimeout)
	assert.Zero(t, s.httpServer.IdleTimeout)
}

func TestServeFileWithLatency(t *testing.T) {
	for _, latency := range []time.Duration{0, time.Millisecond, 200 * time.Millisecond} {
		t.Run(latency.String(), func(t *testing.T) {
			_, base := startServer(t, latency, nil)

			start := time.Now()
			resp, err := testClient().Get(base + "/hello.txt")
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			elapsed := time.Since(start)
			require.NoError(t, err)

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, "hello, world\n", string(body))
			assert.Equal(t, "*", resp.Header.Get(HeaderAllowOrigin))
			assert.Equal(t, "*", resp.Header.Get(HeaderTimingAllowOrigin))
			assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain"))
			assert.GreaterOrEqual(t, elapsed, 2*latency)
		})
	}
}

func TestServeNotFound(t *testing.T) {
	_, base := startServer(t, time.Millisecond, nil)

	resp, err := testClient().Get(base + "/does/not/exist")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get(HeaderAllowOrigin))
	assert.Equal(t, "*", resp.Header.Get(HeaderTimingAllowOrigin))
}

func TestServeUnsupportedMethod(t *testing.T) {
	_, base := startServer(t, 0, nil)

	resp, err := testClient().Post(base+"/hello.txt", "text/plain", strings.NewReader("x"))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get(HeaderAllowOrigin))
}

func TestConnectionClosedAfterResponse(t *testing.T) {
	s, _ := startServer(t, 0, nil)

	conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", s.Addr().(*net.TCPAddr).Port))
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))

	// Two pipelined requests on one connection; only the first is answered.
	req := "GET /hello.txt HTTP/1.1\r\nHost: localhost\r\n\r\n"
	_, err = io.WriteString(conn, req+req)
	require.NoError(t, err)

	br := bufio.NewReader(conn)
	resp, err := http.ReadResponse(br, nil)
	require.NoError(t, err)
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, resp.Close, "response should ask to close the connection")

	rest, err := io.ReadAll(br)
	require.NoError(t, err)
	assert.Empty(t, rest)
}

func TestListenPortInUse(t *testing.T) {
	ln, err := net.Listen("tcp4", "0.0.0.0:0")
	require.NoError(t, err)
	defer ln.Close()

	s, err := New(&Config{Port: ln.Addr().(*net.TCPAddr).Port})
	require.NoError(t, err)
	defer s.Close()

	err = s.Listen()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to bind port")
}

func TestServeBeforeListen(t *testing.T) {
	s, err := New(&Config{})
	require.NoError(t, err)
	defer s.Close()

	assert.Error(t, s.Serve())
	assert.Nil(t, s.Addr())
}

func TestDebugRequestLog(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	_, base := startServer(t, 0, logger)

	resp, err := testClient().Get(base + "/hello.txt")
	require.NoError(t, err)
	resp.Body.Close()

	// The line is written after the response, so it may trail the client.
	var entry *logrus.Entry
	require.Eventually(t, func() bool {
		for _, e := range hook.AllEntries() {
			if e.Message == "request served" {
				entry = e
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "GET", entry.Data["method"])
	assert.Equal(t, "/hello.txt", entry.Data["path"])
	assert.Equal(t, http.StatusOK, entry.Data["status"])
	assert.NotEmpty(t, entry.Data["id"])
}

func TestNoRequestLogAtInfo(t *testing.T) {
	logger, hook := test.NewNullLogger()
	_, base := startServer(t, 0, logger)

	resp, err := testClient().Get(base + "/hello.txt")
	require.NoError(t, err)
	resp.Body.Close()

	for _, e := range hook.AllEntries() {
		assert.NotEqual(t, "request served", e.Message)
	}
}
