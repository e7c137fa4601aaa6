package reload

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/LukasKalbertodt/watchboi/internal/logging"
	"github.com/LukasKalbertodt/watchboi/internal/metrics"
)

func newTestServer(t *testing.T, backendAddr string) (*Server, *Registry, *httptest.Server) {
	t.Helper()
	registry := NewRegistry()
	logger := logging.NewWithWriter(io.Discard, "error")
	srv := NewServer("127.0.0.1:0", backendAddr, registry, logger, metrics.New(), false)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, registry, ts
}

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	return conn
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestAcceptRegistersConnections(t *testing.T) {
	_, registry, ts := newTestServer(t, "")

	c1 := dial(t, wsURL(ts.URL))
	defer c1.Close()
	c2 := dial(t, wsURL(ts.URL))
	defer c2.Close()

	waitFor(t, func() bool { return registry.Len() == 2 })
}

func TestRefreshDropsAllConnections(t *testing.T) {
	srv, registry, ts := newTestServer(t, "")

	const clients = 5
	conns := make([]*websocket.Conn, clients)
	for i := range conns {
		conns[i] = dial(t, wsURL(ts.URL))
		defer conns[i].Close()
	}
	waitFor(t, func() bool { return registry.Len() == clients })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	refresh := make(chan struct{}, 1)
	go srv.ConsumeRefresh(ctx, refresh)

	refresh <- struct{}{}

	waitFor(t, func() bool { return registry.Len() == 0 })

	// Every client observes the close; that is the reload signal.
	for i, conn := range conns {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		if _, _, err := conn.ReadMessage(); err == nil {
			t.Errorf("client %d: expected read to fail after server close", i)
		}
	}
}

func TestRefreshOnEmptyRegistryIsNoOp(t *testing.T) {
	srv, registry, _ := newTestServer(t, "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	refresh := make(chan struct{}, 2)
	done := make(chan struct{})
	go func() {
		srv.ConsumeRefresh(ctx, refresh)
		close(done)
	}()

	refresh <- struct{}{}
	refresh <- struct{}{}
	close(refresh)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not drain triggers")
	}
	if registry.Len() != 0 {
		t.Errorf("registry not empty")
	}
}
