package proxy

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/LukasKalbertodt/watchboi/internal/logging"
	"github.com/LukasKalbertodt/watchboi/internal/metrics"
)

func newTestProxy(t *testing.T, backendURL string, autoReload bool) *Server {
	t.Helper()
	u, err := url.Parse(backendURL)
	if err != nil {
		t.Fatal(err)
	}
	logger := logging.NewWithWriter(io.Discard, "error")
	return NewServer("127.0.0.1:0", u.Host, 8031, autoReload, logger, metrics.New())
}

func TestProxyForwardsPathAndQuery(t *testing.T) {
	var gotPath, gotQuery string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer backend.Close()

	srv := newTestProxy(t, backend.URL, true)
	front := httptest.NewServer(srv.Handler())
	defer front.Close()

	resp, err := http.Get(front.URL + "/api/items?page=2&sort=asc")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if gotPath != "/api/items" || gotQuery != "page=2&sort=asc" {
		t.Errorf("backend saw %q?%q", gotPath, gotQuery)
	}

	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"ok":true}` {
		t.Errorf("non-HTML body modified: %q", body)
	}
}

func TestProxyInjectsIntoHTML(t *testing.T) {
	page := "<html><body><h1>app</h1></body></html>"
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, page)
	}))
	defer backend.Close()

	srv := newTestProxy(t, backend.URL, true)
	front := httptest.NewServer(srv.Handler())
	defer front.Close()

	resp, err := http.Get(front.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "<script>") {
		t.Error("HTML response not injected")
	}
	if cl := resp.Header.Get("Content-Length"); cl != strconv.Itoa(len(body)) {
		t.Errorf("Content-Length = %s, body is %d bytes", cl, len(body))
	}
	if len(body) <= len(page) {
		t.Error("injected body not longer than original")
	}
}

func TestProxyLeavesHTMLAloneWhenReloadDisabled(t *testing.T) {
	page := "<html><body>plain</body></html>"
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, page)
	}))
	defer backend.Close()

	srv := newTestProxy(t, backend.URL, false)
	front := httptest.NewServer(srv.Handler())
	defer front.Close()

	resp, err := http.Get(front.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if string(body) != page {
		t.Errorf("body modified with auto-reload off: %q", body)
	}
}

func TestProxyBadGateway(t *testing.T) {
	// A closed backend: grab a port, then shut it down.
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadAddr := strings.TrimPrefix(backend.URL, "http://")
	backend.Close()

	logger := logging.NewWithWriter(io.Discard, "error")
	srv := NewServer("127.0.0.1:0", deadAddr, 8031, true, logger, metrics.New())
	front := httptest.NewServer(srv.Handler())
	defer front.Close()

	resp, err := http.Get(front.URL + "/whatever")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q, want text/plain", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "failed to reach") ||
		!strings.Contains(string(body), "/whatever") {
		t.Errorf("502 body lacks failure description: %q", body)
	}
}
