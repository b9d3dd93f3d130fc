package fetcher

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/attempt-grading-service/internal/config"
)

func newTestFetcher(maxBytes int) *Fetcher {
	return New(config.FetcherConfig{MaxBytes: maxBytes, Timeout: 5 * time.Second, AllowPrivateNetworks: true},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestFetch_HTMLPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, `<html><head><title>t</title><style>.x{}</style></head>
<body><h1>Portfolio</h1><script>alert(1)</script><p>My   final   project</p></body></html>`)
	}))
	defer srv.Close()

	content := newTestFetcher(1024).Fetch(t.Context(), srv.URL)

	require.True(t, content.IsFunctional)
	assert.Equal(t, "Portfolio\nMy final project", content.Body)
}

func TestFetch_Truncates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, strings.Repeat("a", 500))
	}))
	defer srv.Close()

	content := newTestFetcher(100).Fetch(t.Context(), srv.URL)

	require.True(t, content.IsFunctional)
	assert.Len(t, content.Body, 100)
}

func TestFetch_NotFunctional(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := newTestFetcher(1024)
	tests := []struct {
		name string
		url  string
	}{
		{name: "404", url: srv.URL},
		{name: "not a url", url: "::::"},
		{name: "wrong scheme", url: "ftp://example.com/file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, f.Fetch(t.Context(), tt.url).IsFunctional)
		})
	}
}

func TestFetch_BlocksPrivateNetworks(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = io.WriteString(w, "internal")
	}))
	defer srv.Close()

	f := New(config.FetcherConfig{MaxBytes: 1024, Timeout: 2 * time.Second},
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	for _, target := range []string{srv.URL, "http://169.254.169.254/latest/meta-data", "http://[::1]:9/"} {
		t.Run(target, func(t *testing.T) {
			assert.False(t, f.Fetch(t.Context(), target).IsFunctional)
		})
	}
	assert.Zero(t, hits.Load())

	_, err := f.fetchPage(t.Context(), srv.URL)
	assert.ErrorIs(t, err, ErrBlockedAddress)
}

func TestIsPublic(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{addr: "93.184.216.34", want: true},
		{addr: "2606:4700::1111", want: true},
		{addr: "127.0.0.1"},
		{addr: "10.1.2.3"},
		{addr: "172.16.0.1"},
		{addr: "192.168.1.1"},
		{addr: "169.254.169.254"},
		{addr: "100.64.0.1"},
		{addr: "0.0.0.0"},
		{addr: "::1"},
		{addr: "fe80::1"},
		{addr: "fd00::1"},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			assert.Equal(t, tt.want, isPublic(netip.MustParseAddr(tt.addr)))
		})
	}
}

func TestFetchGitHub(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/raw/octo/demo/main/cmd/main.go":
			_, _ = io.WriteString(w, "package main")
		case "/api/repos/octo/demo":
			_, _ = io.WriteString(w, `{"full_name":"octo/demo","description":"A demo","language":"Go","default_branch":"trunk"}`)
		case "/raw/octo/demo/trunk/README.md":
			_, _ = io.WriteString(w, "# Demo")
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	f := newTestFetcher(4096)
	f.githubAPIBase = srv.URL + "/api"
	f.githubRawBase = srv.URL + "/raw"

	t.Run("blob", func(t *testing.T) {
		body, err := f.fetchGitHub(t.Context(), mustParse(t, "https://github.com/octo/demo/blob/main/cmd/main.go"))
		require.NoError(t, err)
		assert.Equal(t, "package main", body)
	})

	t.Run("repository root", func(t *testing.T) {
		body, err := f.fetchGitHub(t.Context(), mustParse(t, "https://github.com/octo/demo"))
		require.NoError(t, err)
		assert.Contains(t, body, "Repository: octo/demo")
		assert.Contains(t, body, "Language: Go")
		assert.Contains(t, body, "# Demo")
	})
}

func TestTruncate_RuneBoundary(t *testing.T) {
	s := "héllo"
	assert.Equal(t, "h", truncate(s, 2))
	assert.Equal(t, "hé", truncate(s, 3))
	assert.Equal(t, s, truncate(s, 100))
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}
