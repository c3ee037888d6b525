package client

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gregjones/httpcache"
	"github.com/stretchr/testify/require"
)

func TestClientServesFromCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Cache-Control", "max-age=60")
		_, _ = io.WriteString(w, "State,Year,Emissions\n")
	}))
	defer srv.Close()

	c := New(DefaultConfig())

	first, err := c.Get(srv.URL)
	require.NoError(t, err)
	_, err = io.Copy(io.Discard, first.Body)
	require.NoError(t, err)
	require.NoError(t, first.Body.Close())
	require.Empty(t, first.Header.Get(httpcache.XFromCache))

	second, err := c.Get(srv.URL)
	require.NoError(t, err)
	body, err := io.ReadAll(second.Body)
	require.NoError(t, err)
	require.NoError(t, second.Body.Close())

	require.Equal(t, "State,Year,Emissions\n", string(body))
	require.Equal(t, "1", second.Header.Get(httpcache.XFromCache))
	require.Equal(t, int32(1), hits.Load())
}

func TestClientDiskCacheSurvivesNewClient(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Cache-Control", "max-age=300")
		_, _ = io.WriteString(w, "cached body")
	}))
	defer srv.Close()

	cfg := Config{CacheDir: t.TempDir()}

	first := New(cfg)
	resp, err := first.Get(srv.URL)
	require.NoError(t, err)
	_, err = io.Copy(io.Discard, resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	second := New(cfg)
	resp, err = second.Get(srv.URL)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	require.Equal(t, "cached body", string(body))
	require.Equal(t, "1", resp.Header.Get(httpcache.XFromCache))
	require.Equal(t, int32(1), hits.Load())
}

func TestClientUncacheableResponses(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Cache-Control", "no-store")
		_, _ = io.WriteString(w, "fresh")
	}))
	defer srv.Close()

	c := New(DefaultConfig())

	for range 2 {
		resp, err := c.Get(srv.URL)
		require.NoError(t, err)
		_, err = io.Copy(io.Discard, resp.Body)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		require.Empty(t, resp.Header.Get(httpcache.XFromCache))
	}

	require.Equal(t, int32(2), hits.Load())
}
