package probe

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	for _, probeType := range []string{TypeHTTP, TypeTCP, ""} {
		p, err := New(probeType, "/health")
		require.NoError(t, err, "type %q", probeType)
		require.NotNil(t, p)
	}

	_, err := New("icmp", "")
	assert.Error(t, err)
}

func TestHTTPProber_Healthy(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	prober := NewHTTPProber("/health")
	addr := strings.TrimPrefix(ts.URL, "http://")

	latency, err := prober.Probe(context.Background(), addr)
	require.NoError(t, err)
	assert.Greater(t, latency, time.Duration(0))
}

func TestHTTPProber_BadStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	prober := NewHTTPProber("/health")
	addr := strings.TrimPrefix(ts.URL, "http://")

	_, err := prober.Probe(context.Background(), addr)
	assert.ErrorContains(t, err, "unexpected status 500")
}

func TestHTTPProber_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	prober := NewHTTPProber("")
	_, err := prober.Probe(ctx, "127.0.0.1:1")
	assert.Error(t, err)
}

func TestTCPProber(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	prober := NewTCPProber()

	_, err = prober.Probe(context.Background(), ln.Addr().String())
	assert.NoError(t, err)

	_, err = prober.Probe(context.Background(), "127.0.0.1:1")
	assert.Error(t, err)
}
