package http_handler

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anthanhphan/go-hashring-balancer/internal/balancer/config"
	"github.com/anthanhphan/go-hashring-balancer/internal/balancer/domain"
	"github.com/anthanhphan/go-hashring-balancer/internal/balancer/port/mocks"
	"github.com/anthanhphan/go-hashring-balancer/pkg/hashring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestServer(t *testing.T) (*Server, *mocks.MockBalancerService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	service := mocks.NewMockBalancerService(ctrl)
	server := NewServer(config.DefaultConfig(), service, nil)
	return server, service
}

func TestHandleAddServer(t *testing.T) {
	server, service := newTestServer(t)

	service.EXPECT().
		AddServer(domain.Server{Name: "web-1", Host: "10.0.0.1", Port: 9001, Weight: 2}).
		Return(nil)

	req := httptest.NewRequest("POST", "/api/servers",
		strings.NewReader(`{"name":"web-1","host":"10.0.0.1","port":9001,"weight":2}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := server.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)
}

func TestHandleAddServer_Duplicate(t *testing.T) {
	server, service := newTestServer(t)

	service.EXPECT().
		AddServer(gomock.Any()).
		Return(hashring.ErrDuplicateServer)

	req := httptest.NewRequest("POST", "/api/servers",
		strings.NewReader(`{"name":"web-1","host":"10.0.0.1","port":9001}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := server.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, 409, resp.StatusCode)
}

func TestHandleAddServer_MissingFields(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest("POST", "/api/servers",
		strings.NewReader(`{"name":"web-1"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := server.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestHandleRemoveServer_NotFound(t *testing.T) {
	server, service := newTestServer(t)

	service.EXPECT().
		RemoveServer("ghost").
		Return(hashring.ErrServerNotFound)

	req := httptest.NewRequest("DELETE", "/api/servers/ghost", nil)
	resp, err := server.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestHandleUpdateWeight_Invalid(t *testing.T) {
	server, service := newTestServer(t)

	service.EXPECT().
		UpdateWeight("web-1", 0).
		Return(hashring.ErrInvalidWeight)

	req := httptest.NewRequest("PUT", "/api/servers/web-1",
		strings.NewReader(`{"weight":0}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := server.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestHandleMarkHealth(t *testing.T) {
	server, service := newTestServer(t)

	service.EXPECT().
		MarkServerHealth("web-1", false).
		Return(nil)

	req := httptest.NewRequest("PUT", "/api/servers/web-1/health",
		strings.NewReader(`{"healthy":false}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := server.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestHandleMarkHealth_MissingField(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest("PUT", "/api/servers/web-1/health",
		strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := server.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestHandleHealth(t *testing.T) {
	server, service := newTestServer(t)

	service.EXPECT().GetAggregateStats().Return(domain.AggregateStats{
		TotalServers:   2,
		HealthyServers: 1,
	})

	resp, err := server.App().Test(httptest.NewRequest("GET", "/api/health", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestHandleHealth_NoHealthyBackends(t *testing.T) {
	server, service := newTestServer(t)

	service.EXPECT().GetAggregateStats().Return(domain.AggregateStats{
		TotalServers:   2,
		HealthyServers: 0,
	})

	resp, err := server.App().Test(httptest.NewRequest("GET", "/api/health", nil))
	require.NoError(t, err)
	assert.Equal(t, 503, resp.StatusCode)
}

func TestHandleDebugLookup(t *testing.T) {
	server, service := newTestServer(t)

	service.EXPECT().
		DebugLookup("user-42", 2).
		Return(domain.KeyLookup{
			Key:        "user-42",
			Hash:       12345,
			Selected:   "web-1",
			Candidates: []string{"web-1", "web-2"},
		}, nil)

	resp, err := server.App().Test(httptest.NewRequest("GET", "/api/debug/lookup/user-42?candidates=2", nil))
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var lookup domain.KeyLookup
	require.NoError(t, json.Unmarshal(body, &lookup))
	assert.Equal(t, "web-1", lookup.Selected)
	assert.Equal(t, []string{"web-1", "web-2"}, lookup.Candidates)
}

func TestHandleDebugLookup_EmptyRing(t *testing.T) {
	server, service := newTestServer(t)

	service.EXPECT().
		DebugLookup("user-42", 0).
		Return(domain.KeyLookup{}, domain.ErrNoServersAvailable)

	resp, err := server.App().Test(httptest.NewRequest("GET", "/api/debug/lookup/user-42", nil))
	require.NoError(t, err)
	assert.Equal(t, 503, resp.StatusCode)
}

func TestHandleDebugRing(t *testing.T) {
	server, service := newTestServer(t)

	service.EXPECT().
		RingInfo(0).
		Return(domain.RingInfo{
			TotalVNodes:     300,
			Servers:         []string{"web-1", "web-2"},
			VNodesPerServer: map[string]int{"web-1": 150, "web-2": 150},
		})

	resp, err := server.App().Test(httptest.NewRequest("GET", "/api/debug/ring", nil))
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var info domain.RingInfo
	require.NoError(t, json.Unmarshal(body, &info))
	assert.Equal(t, 300, info.TotalVNodes)
	assert.Empty(t, info.Sample)
}

func TestHandleResetStats(t *testing.T) {
	server, service := newTestServer(t)

	service.EXPECT().ResetStats()

	resp, err := server.App().Test(httptest.NewRequest("POST", "/manage/reset", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestHandleProxy_NoBackends(t *testing.T) {
	server, service := newTestServer(t)

	service.EXPECT().
		SelectServer(gomock.Any()).
		Return(domain.Server{}, domain.ErrNoHealthyServer)

	resp, err := server.App().Test(httptest.NewRequest("GET", "/some/path", nil))
	require.NoError(t, err)
	assert.Equal(t, 503, resp.StatusCode)
}
