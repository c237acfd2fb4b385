package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/network/stats":
			_, _ = w.Write([]byte(`{"code":0,"msg":"","data":{"totalUsers":4,"totalRepositories":5,"activePeers":3,"totalStorage":4000000000}}`))
		case "/api/peers":
			_, _ = w.Write([]byte(`{"code":0,"msg":"","data":[{"id":1,"peerId":"QmPeerid1","lastSeen":"2025-01-15T12:00:00Z","metadata":{"name":"Alex"}}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"code":40401,"msg":"Not found","data":null}`))
		}
	}))
	defer srv.Close()
	c := New(srv.URL)

	stats, err := c.Stats(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 4, stats.TotalUsers)
	assert.EqualValues(t, 5, stats.TotalRepositories)
	assert.EqualValues(t, 3, stats.ActivePeers)
	assert.EqualValues(t, 4_000_000_000, stats.TotalStorage)

	peers, err := c.ActivePeers(context.Background())
	require.NoError(t, err)
	require.Len(t, peers, 1)
	assert.Equal(t, "QmPeerid1", peers[0].PeerID)

	_, err = get[any](context.Background(), c, "/api/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Not found")
}
