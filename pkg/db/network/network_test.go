package network

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitmesh/gitmesh/dao/model"
	"github.com/gitmesh/gitmesh/pkg/db"
	"github.com/gitmesh/gitmesh/pkg/db/dbtest"
	"github.com/gitmesh/gitmesh/pkg/db/peer"
	"github.com/gitmesh/gitmesh/pkg/db/repository"
	"github.com/gitmesh/gitmesh/pkg/db/user"
	"github.com/gitmesh/gitmesh/pkg/storage"
)

func TestStats(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.Open(t)
	store, err := storage.NewStore(t.TempDir())
	require.NoError(t, err)
	peers := peer.NewDBService(gdb)
	agg := NewAggregator(user.NewDBService(gdb), repository.NewDBService(gdb, store), peers)

	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	empty, err := agg.Stats(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, *empty)

	alex := dbtest.CreateUser(t, gdb, "alex")
	require.NoError(t, gdb.Model(alex).Update("storage_used", 1_200_000_000).Error)
	lisa := dbtest.CreateUser(t, gdb, "lisa")
	require.NoError(t, gdb.Model(lisa).Update("storage_used", 500_000_000).Error)
	require.NoError(t, gdb.Create(&model.Repository{Name: "r", OwnerID: alex.ID, IsPublic: true, LocalPath: "/repos/r"}).Error)

	_, err = peers.Upsert(ctx, "fresh", nil, now.Add(-(9*time.Minute + 59*time.Second)))
	require.NoError(t, err)
	_, err = peers.Upsert(ctx, "stale", nil, now.Add(-(10*time.Minute + 1*time.Second)))
	require.NoError(t, err)

	stats, err := agg.Stats(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, Stats{
		TotalUsers:        2,
		TotalRepositories: 1,
		ActivePeers:       1,
		TotalStorage:      1_700_000_000,
	}, *stats)

	active, err := peers.ListActive(ctx, now)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "fresh", active[0].PeerID)
}

func TestPeerUpsertAndShare(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.Open(t)
	peers := peer.NewDBService(gdb)
	now := time.Now()

	p, err := peers.Upsert(ctx, "QmPeerid1", json.RawMessage(`{"name":"Alex Node"}`), now)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Alex Node"}`, string(p.Metadata))

	p2, err := peers.Upsert(ctx, "QmPeerid1", nil, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, p.ID, p2.ID)
	assert.JSONEq(t, `{"name":"Alex Node"}`, string(p2.Metadata))

	p3, err := peers.Upsert(ctx, "QmPeerid2", nil, now)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(p3.Metadata))

	_, err = peers.Upsert(ctx, "", nil, now)
	assert.ErrorIs(t, err, db.ErrInvalid)

	alex := dbtest.CreateUser(t, gdb, "alex")
	repo := model.Repository{Name: "r", OwnerID: alex.ID, IsPublic: true, LocalPath: "/repos/r"}
	require.NoError(t, gdb.Create(&repo).Error)

	s1, err := peers.Share(ctx, repo.ID, "QmPeerid1")
	require.NoError(t, err)
	s2, err := peers.Share(ctx, repo.ID, "QmPeerid1")
	require.NoError(t, err)
	assert.Equal(t, s1.ID, s2.ID)

	_, err = peers.Share(ctx, repo.ID, "unknown")
	assert.ErrorIs(t, err, db.ErrNotFound)
	_, err = peers.Share(ctx, 999, "QmPeerid1")
	assert.ErrorIs(t, err, db.ErrNotFound)

	shares, err := peers.ListShares(ctx, repo.ID)
	require.NoError(t, err)
	require.Len(t, shares, 1)
	require.NotNil(t, shares[0].Peer)
	assert.Equal(t, "QmPeerid1", shares[0].Peer.PeerID)

	require.NoError(t, peers.Unshare(ctx, repo.ID, "QmPeerid1"))
	assert.ErrorIs(t, peers.Unshare(ctx, repo.ID, "QmPeerid1"), db.ErrNotFound)
}
