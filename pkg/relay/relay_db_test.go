package relay

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitmesh/gitmesh/dao/model"
	"github.com/gitmesh/gitmesh/pkg/crypto"
	"github.com/gitmesh/gitmesh/pkg/db/dbtest"
	"github.com/gitmesh/gitmesh/pkg/db/peer"
)

func TestShareBetweenTwoPeersWithDatabase(t *testing.T) {
	gdb := dbtest.Open(t)
	owner := dbtest.CreateUser(t, gdb, "alex")
	require.NoError(t, gdb.Create(&model.Repository{
		ID: 5, Name: "mesh", OwnerID: owner.ID, IsPublic: true, LocalPath: "/repos/mesh",
	}).Error)
	peers := peer.NewDBService(gdb)

	srv := httptest.NewServer(New(peers, crypto.NewVerifier(), logr.Discard()))
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	a := dial(t, url)
	b := dial(t, url)
	register(t, a, "p1")

	send(t, b, TypeRegisterPeer, RegisterPeerPayload{PeerID: "p2"})
	var list []PeerInfo
	require.NoError(t, json.Unmarshal(expect(t, b, TypePeerList).Payload, &list))
	ids := []string{}
	for _, p := range list {
		ids = append(ids, p.PeerID)
	}
	assert.Contains(t, ids, "p1")

	var joined NewPeerPayload
	require.NoError(t, json.Unmarshal(expect(t, a, TypeNewPeer).Payload, &joined))
	assert.Equal(t, "p2", joined.PeerID)

	send(t, a, TypeShareRepository, ShareRepositoryPayload{RepositoryID: 5, TargetPeerID: "p2"})
	var shared RepositorySharedPayload
	require.NoError(t, json.Unmarshal(expect(t, b, TypeRepositoryShared).Payload, &shared))
	assert.Equal(t, RepositorySharedPayload{RepositoryID: 5, SourcePeerID: "p1"}, shared)

	ctx := context.Background()
	shares, err := peers.ListShares(ctx, 5)
	require.NoError(t, err)
	require.Len(t, shares, 1)
	assert.Equal(t, "p2", shares[0].PeerID)
	require.NotNil(t, shares[0].Peer)
	assert.Equal(t, "p2", shares[0].Peer.PeerID)

	active, err := peers.ListActive(ctx, time.Now())
	require.NoError(t, err)
	assert.Len(t, active, 2)
}
