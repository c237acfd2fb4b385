package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gitmesh/gitmesh/internal/resputil"
	"github.com/gitmesh/gitmesh/internal/util"
	"github.com/gitmesh/gitmesh/pkg/db/peer"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewPeerMgr)
}

type PeerMgr struct {
	name  string
	peers peer.DBService
}

func NewPeerMgr(conf *RegisterConfig) Manager {
	return &PeerMgr{
		name:  "peers",
		peers: conf.Peers,
	}
}

func (mgr *PeerMgr) GetName() string { return mgr.name }

func (mgr *PeerMgr) RegisterPublic(g *gin.RouterGroup) {
	g.GET("", mgr.ListActivePeers)
}

func (mgr *PeerMgr) RegisterProtected(_ *gin.RouterGroup) {}

// ListActivePeers godoc
// @Summary 活跃节点
// @Description 最近 10 分钟内出现过的节点，按最后出现时间倒序
// @Tags Peer
// @Produce json
// @Success 200 {object} resputil.Response[[]model.Peer]
// @Router /api/peers [get]
func (mgr *PeerMgr) ListActivePeers(c *gin.Context) {
	peers, err := mgr.peers.ListActive(c, time.Now())
	if err != nil {
		respondError(c, "list active peers", err)
		return
	}
	resputil.Success(c, peers)
}

// ListShares godoc
// @Summary 仓库分享记录
// @Tags Peer
// @Produce json
// @Param id path int true "仓库ID"
// @Success 200 {object} resputil.Response[[]model.SharedRepository]
// @Router /api/repositories/{id}/peers [get]
func (mgr *RepositoryMgr) ListShares(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if _, err := mgr.repos.Get(c, id, util.GetUserID(c)); err != nil {
		respondError(c, "get repository", err)
		return
	}
	shares, err := mgr.peers.ListShares(c, id)
	if err != nil {
		respondError(c, "list shares", err)
		return
	}
	resputil.Success(c, shares)
}

// Unshare godoc
// @Summary 取消分享
// @Tags Peer
// @Produce json
// @Security Bearer
// @Param id path int true "仓库ID"
// @Param peerId path string true "节点ID"
// @Success 200 {object} resputil.Response[any]
// @Router /api/repositories/{id}/peers/{peerId} [delete]
func (mgr *RepositoryMgr) Unshare(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if _, err := mgr.repos.GetOwned(c, id, util.GetUserID(c)); err != nil {
		respondError(c, "get repository", err)
		return
	}
	if err := mgr.peers.Unshare(c, id, c.Param("peerId")); err != nil {
		respondError(c, "unshare repository", err)
		return
	}
	resputil.Success(c, nil)
}
