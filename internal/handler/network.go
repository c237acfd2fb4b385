package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gitmesh/gitmesh/internal/resputil"
	"github.com/gitmesh/gitmesh/pkg/db/network"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewNetworkMgr)
}

type NetworkMgr struct {
	name    string
	network network.Aggregator
}

func NewNetworkMgr(conf *RegisterConfig) Manager {
	return &NetworkMgr{
		name:    "network",
		network: conf.Network,
	}
}

func (mgr *NetworkMgr) GetName() string { return mgr.name }

func (mgr *NetworkMgr) RegisterPublic(g *gin.RouterGroup) {
	g.GET("/stats", mgr.GetStats)
}

func (mgr *NetworkMgr) RegisterProtected(_ *gin.RouterGroup) {}

// GetStats godoc
// @Summary 网络统计
// @Tags Network
// @Produce json
// @Success 200 {object} resputil.Response[network.Stats]
// @Router /api/network/stats [get]
func (mgr *NetworkMgr) GetStats(c *gin.Context) {
	stats, err := mgr.network.Stats(c, time.Now())
	if err != nil {
		respondError(c, "network stats", err)
		return
	}
	resputil.Success(c, stats)
}
