package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/gitmesh/gitmesh/pkg/relay"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewRelayMgr)
}

type RelayMgr struct {
	name  string
	relay *relay.Relay
}

func NewRelayMgr(conf *RegisterConfig) Manager {
	return &RelayMgr{
		name:  "ws",
		relay: conf.Relay,
	}
}

func (mgr *RelayMgr) GetName() string { return mgr.name }

func (mgr *RelayMgr) RegisterPublic(g *gin.RouterGroup) {
	g.GET("", mgr.Serve)
}

func (mgr *RelayMgr) RegisterProtected(_ *gin.RouterGroup) {}

// Serve godoc
// @Summary 节点中继 WebSocket
// @Description 升级为 WebSocket，消息格式为 {type, payload} 的 JSON 文本
// @Tags Relay
// @Router /api/ws [get]
func (mgr *RelayMgr) Serve(c *gin.Context) {
	mgr.relay.ServeHTTP(c.Writer, c.Request)
}
