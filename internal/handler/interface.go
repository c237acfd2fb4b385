package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/gitmesh/gitmesh/internal/util"
	"github.com/gitmesh/gitmesh/pkg/config"
	"github.com/gitmesh/gitmesh/pkg/crypto"
	"github.com/gitmesh/gitmesh/pkg/db/activity"
	"github.com/gitmesh/gitmesh/pkg/db/collaborator"
	"github.com/gitmesh/gitmesh/pkg/db/network"
	"github.com/gitmesh/gitmesh/pkg/db/peer"
	"github.com/gitmesh/gitmesh/pkg/db/repository"
	"github.com/gitmesh/gitmesh/pkg/db/tag"
	"github.com/gitmesh/gitmesh/pkg/db/user"
	"github.com/gitmesh/gitmesh/pkg/relay"
)

// Manager mounts one resource under /api/<GetName()>.
type Manager interface {
	GetName() string
	RegisterPublic(group *gin.RouterGroup)
	RegisterProtected(group *gin.RouterGroup)
}

// RegisterConfig carries the dependencies shared by all managers.
type RegisterConfig struct {
	Config   *config.Config
	TokenMgr *util.TokenManager

	Users         user.DBService
	Repositories  repository.DBService
	Collaborators collaborator.DBService
	Tags          tag.DBService
	Peers         peer.DBService
	Activities    activity.DBService
	Network       network.Aggregator

	KeyGen func() (publicPEM, privatePEM string, err error)
	Relay  *relay.Relay
}

// Registers is filled by the init functions of the handler files.
var Registers = []func(*RegisterConfig) Manager{}

func (conf *RegisterConfig) keyGen() func() (string, string, error) {
	if conf.KeyGen != nil {
		return conf.KeyGen
	}
	return crypto.GenerateKeyPair
}
