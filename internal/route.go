package internal

import (
	"net/http"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/gitmesh/gitmesh/internal/handler"
	"github.com/gitmesh/gitmesh/internal/middleware"
	"github.com/gitmesh/gitmesh/pkg/config"
)

const APIPrefix = "/api"

type Backend struct {
	R *gin.Engine
}

func Register(registerConfig *handler.RegisterConfig) *Backend {
	s := new(Backend)
	s.R = gin.New()
	s.R.Use(gin.Logger(), gin.Recovery(), middleware.RequestID())

	// Enable CORS for the dev UI or the configured origins
	if origins := allowOrigins(registerConfig.Config); len(origins) > 0 {
		corsConf := cors.DefaultConfig()
		corsConf.AllowOrigins = origins
		corsConf.AllowCredentials = true
		corsConf.AddAllowHeaders("Authorization")
		corsConf.AddExposeHeaders(middleware.RequestIDHeader)
		s.R.Use(cors.New(corsConf))
	}

	// Kubernetes health check
	s.R.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "ok",
		})
	})

	metricsMgr := handler.NewMetricsMgr(registerConfig)
	metricsMgr.RegisterPublic(s.R.Group("/metrics"))

	s.RegisterService(registerConfig)
	return s
}

func allowOrigins(conf *config.Config) []string {
	origins := append([]string{}, conf.CORS.AllowOrigins...)
	if config.IsDebugMode() {
		if fe := os.Getenv("GITMESH_FE_PORT"); fe != "" {
			origins = append(origins, "http://localhost:"+fe)
		}
	}
	return origins
}

func (b *Backend) RegisterService(registerConfig *handler.RegisterConfig) {
	managers := registerManagers(registerConfig)
	auth := middleware.NewSessionAuth(registerConfig.TokenMgr, registerConfig.Users,
		config.NewTokenConf(registerConfig.Config).CookieName)

	///////////////////////////////////////
	//// Public routers, no need login ////
	///////////////////////////////////////

	publicRouter := b.R.Group(APIPrefix)
	publicRouter.Use(auth.Optional())
	for _, mgr := range managers {
		mgr.RegisterPublic(publicRouter.Group(mgr.GetName()))
	}

	///////////////////////////////////////
	//// Protected routers, need login ////
	///////////////////////////////////////

	protectedRouter := b.R.Group(APIPrefix)
	protectedRouter.Use(auth.Protected())
	for _, mgr := range managers {
		mgr.RegisterProtected(protectedRouter.Group(mgr.GetName()))
	}
}
