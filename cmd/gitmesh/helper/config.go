package helper

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/gitmesh/gitmesh/internal/handler"
	"github.com/gitmesh/gitmesh/internal/util"
	"github.com/gitmesh/gitmesh/pkg/config"
	"github.com/gitmesh/gitmesh/pkg/crypto"
	"github.com/gitmesh/gitmesh/pkg/db/activity"
	"github.com/gitmesh/gitmesh/pkg/db/collaborator"
	"github.com/gitmesh/gitmesh/pkg/db/network"
	"github.com/gitmesh/gitmesh/pkg/db/orm"
	"github.com/gitmesh/gitmesh/pkg/db/peer"
	"github.com/gitmesh/gitmesh/pkg/db/repository"
	"github.com/gitmesh/gitmesh/pkg/db/tag"
	"github.com/gitmesh/gitmesh/pkg/db/user"
	"github.com/gitmesh/gitmesh/pkg/relay"
	"github.com/gitmesh/gitmesh/pkg/storage"
)

// ConfigInitializer wires the configuration into the shared dependencies.
type ConfigInitializer struct {
	backendConfig *config.Config
}

func NewConfigInitializer() *ConfigInitializer {
	return &ConfigInitializer{
		backendConfig: config.GetConfig(),
	}
}

func (ci *ConfigInitializer) GetBackendConfig() *config.Config {
	return ci.backendConfig
}

// LoadDebugEnvironment reads .debug.env in debug mode and applies GITMESH_BE_PORT.
func (ci *ConfigInitializer) LoadDebugEnvironment() error {
	if !config.IsDebugMode() {
		return nil
	}

	if err := godotenv.Load(".debug.env"); err != nil && !os.IsNotExist(err) {
		return err
	}

	if be := os.Getenv("GITMESH_BE_PORT"); be != "" {
		ci.backendConfig.ServerAddr = ":" + be
	}
	return nil
}

// OpenDatabase connects and brings the schema up to date.
func (ci *ConfigInitializer) OpenDatabase() (*gorm.DB, error) {
	gdb, err := orm.Open(ci.backendConfig)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := orm.Migrate(gdb); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return gdb, nil
}

func (ci *ConfigInitializer) OpenStore() (storage.Store, error) {
	return storage.NewStore(ci.backendConfig.Storage.DataDir)
}

// InitializeRegisterConfig builds the services behind every HTTP manager and the relay.
func (ci *ConfigInitializer) InitializeRegisterConfig(gdb *gorm.DB, store storage.Store) *handler.RegisterConfig {
	users := user.NewDBService(gdb)
	repos := repository.NewDBService(gdb, store)
	peers := peer.NewDBService(gdb)

	rc := &handler.RegisterConfig{
		Config:        ci.backendConfig,
		TokenMgr:      util.NewTokenManager(config.NewTokenConf(ci.backendConfig)),
		Users:         users,
		Repositories:  repos,
		Collaborators: collaborator.NewDBService(gdb),
		Tags:          tag.NewDBService(gdb),
		Peers:         peers,
		Activities:    activity.NewDBService(gdb),
		Network:       network.NewAggregator(users, repos, peers),
		KeyGen:        crypto.GenerateKeyPair,
	}
	rc.Relay = relay.New(peers, crypto.NewVerifier(), klog.NewKlogr().WithName("relay"),
		relay.WithCheckOrigin(ci.checkOrigin),
		relay.WithClock(func() time.Time { return time.Now().UTC() }),
	)
	return rc
}

// checkOrigin admits non-browser clients, same-host pages and the configured CORS origins.
func (ci *ConfigInitializer) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || config.IsDebugMode() {
		return true
	}
	if lo.Contains(ci.backendConfig.CORS.AllowOrigins, origin) {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}
