package config

import (
	"errors"
	"os"
	"sync"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"
	"sigs.k8s.io/yaml"
)

type Config struct {
	// Port Settings
	Host       string `json:"host"`       // The domain name of the server.
	ServerAddr string `json:"serverAddr"` // The address the server endpoint binds to.

	Auth struct {
		SessionSecret     string `json:"sessionSecret"`
		SessionExpiryHour int    `json:"sessionExpiryHour"`
		CookieName        string `json:"cookieName"`
		CookieSecure      bool   `json:"cookieSecure"`
		// ServerKeyCustody keeps the generated private key in the users table.
		// When false the client registers with its own public key.
		ServerKeyCustody bool `json:"serverKeyCustody"`
	} `json:"auth"`

	Database struct {
		Driver   string `json:"driver"` // postgres or sqlite
		Postgres struct {
			Host     string `json:"host"`
			Port     string `json:"port"`
			DBName   string `json:"dbname"`
			User     string `json:"user"`
			Password string `json:"password"`
			SSLMode  string `json:"sslmode"`
			TimeZone string `json:"TimeZone"`
		} `json:"postgres"`
		SQLitePath string   `json:"sqlitePath"`
		Replicas   []string `json:"replicas"` // DSNs of read-only postgres replicas
	} `json:"database"`

	Storage struct {
		DataDir string `json:"dataDir"` // Root of the repository directories.
	} `json:"storage"`

	Cron struct {
		StatsSpec string `json:"statsSpec"`
	} `json:"cron"`

	CORS struct {
		AllowOrigins []string `json:"allowOrigins"`
	} `json:"cors"`
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var (
	once   sync.Once
	config *Config

	// Path is set by the --config flag before the first GetConfig call.
	Path string
)

func GetConfig() *Config {
	once.Do(func() {
		config = initConfig()
	})
	return config
}

func IsDebugMode() bool {
	return gin.Mode() == gin.DebugMode
}

// Default returns a configuration usable for local development.
func Default() *Config {
	c := &Config{}
	c.Host = "localhost"
	c.ServerAddr = ":8080"
	c.Auth.SessionSecret = "gitmesh_secret_key"
	c.Auth.SessionExpiryHour = 24 * 7
	c.Auth.CookieName = "gitmesh_session"
	c.Auth.ServerKeyCustody = true
	c.Database.Driver = DriverSQLite
	c.Database.SQLitePath = "./data/gitmesh.db"
	c.Database.Postgres.Port = "5432"
	c.Database.Postgres.SSLMode = "disable"
	c.Database.Postgres.TimeZone = "UTC"
	c.Storage.DataDir = "./data"
	c.Cron.StatsSpec = "@every 1m"
	return c
}

func configPath() string {
	if Path != "" {
		return Path
	}
	if p := os.Getenv("GITMESH_CONFIG_PATH"); p != "" {
		return p
	}
	if IsDebugMode() {
		return "./etc/debug-config.yaml"
	}
	return "/etc/gitmesh/config.yaml"
}

// initConfig reads the configuration file on top of the defaults.
// A missing file is not an error, every other read or parse failure is.
func initConfig() *Config {
	path := configPath()
	klog.Info("config path: ", path)

	c, err := Load(path)
	if err != nil {
		klog.Error("init config", err)
		panic(err)
	}
	return c
}

// Load reads filePath into a copy of Default().
func Load(filePath string) (*Config, error) {
	c := Default()
	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			klog.Warningf("config file %s not found, using defaults", filePath)
			return c, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, err
	}
	return c, nil
}
