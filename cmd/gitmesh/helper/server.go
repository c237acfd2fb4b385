package helper

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"k8s.io/klog/v2"

	"github.com/gitmesh/gitmesh/internal"
	"github.com/gitmesh/gitmesh/internal/handler"
	"github.com/gitmesh/gitmesh/pkg/config"
	"github.com/gitmesh/gitmesh/pkg/cronjob"
)

// ServerRunner runs the HTTP server and the background jobs.
type ServerRunner struct {
	backendConfig *config.Config
	cronManager   *cronjob.CronJobManager
}

func NewServerRunner(backendConfig *config.Config) *ServerRunner {
	return &ServerRunner{
		backendConfig: backendConfig,
	}
}

var (
	readHeaderTimeout = 10 * time.Second
	cancelTimeout     = 10 * time.Second
)

const statsJobName = "network-stats"

// StartCronJobs schedules the periodic refresh of the network gauges.
func (sr *ServerRunner) StartCronJobs(registerConfig *handler.RegisterConfig) error {
	sr.cronManager = cronjob.NewCronJobManager(registerConfig.Network)
	if _, err := sr.cronManager.AddCronJob(statsJobName, sr.backendConfig.Cron.StatsSpec, cronjob.JobTypeRefreshStats); err != nil {
		return err
	}
	if err := sr.cronManager.RefreshStats(context.Background()); err != nil {
		klog.Warningf("initial stats refresh: %v", err)
	}
	sr.cronManager.Start()
	return nil
}

// StartServer blocks until SIGINT or SIGTERM, then shuts the server down gracefully.
func (sr *ServerRunner) StartServer(registerConfig *handler.RegisterConfig) {
	klog.Info("starting server")
	backend := internal.Register(registerConfig)

	// reference: https://gin-gonic.com/en/docs/examples/graceful-restart-or-stop
	srv := &http.Server{
		Addr:              sr.backendConfig.ServerAddr,
		Handler:           backend.R,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			klog.Fatalf("listen: %s\n", err)
		}
	}()
	klog.Infof("listening on %s", sr.backendConfig.ServerAddr)

	// kill (no params) by default sends syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	klog.Info("Shutdown Gin Server ...")

	ctx, cancel := context.WithTimeout(context.Background(), cancelTimeout)
	defer cancel()
	if sr.cronManager != nil {
		sr.cronManager.Stop(ctx)
	}
	if err := srv.Shutdown(ctx); err != nil {
		klog.Info("Gin Server Shutdown:", err)
	}
	klog.Info("Gin Server exiting")
}
