package cronjob

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"k8s.io/klog/v2"

	"github.com/gitmesh/gitmesh/pkg/db/network"
	"github.com/gitmesh/gitmesh/pkg/monitor"
)

type JobType string

const (
	// JobTypeRefreshStats recomputes the network stats and publishes them as gauges.
	JobTypeRefreshStats JobType = "refresh-stats"
)

const jobTimeout = 30 * time.Second

type CronJobManager struct {
	network   network.Aggregator
	cron      *cron.Cron
	cronMutex sync.RWMutex
	entries   map[string]cron.EntryID
}

func NewCronJobManager(agg network.Aggregator) *CronJobManager {
	return &CronJobManager{
		network: agg,
		cron:    cron.New(cron.WithLocation(time.UTC)),
		entries: make(map[string]cron.EntryID),
	}
}

// AddCronJob schedules jobName with spec, replacing an earlier job of the same name.
func (cm *CronJobManager) AddCronJob(jobName, jobSpec string, jobType JobType) (cron.EntryID, error) {
	f, err := cm.newCronJobFunc(jobName, jobType)
	if err != nil {
		klog.Error(err)
		return -1, err
	}

	cm.cronMutex.Lock()
	defer cm.cronMutex.Unlock()
	entryID, err := cm.cron.AddFunc(jobSpec, f)
	if err != nil {
		klog.Error(err)
		return -1, err
	}
	if prev, ok := cm.entries[jobName]; ok {
		cm.cron.Remove(prev)
	}
	cm.entries[jobName] = entryID
	klog.Infof("cron job %s scheduled with %q", jobName, jobSpec)
	return entryID, nil
}

func (cm *CronJobManager) RemoveCronJob(jobName string) bool {
	cm.cronMutex.Lock()
	defer cm.cronMutex.Unlock()
	id, ok := cm.entries[jobName]
	if !ok {
		return false
	}
	cm.cron.Remove(id)
	delete(cm.entries, jobName)
	return true
}

func (cm *CronJobManager) JobNames() []string {
	cm.cronMutex.RLock()
	defer cm.cronMutex.RUnlock()
	names := make([]string, 0, len(cm.entries))
	for name := range cm.entries {
		names = append(names, name)
	}
	return names
}

// newCronJobFunc creates the appropriate cron job function based on job type
func (cm *CronJobManager) newCronJobFunc(jobName string, jobType JobType) (cron.FuncJob, error) {
	switch jobType {
	case JobTypeRefreshStats:
		return func() {
			ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
			defer cancel()
			if err := cm.RefreshStats(ctx); err != nil {
				klog.Errorf("cron job %s: %v", jobName, err)
			}
		}, nil
	default:
		return nil, fmt.Errorf("unsupported cron job type: %s", jobType)
	}
}

// RefreshStats publishes the current network stats as prometheus gauges.
func (cm *CronJobManager) RefreshStats(ctx context.Context) error {
	stats, err := cm.network.Stats(ctx, time.Now())
	if err != nil {
		return err
	}
	monitor.SetNetworkStats(stats.TotalUsers, stats.TotalRepositories, stats.ActivePeers, stats.TotalStorage)
	return nil
}

func (cm *CronJobManager) Start() {
	cm.cron.Start()
}

// Stop waits for running jobs or for ctx, whichever ends first.
func (cm *CronJobManager) Stop(ctx context.Context) {
	select {
	case <-cm.cron.Stop().Done():
	case <-ctx.Done():
	}
}
