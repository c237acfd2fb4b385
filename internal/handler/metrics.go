package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"

	"github.com/gitmesh/gitmesh/pkg/db/network"
	"github.com/gitmesh/gitmesh/pkg/monitor"
)

// MetricsMgr is mounted at /metrics, outside of /api.
type MetricsMgr struct {
	name    string
	network network.Aggregator
}

func NewMetricsMgr(conf *RegisterConfig) Manager {
	return &MetricsMgr{
		name:    "metrics",
		network: conf.Network,
	}
}

func (mgr *MetricsMgr) GetName() string { return mgr.name }

func (mgr *MetricsMgr) RegisterPublic(metrics *gin.RouterGroup) {
	metrics.GET("", mgr.GetMetrics)
}

func (mgr *MetricsMgr) RegisterProtected(_ *gin.RouterGroup) {}

// GetMetrics godoc
// @Summary 暴露 Prometheus 指标
// @Description 抓取前刷新网络统计仪表盘
// @Tags Metrics
// @Produce plain
// @Router /metrics [get]
func (mgr *MetricsMgr) GetMetrics(c *gin.Context) {
	stats, err := mgr.network.Stats(c, time.Now())
	if err != nil {
		// serve the last published values
		klog.Errorf("refresh network stats: %v", err)
	} else {
		monitor.SetNetworkStats(stats.TotalUsers, stats.TotalRepositories, stats.ActivePeers, stats.TotalStorage)
	}
	monitor.Handler().ServeHTTP(c.Writer, c.Request)
}
