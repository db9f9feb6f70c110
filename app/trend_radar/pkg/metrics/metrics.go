package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry 分析相关指标所在的注册表，HTTP 服务通过 /metrics 暴露
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	analysesTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trend_radar",
		Name:      "analyses_total",
		Help:      "Number of finished analyses by provider and result status.",
	}, []string{"provider", "status"})

	dispatchSeconds = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "trend_radar",
		Name:      "dispatch_seconds",
		Help:      "Latency of model API calls.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 90, 120},
	}, []string{"provider"})

	digestItems = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: "trend_radar",
		Name:      "digest_items",
		Help:      "Number of entries written into a digest.",
		Buckets:   prometheus.LinearBuckets(0, 10, 11),
	})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// ObserveAnalysis 记录一次分析结果
func ObserveAnalysis(provider, status string) {
	analysesTotal.WithLabelValues(provider, status).Inc()
}

// ObserveDispatch 记录一次模型调用耗时
func ObserveDispatch(provider string, d time.Duration) {
	dispatchSeconds.WithLabelValues(provider).Observe(d.Seconds())
}

// ObserveDigest 记录摘要条目数
func ObserveDigest(n int) {
	digestItems.Observe(float64(n))
}
