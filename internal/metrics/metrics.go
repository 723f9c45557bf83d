// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// stats.MetricsCollector、stats.RankerMetrics、workout.WriteMetricsを満たす。
type Collector struct {
	recomputeSuccess    prometheus.Counter
	recomputeFail       prometheus.Counter
	recomputeLatency    prometheus.Histogram
	workoutWrites       *prometheus.CounterVec
	leaderboardRequests *prometheus.CounterVec
	httpStatus          *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		recomputeSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fittrack_stats_recompute_success_total",
			Help: "統計再計算成功の合計数",
		}),
		recomputeFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fittrack_stats_recompute_fail_total",
			Help: "統計再計算失敗の合計数",
		}),
		recomputeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fittrack_stats_recompute_latency_seconds",
			Help:    "統計再計算のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		workoutWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fittrack_workout_writes_total",
			Help: "操作別のワークアウト書き込み数",
		}, []string{"operation"}),
		leaderboardRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fittrack_leaderboard_requests_total",
			Help: "ウィンドウ別のリーダーボード取得数",
		}, []string{"window"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fittrack_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.recomputeSuccess,
		c.recomputeFail,
		c.recomputeLatency,
		c.workoutWrites,
		c.leaderboardRequests,
		c.httpStatus,
	)

	return c
}

// RecordRecomputeSuccess は統計再計算の成功を記録する。
func (c *Collector) RecordRecomputeSuccess() {
	c.recomputeSuccess.Inc()
}

// RecordRecomputeFailure は統計再計算の失敗を記録する。
func (c *Collector) RecordRecomputeFailure() {
	c.recomputeFail.Inc()
}

// RecordRecomputeLatency は統計再計算のレイテンシを記録する。
func (c *Collector) RecordRecomputeLatency(duration time.Duration) {
	c.recomputeLatency.Observe(duration.Seconds())
}

// RecordWorkoutWrite はワークアウト書き込みを操作別に記録する。
func (c *Collector) RecordWorkoutWrite(operation string) {
	c.workoutWrites.WithLabelValues(operation).Inc()
}

// RecordLeaderboardRequest はリーダーボード取得をウィンドウ別に記録する。
func (c *Collector) RecordLeaderboardRequest(window string) {
	c.leaderboardRequests.WithLabelValues(window).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
