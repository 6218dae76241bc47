// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェアやサービス層から利用する。
type MetricsCollector interface {
	RecordQiitaFetchSuccess()
	RecordQiitaFetchFailure()
	RecordQiitaFetchLatency(duration time.Duration)
	RecordSyncApplied(inserted, updated, deleted int)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	qiitaFetchSuccess prometheus.Counter
	qiitaFetchFail    prometheus.Counter
	qiitaFetchLatency prometheus.Histogram
	stocksInserted    prometheus.Counter
	stocksUpdated     prometheus.Counter
	stocksDeleted     prometheus.Counter
	httpStatus        *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		qiitaFetchSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "qiita_stocker_qiita_fetch_success_total",
			Help: "Qiita APIストック取得成功の合計数",
		}),
		qiitaFetchFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "qiita_stocker_qiita_fetch_fail_total",
			Help: "Qiita APIストック取得失敗の合計数",
		}),
		qiitaFetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "qiita_stocker_qiita_fetch_latency_seconds",
			Help:    "Qiita APIストック取得のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		stocksInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "qiita_stocker_sync_stocks_inserted_total",
			Help: "同期で新規作成されたストックの合計数",
		}),
		stocksUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "qiita_stocker_sync_stocks_updated_total",
			Help: "同期で更新されたストックの合計数",
		}),
		stocksDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "qiita_stocker_sync_stocks_deleted_total",
			Help: "同期で削除されたストックの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qiita_stocker_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.qiitaFetchSuccess,
		c.qiitaFetchFail,
		c.qiitaFetchLatency,
		c.stocksInserted,
		c.stocksUpdated,
		c.stocksDeleted,
		c.httpStatus,
	)

	return c
}

// RecordQiitaFetchSuccess はQiita APIからの取得成功を記録する。
func (c *Collector) RecordQiitaFetchSuccess() {
	c.qiitaFetchSuccess.Inc()
}

// RecordQiitaFetchFailure はQiita APIからの取得失敗を記録する。
func (c *Collector) RecordQiitaFetchFailure() {
	c.qiitaFetchFail.Inc()
}

// RecordQiitaFetchLatency はQiita API呼び出しのレイテンシを記録する。
func (c *Collector) RecordQiitaFetchLatency(duration time.Duration) {
	c.qiitaFetchLatency.Observe(duration.Seconds())
}

// RecordSyncApplied は同期計画の適用結果を記録する。
func (c *Collector) RecordSyncApplied(inserted, updated, deleted int) {
	c.stocksInserted.Add(float64(inserted))
	c.stocksUpdated.Add(float64(updated))
	c.stocksDeleted.Add(float64(deleted))
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
