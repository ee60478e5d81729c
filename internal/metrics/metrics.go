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
// 応募サービス、スクレイパー、マージ処理から利用する。
type MetricsCollector interface {
	RecordApplicationCreated()
	RecordStatusUpdate(accepted bool)
	RecordNoteAdded()
	RecordScrapeSuccess(links int)
	RecordScrapeFailure(reason string)
	RecordHTTPStatus(statusCode int)
	RecordScrapeLatency(duration time.Duration)
	RecordCompaniesMerged(added int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	applicationsCreated prometheus.Counter
	statusUpdates       *prometheus.CounterVec
	notesAdded          prometheus.Counter
	scrapeSuccess       prometheus.Counter
	scrapeFail          *prometheus.CounterVec
	candidateLinks      prometheus.Counter
	httpStatus          *prometheus.CounterVec
	scrapeLatency       prometheus.Histogram
	companiesMerged     prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		applicationsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jobtracker_applications_created_total",
			Help: "登録された応募の合計数",
		}),
		statusUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobtracker_status_updates_total",
			Help: "ステータス更新の試行数（結果別）",
		}, []string{"result"}),
		notesAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jobtracker_notes_added_total",
			Help: "追記されたメモの合計数",
		}),
		scrapeSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jobtracker_scrape_success_total",
			Help: "求人ページ取得成功の合計数",
		}),
		scrapeFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobtracker_scrape_fail_total",
			Help: "求人ページ取得失敗の合計数（理由別）",
		}, []string{"reason"}),
		candidateLinks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jobtracker_candidate_links_total",
			Help: "抽出された候補リンクの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobtracker_scrape_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		scrapeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "jobtracker_scrape_latency_seconds",
			Help:    "求人ページ取得のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		companiesMerged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jobtracker_companies_merged_total",
			Help: "マージで新規追加された企業の合計数",
		}),
	}

	reg.MustRegister(
		c.applicationsCreated,
		c.statusUpdates,
		c.notesAdded,
		c.scrapeSuccess,
		c.scrapeFail,
		c.candidateLinks,
		c.httpStatus,
		c.scrapeLatency,
		c.companiesMerged,
	)

	return c
}

// RecordApplicationCreated は応募の登録を記録する。
func (c *Collector) RecordApplicationCreated() {
	c.applicationsCreated.Inc()
}

// RecordStatusUpdate はステータス更新の試行を記録する。
func (c *Collector) RecordStatusUpdate(accepted bool) {
	result := "accepted"
	if !accepted {
		result = "rejected"
	}
	c.statusUpdates.WithLabelValues(result).Inc()
}

// RecordNoteAdded はメモの追記を記録する。
func (c *Collector) RecordNoteAdded() {
	c.notesAdded.Inc()
}

// RecordScrapeSuccess は取得成功と抽出リンク数を記録する。
func (c *Collector) RecordScrapeSuccess(links int) {
	c.scrapeSuccess.Inc()
	c.candidateLinks.Add(float64(links))
}

// RecordScrapeFailure は取得失敗を記録する。
func (c *Collector) RecordScrapeFailure(reason string) {
	c.scrapeFail.WithLabelValues(reason).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordScrapeLatency は取得のレイテンシを記録する。
func (c *Collector) RecordScrapeLatency(duration time.Duration) {
	c.scrapeLatency.Observe(duration.Seconds())
}

// RecordCompaniesMerged はマージで追加された企業数を記録する。
func (c *Collector) RecordCompaniesMerged(added int) {
	c.companiesMerged.Add(float64(added))
}

// Nop は何も記録しないMetricsCollector。
type Nop struct{}

func (Nop) RecordApplicationCreated() {}
func (Nop) RecordStatusUpdate(bool) {}
func (Nop) RecordNoteAdded() {}
func (Nop) RecordScrapeSuccess(int) {}
func (Nop) RecordScrapeFailure(string) {}
func (Nop) RecordHTTPStatus(int) {}
func (Nop) RecordScrapeLatency(time.Duration) {}
func (Nop) RecordCompaniesMerged(int) {}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
