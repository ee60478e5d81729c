package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// gatherOne は指定名のメトリクスファミリーを取得する。
func gatherOne(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("%s metric not found", name)
	return nil
}

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	if c := NewCollector(reg); c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestCollector_ImplementsInterface はCollectorとNopがMetricsCollectorを満たすことを検証する。
func TestCollector_ImplementsInterface(t *testing.T) {
	var _ MetricsCollector = (*Collector)(nil)
	var _ MetricsCollector = Nop{}
}

// TestRecordApplicationCreated_IncrementsCounter は応募登録カウンタが増加することを検証する。
func TestRecordApplicationCreated_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordApplicationCreated()
	c.RecordApplicationCreated()

	mf := gatherOne(t, reg, "jobtracker_applications_created_total")
	if val := mf.GetMetric()[0].GetCounter().GetValue(); val != 2 {
		t.Errorf("applications_created_total = %v, want 2", val)
	}
}

// TestRecordStatusUpdate_LabelsByResult はステータス更新が結果ラベル別に記録されることを検証する。
func TestRecordStatusUpdate_LabelsByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordStatusUpdate(true)
	c.RecordStatusUpdate(false)
	c.RecordStatusUpdate(false)

	mf := gatherOne(t, reg, "jobtracker_status_updates_total")
	got := map[string]float64{}
	for _, m := range mf.GetMetric() {
		for _, lp := range m.GetLabel() {
			if lp.GetName() == "result" {
				got[lp.GetValue()] = m.GetCounter().GetValue()
			}
		}
	}
	if got["accepted"] != 1 || got["rejected"] != 2 {
		t.Errorf("status updates = %v, want accepted=1 rejected=2", got)
	}
}

// TestRecordScrapeSuccess_CountsLinks は取得成功時に候補リンク数も加算されることを検証する。
func TestRecordScrapeSuccess_CountsLinks(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordScrapeSuccess(3)
	c.RecordScrapeSuccess(0)

	if val := gatherOne(t, reg, "jobtracker_scrape_success_total").GetMetric()[0].GetCounter().GetValue(); val != 2 {
		t.Errorf("scrape_success_total = %v, want 2", val)
	}
	if val := gatherOne(t, reg, "jobtracker_candidate_links_total").GetMetric()[0].GetCounter().GetValue(); val != 3 {
		t.Errorf("candidate_links_total = %v, want 3", val)
	}
}

// TestRecordScrapeLatency_ObservesHistogram はレイテンシがヒストグラムに記録されることを検証する。
func TestRecordScrapeLatency_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordScrapeLatency(250 * time.Millisecond)

	h := gatherOne(t, reg, "jobtracker_scrape_latency_seconds").GetMetric()[0].GetHistogram()
	if h.GetSampleCount() != 1 {
		t.Errorf("sample count = %d, want 1", h.GetSampleCount())
	}
	if h.GetSampleSum() != 0.25 {
		t.Errorf("sample sum = %v, want 0.25", h.GetSampleSum())
	}
}

// TestRecordCompaniesMerged_AddsCount はマージ追加数が加算されることを検証する。
func TestRecordCompaniesMerged_AddsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordCompaniesMerged(4)

	if val := gatherOne(t, reg, "jobtracker_companies_merged_total").GetMetric()[0].GetCounter().GetValue(); val != 4 {
		t.Errorf("companies_merged_total = %v, want 4", val)
	}
}

// TestHandler_ServesMetrics はハンドラーがPrometheus形式でメトリクスを返すことを検証する。
func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordHTTPStatus(200)
	c.RecordScrapeFailure("timeout")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	for _, want := range []string{
		`jobtracker_scrape_http_status_total{status_code="200"} 1`,
		`jobtracker_scrape_fail_total{reason="timeout"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("response should contain %q", want)
		}
	}
}
