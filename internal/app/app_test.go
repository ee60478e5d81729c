package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/jobtracker/internal/config"
)

var discardLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))

func TestInit_WithDefaults_Succeeds(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")

	var buf bytes.Buffer
	cfg, log, err := Init(&buf)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want 8080", cfg.ServerPort)
	}

	log.Debug("init test")
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log output, got error: %v\nraw: %s", err, buf.String())
	}
	if entry["msg"] != "init test" {
		t.Errorf("msg = %q, want %q", entry["msg"], "init test")
	}
}

func TestInit_WithInvalidConfig_ReturnsError(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-port")

	cfg, _, err := Init(io.Discard)
	if err == nil {
		t.Fatal("expected error for invalid SERVER_PORT, got nil")
	}
	if cfg != nil {
		t.Error("expected nil config on error")
	}
}

func TestInit_LoadsDotenv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("SCRAPE_KEYWORD_HINT=data engineering\nRATE_LIMIT_PER_MINUTE=99\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	// 既存の環境変数は.envで上書きされない
	t.Setenv("RATE_LIMIT_PER_MINUTE", "30")
	t.Setenv("SCRAPE_KEYWORD_HINT", "")
	os.Unsetenv("SCRAPE_KEYWORD_HINT")

	cfg, _, err := Init(io.Discard)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if cfg.ScrapeKeywordHint != "data engineering" {
		t.Errorf("ScrapeKeywordHint = %q, want %q", cfg.ScrapeKeywordHint, "data engineering")
	}
	if cfg.RateLimitPerMinute != 30 {
		t.Errorf("RateLimitPerMinute = %d, want 30", cfg.RateLimitPerMinute)
	}
}

func runWith(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := runner{in: strings.NewReader(input), out: &out, logOut: io.Discard}.run(args)
	return out.String(), err
}

func TestRun_TrackIsDefault(t *testing.T) {
	out, err := runWith(t, "4\n5\n")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, want := range []string{"--- Job Application Tracker Menu ---", "No applications to add notes to.", "Goodbye!"} {
		if !strings.Contains(out, want) {
			t.Errorf("output does not contain %q\n%s", want, out)
		}
	}
}

func TestRun_Merge(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "out.csv")
	newList := filepath.Join(dir, "list.csv")
	if err := os.WriteFile(existing, []byte("Company,URL\nZeta,https://zeta.example/jobs\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(newList, []byte("Hiring Tech Companies\nCompany,Notes\nacme (YC W21),x\nzeta,dup\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := runWith(t, "", "merge", "-existing", existing, "-new", newList)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	for _, want := range []string{
		"Successfully updated '" + existing + "' with 1 new companies.",
		"Company: Zeta, URL: https://zeta.example/jobs",
		"1. acme",
		"Consolidated list in '" + existing + "' is ready.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output does not contain %q\n%s", want, out)
		}
	}

	data, err := os.ReadFile(existing)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(data), "Company,URL\nacme,\nZeta,https://zeta.example/jobs\n"; got != want {
		t.Errorf("file = %q, want %q", got, want)
	}
}

func TestRun_Merge_MissingNewListIsReported(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "out.csv")

	out, err := runWith(t, "", "merge", "-existing", existing, "-new", filepath.Join(dir, "missing.csv"))
	if err != nil {
		t.Fatalf("merge should not fail the command: %v", err)
	}
	if !strings.Contains(out, "Error: ") {
		t.Errorf("expected diagnostic in output\n%s", out)
	}
	if !strings.Contains(out, "No companies with pre-filled URLs found") {
		t.Errorf("expected empty report\n%s", out)
	}
	if _, statErr := os.Stat(existing); statErr != nil {
		t.Errorf("existing file should be created: %v", statErr)
	}
}

func TestRun_Scrape(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, `<a href="/jobs/1">Machine Learning Engineer</a><a href="/jobs/2">Recruiter</a>`)
	}))
	defer ts.Close()
	t.Setenv("SCRAPE_ALLOW_PRIVATE", "true")

	out, err := runWith(t, "", "scrape", "-hint", "machine learning", ts.URL+"/careers")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "Found potential job link: "+ts.URL+"/jobs/1") {
		t.Errorf("missing job link\n%s", out)
	}
	if strings.Contains(out, "/jobs/2") {
		t.Errorf("unexpected link without hint match\n%s", out)
	}
}

func TestRun_Scrape_BlockedByGuard(t *testing.T) {
	t.Setenv("SCRAPE_ALLOW_PRIVATE", "false")

	out, err := runWith(t, "", "scrape", "http://127.0.0.1/careers")
	if err != nil {
		t.Fatalf("fetch failure should not fail the command: %v", err)
	}
	if !strings.Contains(out, "Error fetching page: [SSRF_BLOCKED]") {
		t.Errorf("expected SSRF diagnostic\n%s", out)
	}
}

func TestRun_Scrape_RequiresURL(t *testing.T) {
	out, err := runWith(t, "", "scrape")
	if err == nil {
		t.Fatal("expected usage error")
	}
	if !strings.Contains(out, "Usage: jobtracker scrape") {
		t.Errorf("expected usage text\n%s", out)
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	return cfg
}

func TestNewServer_Routes(t *testing.T) {
	server, cleanup := newServer(testConfig(t), discardLogger)
	defer cleanup()
	ts := httptest.NewServer(server.Handler)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/applications", "application/json",
		strings.NewReader(`{"company_name": "Acme", "job_title": "SRE", "application_date": "2025-05-30"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST /api/applications = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	resp, err = http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "jobtracker_applications_created_total 1") {
		t.Errorf("metrics missing created counter:\n%s", body)
	}
	if !strings.Contains(string(body), "go_goroutines") {
		t.Error("metrics missing Go runtime collector")
	}

	// 既定ではループバックへのスクレイプは拒否される
	resp, err = http.Post(ts.URL+"/api/scrape", "application/json", strings.NewReader(`{"url": "http://127.0.0.1/jobs"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("POST /api/scrape = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestRunServe_ShutsDownOnCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.ServerPort = "0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runServe(ctx, cfg, discardLogger) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("runServe: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runServe did not stop after cancel")
	}
}

func TestRunHealthcheck(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	u, _ := url.Parse(ts.URL)
	if err := runHealthcheck(u.Port()); err != nil {
		t.Errorf("runHealthcheck: %v", err)
	}
}

func TestRunHealthcheck_Unhealthy(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	u, _ := url.Parse(ts.URL)
	if err := runHealthcheck(u.Port()); err == nil {
		t.Error("expected error for 503")
	}
}
