package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/jobtracker/internal/application"
	"github.com/hitoshi/jobtracker/internal/cli"
	"github.com/hitoshi/jobtracker/internal/companylist"
	"github.com/hitoshi/jobtracker/internal/config"
	"github.com/hitoshi/jobtracker/internal/handler"
	"github.com/hitoshi/jobtracker/internal/logger"
	"github.com/hitoshi/jobtracker/internal/metrics"
	"github.com/hitoshi/jobtracker/internal/middleware"
	"github.com/hitoshi/jobtracker/internal/repository"
	"github.com/hitoshi/jobtracker/internal/scraper"
	"github.com/hitoshi/jobtracker/internal/security"
)

// dotenvFile は起動時に読み込む環境変数ファイル。存在しない場合は無視する。
const dotenvFile = ".env"

// Init はアプリケーションの初期化を行う。
// .envと環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// ログはlogOutに出力される（nilの場合はos.Stderr）。
func Init(logOut io.Writer) (*config.Config, *slog.Logger, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(logOut, nil)

	// 2. .envを読み込む。既に設定済みの環境変数は上書きしない
	if err := godotenv.Load(dotenvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("failed to load %s: %w", dotenvFile, err)
	}

	// 3. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	level, _ := cfg.SlogLevel()
	return cfg, logger.SetupDefault(logOut, level), nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。wはメニューやレポートの出力先で、ログはstderrに出力する。
func Run(w io.Writer, args []string) error {
	return runner{in: os.Stdin, out: w, logOut: os.Stderr}.run(args)
}

// runner は1回の起動で使う入出力をまとめたもの。
type runner struct {
	in     io.Reader
	out    io.Writer
	logOut io.Writer
}

func (r runner) run(args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, log, err := Init(r.logOut)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	log.Debug("starting application",
		slog.String("command", string(cmd)),
		slog.String("log_level", cfg.LogLevel),
	)

	rest := commandArgs(args)
	switch cmd {
	case CommandMerge:
		return r.runMerge(cfg, log, rest)
	case CommandScrape:
		return r.runScrape(cfg, log, rest)
	case CommandServe:
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runServe(ctx, cfg, log)
	default:
		return r.runTrack(log)
	}
}

// runTrack は対話式の応募管理メニューを起動する。
// 応募はメモリ上にのみ保持され、終了とともに破棄される。
func (r runner) runTrack(log *slog.Logger) error {
	svc := application.NewService(repository.NewMemoryApplicationRepo(), log, metrics.Nop{}, nil)
	return cli.NewSession(svc, r.in, r.out).Run(context.Background())
}

// runMerge は新規企業リストを統合先CSVへ統合し、結果を表示する。
// 統合中の異常は表示するのみで、コマンド自体は成功として扱う。
func (r runner) runMerge(cfg *config.Config, log *slog.Logger, args []string) error {
	fset := flag.NewFlagSet("merge", flag.ContinueOnError)
	fset.SetOutput(r.out)
	existing := fset.String("existing", cfg.MergeExistingCSV, "統合先のCSV（Company,URL）")
	newList := fset.String("new", cfg.MergeNewCSV, "新規企業リストのCSV")
	if err := fset.Parse(args); err != nil {
		return err
	}

	fmt.Fprintf(r.out, "Merging companies from '%s' into '%s'...\n", *newList, *existing)

	merger := companylist.NewMerger(log, metrics.Nop{})
	res, err := merger.MergeAndRewrite(*existing, *newList)
	for _, e := range flattenErrors(err) {
		fmt.Fprintf(r.out, "Error: %v\n", e)
	}
	if err == nil {
		fmt.Fprintf(r.out, "Successfully updated '%s' with %d new companies.\n", *existing, res.Added)
	}

	writeMergeReport(r.out, res)
	fmt.Fprintf(r.out, "\nConsolidated list in '%s' is ready.\n", *existing)
	fmt.Fprintln(r.out, "Next steps would be to find career page URLs for the companies listed as 'needing URLs'.")
	return nil
}

func writeMergeReport(w io.Writer, res *companylist.Result) {
	fmt.Fprintln(w, "\n--- Companies with URLs (from consolidated list) ---")
	if len(res.WithURL) == 0 {
		fmt.Fprintln(w, "No companies with pre-filled URLs found in the consolidated list.")
	}
	for _, rec := range res.WithURL {
		fmt.Fprintf(w, "Company: %s, URL: %s\n", rec.Company, rec.URL)
	}

	fmt.Fprintln(w, "\n--- Companies needing career page URLs (from consolidated list) ---")
	if len(res.NeedsURL) == 0 {
		fmt.Fprintln(w, "No companies found that need a career page URL in the consolidated list.")
	}
	for i, name := range res.NeedsURL {
		fmt.Fprintf(w, "%d. %s\n", i+1, name)
	}
}

// flattenErrors はerrors.Joinで連結されたエラーを個別に取り出す。
func flattenErrors(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

// runScrape は求人ページを1回取得し、リンク候補を表示する。
// 取得失敗は表示するのみで、コマンド自体は成功として扱う。
func (r runner) runScrape(cfg *config.Config, log *slog.Logger, args []string) error {
	fset := flag.NewFlagSet("scrape", flag.ContinueOnError)
	fset.SetOutput(r.out)
	hint := fset.String("hint", cfg.ScrapeKeywordHint, "リンクテキストに含まれるべきキーワード")
	if err := fset.Parse(args); err != nil {
		return err
	}
	if fset.NArg() != 1 {
		fmt.Fprintln(r.out, "Usage: jobtracker scrape [-hint text] URL")
		return errors.New("scrape requires exactly one URL")
	}
	pageURL := fset.Arg(0)

	s := scraper.NewScraper(
		security.NewGuard(cfg.ScrapeAllowPrivate),
		cfg.ScrapeTimeout, cfg.ScrapeMaxSize, log, metrics.Nop{},
	)

	fmt.Fprintf(r.out, "Attempting to fetch job page: %s (related to '%s')...\n", pageURL, *hint)
	links, err := s.FetchAndExtractLinks(context.Background(), pageURL, *hint)
	if err != nil {
		fmt.Fprintf(r.out, "Error fetching page: %v\n", err)
		return nil
	}

	for _, link := range links {
		fmt.Fprintf(r.out, "Found potential job link: %s\n", link)
	}
	if len(links) == 0 {
		fmt.Fprintf(r.out, "No specific job links found on %s using current generic selectors.\n", pageURL)
	}
	return nil
}

// newServer はAPIサーバーの全依存関係をワイヤリングしたhttp.Serverを返す。
// 戻り値のcleanupはサーバー停止後に呼び出す。
func newServer(cfg *config.Config, log *slog.Logger) (*http.Server, func()) {
	// 1. メトリクス
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	// 2. リポジトリとサービス
	repo := repository.NewMemoryApplicationRepo()
	svc := application.NewService(repo, log, collector, nil)

	// 3. 求人ページ解析（常にSSRFガード経由）
	guard := security.NewGuard(cfg.ScrapeAllowPrivate)
	s := scraper.NewScraper(guard, cfg.ScrapeTimeout, cfg.ScrapeMaxSize, log, collector)

	// 4. ルーター
	rateLimiter := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(cfg.RateLimitPerMinute))
	router := handler.NewRouter(&handler.RouterDeps{
		Logger:             log,
		CORSAllowedOrigin:  cfg.CORSAllowedOrigin,
		RateLimiter:        rateLimiter,
		ApplicationService: svc,
		Sanitizer:          security.NewTextSanitizer(),
		Scraper:            s,
		MetricsHandler:     metrics.Handler(reg),
	})

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// スクレイプはSCRAPE_TIMEOUTまでかかりうる
		WriteTimeout: cfg.ScrapeTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return server, rateLimiter.Stop
}

// runServe はAPIサーバーモードで起動する。
// ctxがキャンセルされるとグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	server, cleanup := newServer(cfg, log)
	defer cleanup()

	errCh := make(chan error, 1)
	go func() {
		log.Info("API server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("API server stopped gracefully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", strings.TrimSpace(port))
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
