package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/jobtracker/internal/middleware"
	"github.com/hitoshi/jobtracker/internal/model"
)

// LinkScraper は求人ページからリンク候補を抽出する。
type LinkScraper interface {
	FetchAndExtractLinks(ctx context.Context, pageURL, hint string) ([]string, error)
}

// ScrapeHandler は求人ページ解析のHTTPハンドラー。
type ScrapeHandler struct {
	scraper LinkScraper
	logger  *slog.Logger
}

// NewScrapeHandler はScrapeHandlerを生成する。
func NewScrapeHandler(scraper LinkScraper, logger *slog.Logger) *ScrapeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScrapeHandler{scraper: scraper, logger: logger}
}

type scrapeRequest struct {
	URL         string `json:"url"`
	KeywordHint string `json:"keyword_hint"`
}

type scrapeResponse struct {
	URL   string   `json:"url"`
	Links []string `json:"links"`
}

// Scrape は指定URLを1回取得し、求人リンクの候補を返す。
// POST /api/scrape
func (h *ScrapeHandler) Scrape(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	pageURL := strings.TrimSpace(req.URL)
	if pageURL == "" {
		middleware.WriteError(w, model.NewInvalidRequestError("url is required"))
		return
	}

	links, err := h.scraper.FetchAndExtractLinks(r.Context(), pageURL, req.KeywordHint)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	if links == nil {
		links = []string{}
	}
	middleware.WriteJSON(w, http.StatusOK, scrapeResponse{URL: pageURL, Links: links})
}
