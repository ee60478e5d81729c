package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/jobtracker/internal/middleware"
	"github.com/hitoshi/jobtracker/internal/model"
)

// maxRequestBodySize はJSONリクエストボディの上限。
const maxRequestBodySize = 1 << 20

// ApplicationServiceInterface は応募ハンドラーが必要とするサービスインターフェース。
type ApplicationServiceInterface interface {
	Create(ctx context.Context, in model.ApplicationInput) (*model.Application, []model.Warning, error)
	List(ctx context.Context) ([]model.Application, error)
	Get(ctx context.Context, id string) (*model.Application, error)
	UpdateStatus(ctx context.Context, id string, status model.Status) (*model.Application, error)
	AddNote(ctx context.Context, id, text string) (*model.Application, error)
}

// Sanitizer はリクエストのテキスト項目からHTMLを取り除く。
type Sanitizer interface {
	Sanitize(text string) string
}

// ApplicationHandler は応募管理のHTTPハンドラー。
type ApplicationHandler struct {
	service   ApplicationServiceInterface
	sanitizer Sanitizer
	logger    *slog.Logger
}

// NewApplicationHandler はApplicationHandlerを生成する。
func NewApplicationHandler(service ApplicationServiceInterface, sanitizer Sanitizer, logger *slog.Logger) *ApplicationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ApplicationHandler{
		service:   service,
		sanitizer: sanitizer,
		logger:    logger,
	}
}

// applicationResponse は応募のAPIレスポンス。日付はYYYY-MM-DD形式。
type applicationResponse struct {
	ID                 string          `json:"id"`
	CompanyName        string          `json:"company_name"`
	JobTitle           string          `json:"job_title"`
	JobID              string          `json:"job_id"`
	ApplicationDate    *string         `json:"application_date"`
	SourceOfListing    string          `json:"source_of_listing"`
	JobDescriptionLink string          `json:"job_description_link"`
	Location           string          `json:"location"`
	SalaryExpectation  string          `json:"salary_expectation"`
	Status             string          `json:"status"`
	Notes              string          `json:"notes"`
	CreatedDate        string          `json:"created_date"`
	LastActivityDate   string          `json:"last_activity_date"`
	ResumeVersion      *string         `json:"resume_version"`
	CoverLetterVersion *string         `json:"cover_letter_version"`
	Warnings           []warningOutput `json:"warnings,omitempty"`
}

type warningOutput struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// createApplicationRequest は応募登録リクエストのボディ。
type createApplicationRequest struct {
	CompanyName        string `json:"company_name"`
	JobTitle           string `json:"job_title"`
	ApplicationDate    string `json:"application_date"`
	SourceOfListing    string `json:"source_of_listing"`
	JobID              string `json:"job_id"`
	JobDescriptionLink string `json:"job_description_link"`
	Location           string `json:"location"`
	SalaryExpectation  string `json:"salary_expectation"`
	Status             string `json:"status"`
	Notes              string `json:"notes"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type addNoteRequest struct {
	Note string `json:"note"`
}

func toApplicationResponse(app *model.Application) applicationResponse {
	resp := applicationResponse{
		ID:                 app.ID,
		CompanyName:        app.CompanyName,
		JobTitle:           app.JobTitle,
		JobID:              app.JobID,
		SourceOfListing:    app.SourceOfListing,
		JobDescriptionLink: app.JobDescriptionLink,
		Location:           app.Location,
		SalaryExpectation:  app.SalaryExpectation,
		Status:             app.Status.String(),
		Notes:              app.Notes,
		CreatedDate:        app.CreatedDate.Format(model.DateLayout),
		LastActivityDate:   app.LastActivityDate.Format(model.DateLayout),
		ResumeVersion:      app.ResumeVersion,
		CoverLetterVersion: app.CoverLetterVersion,
	}
	if app.ApplicationDate != nil {
		d := app.ApplicationDate.Format(model.DateLayout)
		resp.ApplicationDate = &d
	}
	return resp
}

// ListStatuses は定義済みステータスを表示順で返す。
// GET /api/statuses
func (h *ApplicationHandler) ListStatuses(w http.ResponseWriter, r *http.Request) {
	statuses := make([]string, 0, len(model.Statuses))
	for _, s := range model.Statuses {
		statuses = append(statuses, s.String())
	}
	middleware.WriteJSON(w, http.StatusOK, statuses)
}

// ListApplications は全応募を登録順で返す。
// GET /api/applications
func (h *ApplicationHandler) ListApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := h.service.List(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	resp := make([]applicationResponse, 0, len(apps))
	for i := range apps {
		resp = append(resp, toApplicationResponse(&apps[i]))
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}

// CreateApplication は応募を登録する。
// POST /api/applications
//
// company_nameとjob_titleは必須。応募日やステータスが不正な場合も登録は成功し、
// 補正内容をwarningsとして返す。
func (h *ApplicationHandler) CreateApplication(w http.ResponseWriter, r *http.Request) {
	var req createApplicationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	in := model.ApplicationInput{
		CompanyName:        h.clean(req.CompanyName),
		JobTitle:           h.clean(req.JobTitle),
		ApplicationDate:    h.clean(req.ApplicationDate),
		SourceOfListing:    h.clean(req.SourceOfListing),
		JobID:              h.clean(req.JobID),
		JobDescriptionLink: h.clean(req.JobDescriptionLink),
		Location:           h.clean(req.Location),
		SalaryExpectation:  h.clean(req.SalaryExpectation),
		Status:             h.clean(req.Status),
		Notes:              h.clean(req.Notes),
	}
	if in.CompanyName == "" || in.JobTitle == "" {
		middleware.WriteError(w, model.NewInvalidRequestError("company_name and job_title are required"))
		return
	}
	// 表記揺れ（大文字小文字・前後の空白）は正規のステータス名にそろえる
	if s, err := model.ParseStatus(in.Status); err == nil {
		in.Status = s.String()
	}

	app, warnings, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	resp := toApplicationResponse(app)
	for _, wn := range warnings {
		resp.Warnings = append(resp.Warnings, warningOutput{Field: wn.Field, Message: wn.Message})
	}
	middleware.WriteJSON(w, http.StatusCreated, resp)
}

// GetApplication は指定IDの応募を返す。
// GET /api/applications/{id}
func (h *ApplicationHandler) GetApplication(w http.ResponseWriter, r *http.Request) {
	app, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, toApplicationResponse(app))
}

// UpdateStatus は応募のステータスを更新する。
// PUT /api/applications/{id}/status
func (h *ApplicationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	status, err := model.ParseStatus(req.Status)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	app, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), status)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, toApplicationResponse(app))
}

// AddNote は応募にメモを追記する。
// POST /api/applications/{id}/notes
func (h *ApplicationHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	var req addNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	note := h.clean(req.Note)
	if note == "" {
		middleware.WriteError(w, model.NewInvalidRequestError("note is required"))
		return
	}

	app, err := h.service.AddNote(r.Context(), chi.URLParam(r, "id"), note)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, toApplicationResponse(app))
}

func (h *ApplicationHandler) clean(s string) string {
	if h.sanitizer == nil {
		return s
	}
	return h.sanitizer.Sanitize(s)
}

func (h *ApplicationHandler) handleServiceError(w http.ResponseWriter, err error) {
	handleServiceError(w, h.logger, err)
}

// decodeJSON はJSONボディを読み込む。失敗時は400を書き込みfalseを返す。
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		middleware.WriteError(w, model.NewInvalidRequestError("request body must be a JSON object"))
		return false
	}
	return true
}

// handleServiceError はサービス層のエラーをHTTPレスポンスに変換する。
// APIError以外は詳細をログに残し、500を返す。
func handleServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		logger.Error("internal server error", slog.String("error", err.Error()))
	}
	middleware.WriteError(w, err)
}
