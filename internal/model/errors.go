package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// CLI・APIの双方で原因カテゴリと対処方法を表示するために使う。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, application, file, network, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidStatus       = "INVALID_STATUS"
	ErrCodeInvalidDate         = "INVALID_DATE"
	ErrCodeApplicationNotFound = "APPLICATION_NOT_FOUND"
	ErrCodeInvalidRequest      = "INVALID_REQUEST"
	ErrCodeInvalidURL          = "INVALID_URL"
	ErrCodeSSRFBlocked         = "SSRF_BLOCKED"
	ErrCodeFetchFailed         = "FETCH_FAILED"
	ErrCodeCSVSchema           = "CSV_SCHEMA"
	ErrCodeFileAccess          = "FILE_ACCESS"
)

// NewInvalidStatusError は定義外ステータスのエラーを生成する。
func NewInvalidStatusError(status string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidStatus,
		Message:  fmt.Sprintf("'%s' is not a valid predefined status", status),
		Category: "validation",
		Action:   "Choose one of the predefined statuses.",
	}
}

// NewInvalidDateError は日付形式エラーを生成する。
func NewInvalidDateError(date string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDate,
		Message:  fmt.Sprintf("invalid date format: %q", date),
		Category: "validation",
		Action:   "Please use YYYY-MM-DD.",
	}
}

// NewApplicationNotFoundError は応募未検出エラーを生成する。
func NewApplicationNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeApplicationNotFound,
		Message:  fmt.Sprintf("application not found: %s", id),
		Category: "application",
		Action:   "Check the application ID.",
	}
}

// NewInvalidRequestError はリクエスト不正エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  reason,
		Category: "validation",
		Action:   "Fix the request body and try again.",
	}
}

// NewInvalidURLError は無効なURLエラーを生成する。
func NewInvalidURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidURL,
		Message:  fmt.Sprintf("invalid URL: %s", reason),
		Category: "validation",
		Action:   "Enter an absolute http:// or https:// URL.",
	}
}

// NewSSRFBlockedError はSSRFブロックエラーを生成する。
func NewSSRFBlockedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeSSRFBlocked,
		Message:  fmt.Sprintf("request blocked by network policy: %s", reason),
		Category: "network",
		Action:   "Use a public website URL, or set SCRAPE_ALLOW_PRIVATE=true for local pages.",
	}
}

// NewFetchFailedError はフェッチ失敗エラーを生成する。
func NewFetchFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeFetchFailed,
		Message:  fmt.Sprintf("error fetching page: %s", reason),
		Category: "network",
		Action:   "Check the URL and try again later.",
	}
}

// NewCSVSchemaError はCSVのヘッダー・行構成の不備を表すエラーを生成する。
func NewCSVSchemaError(path, reason string) *APIError {
	return &APIError{
		Code:     ErrCodeCSVSchema,
		Message:  fmt.Sprintf("'%s': %s", path, reason),
		Category: "file",
		Action:   "Check the CSV header row.",
	}
}

// NewFileAccessError はファイルの読み書き失敗エラーを生成する。
func NewFileAccessError(path string, err error) *APIError {
	return &APIError{
		Code:     ErrCodeFileAccess,
		Message:  fmt.Sprintf("'%s': %v", path, err),
		Category: "file",
		Action:   "Check that the file exists and is readable/writable.",
	}
}
