// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout は応募日の入力・表示形式。
const DateLayout = "2006-01-02"

// notesPreviewLength は表示時にメモを切り詰める文字数。
const notesPreviewLength = 50

// notApplicable は空の任意項目の表示値。
const notApplicable = "N/A"

// Application は1件の求人応募を表す。
// 生成後の変更はUpdateStatusとAddNoteのみで行う。
type Application struct {
	ID                 string
	CompanyName        string
	JobTitle           string
	JobID              string
	ApplicationDate    *time.Time // 不正な入力の場合はnil
	SourceOfListing    string
	JobDescriptionLink string
	Location           string
	SalaryExpectation  string
	Status             Status
	Notes              string // "[YYYY-MM-DD] text" を改行で連結した追記専用ログ
	CreatedDate        time.Time
	LastActivityDate   time.Time

	// 将来の履歴書・カバーレター管理用。現在は常にnil。
	ResumeVersion      *string
	CoverLetterVersion *string

	now func() time.Time
}

// ApplicationInput は応募の生成に使う入力値。すべてユーザー入力の生文字列。
type ApplicationInput struct {
	CompanyName        string
	JobTitle           string
	ApplicationDate    string
	SourceOfListing    string
	JobID              string
	JobDescriptionLink string
	Location           string
	SalaryExpectation  string
	Status             string // 空の場合はDefaultStatus
	Notes              string
}

// Warning は生成時に補正された入力項目を表す。
type Warning struct {
	Field   string
	Message string
}

// String は警告の表示文字列を返す。
func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Field, w.Message)
}

// NewApplication は入力値から応募を生成する。生成は常に成功する。
// 応募日がYYYY-MM-DDとして解析できない場合は日付をnilにし、
// ステータスが定義外の場合はDefaultStatusに置き換え、それぞれ警告を返す。
// nowがnilの場合はtime.Nowを使用する。
func NewApplication(in ApplicationInput, now func() time.Time) (*Application, []Warning) {
	if now == nil {
		now = time.Now
	}
	var warnings []Warning

	today := civilDate(now())
	app := &Application{
		CompanyName:        in.CompanyName,
		JobTitle:           in.JobTitle,
		JobID:              in.JobID,
		SourceOfListing:    in.SourceOfListing,
		JobDescriptionLink: in.JobDescriptionLink,
		Location:           in.Location,
		SalaryExpectation:  in.SalaryExpectation,
		Status:             DefaultStatus,
		Notes:              in.Notes,
		CreatedDate:        today,
		LastActivityDate:   today,
		now:                now,
	}

	if d, err := ParseDate(in.ApplicationDate); err == nil {
		app.ApplicationDate = &d
	} else {
		warnings = append(warnings, Warning{
			Field:   "application_date",
			Message: fmt.Sprintf("invalid date %q for %s at %s, use YYYY-MM-DD; date left empty", in.ApplicationDate, in.JobTitle, in.CompanyName),
		})
	}

	if in.Status != "" {
		if s := Status(in.Status); s.Valid() {
			app.Status = s
		} else {
			warnings = append(warnings, Warning{
				Field:   "status",
				Message: fmt.Sprintf("status %q is not predefined; defaulting to %q", in.Status, DefaultStatus),
			})
		}
	}

	return app, warnings
}

// ParseDate はYYYY-MM-DD形式の日付を解析する。
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, NewInvalidDateError(s)
	}
	return d, nil
}

// UpdateStatus はステータスを更新し、最終活動日を今日にする。
// 定義外のステータスの場合は何も変更せずINVALID_STATUSエラーを返す。
func (a *Application) UpdateStatus(s Status) error {
	if !s.Valid() {
		return NewInvalidStatusError(string(s))
	}
	a.Status = s
	a.touch()
	return nil
}

// AddNote は今日の日付を付けてメモを追記し、最終活動日を今日にする。
func (a *Application) AddNote(text string) {
	entry := fmt.Sprintf("[%s] %s", a.today().Format(DateLayout), text)
	if a.Notes == "" {
		a.Notes = entry
	} else {
		a.Notes += "\n" + entry
	}
	a.touch()
}

// touch は最終活動日を今日に進める。日付が戻ることはない。
func (a *Application) touch() {
	if today := a.today(); today.After(a.LastActivityDate) {
		a.LastActivityDate = today
	}
}

func (a *Application) today() time.Time {
	if a.now == nil {
		return civilDate(time.Now())
	}
	return civilDate(a.now())
}

// Summary は選択リスト用の1行表示を返す。
func (a *Application) Summary() string {
	return fmt.Sprintf("%s at %s (Status: %s)", a.JobTitle, a.CompanyName, a.Status)
}

// String は全項目を固定順で並べた複数行の表示を返す。
func (a *Application) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Company: %s\n", a.CompanyName)
	fmt.Fprintf(&b, "Title: %s\n", a.JobTitle)
	fmt.Fprintf(&b, "Job ID: %s\n", orNA(a.JobID))
	fmt.Fprintf(&b, "Application Date: %s\n", formatDate(a.ApplicationDate))
	fmt.Fprintf(&b, "Status: %s\n", a.Status)
	fmt.Fprintf(&b, "Location: %s\n", orNA(a.Location))
	fmt.Fprintf(&b, "Source: %s\n", orNA(a.SourceOfListing))
	fmt.Fprintf(&b, "Description Link: %s\n", orNA(a.JobDescriptionLink))
	fmt.Fprintf(&b, "Salary Expectation: %s\n", orNA(a.SalaryExpectation))
	fmt.Fprintf(&b, "Last Activity: %s\n", a.LastActivityDate.Format(DateLayout))
	fmt.Fprintf(&b, "Notes: %s\n", orNA(NotesPreview(a.Notes)))
	b.WriteString("--------------------")
	return b.String()
}

// NotesPreview はメモを表示用に50文字へ切り詰める。保存値は変更しない。
func NotesPreview(notes string) string {
	r := []rune(notes)
	if len(r) > notesPreviewLength {
		return string(r[:notesPreviewLength]) + "..."
	}
	return notes
}

func orNA(s string) string {
	if s == "" {
		return notApplicable
	}
	return s
}

func formatDate(d *time.Time) string {
	if d == nil {
		return notApplicable
	}
	return d.Format(DateLayout)
}

// civilDate は時刻を日付（UTC 0時）に丸める。暦日はtのロケーションで決まる。
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
