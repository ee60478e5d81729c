// Package cli は応募トラッカーの対話型メニューを提供する。
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hitoshi/jobtracker/internal/model"
)

// ApplicationService はセッションが必要とする応募サービスのインターフェース。
type ApplicationService interface {
	Create(ctx context.Context, in model.ApplicationInput) (*model.Application, []model.Warning, error)
	List(ctx context.Context) ([]model.Application, error)
	UpdateStatus(ctx context.Context, id string, status model.Status) (*model.Application, error)
	AddNote(ctx context.Context, id, text string) (*model.Application, error)
}

// メニュー項目
const (
	choiceAdd       = "1"
	choiceList      = "2"
	choiceUpdate    = "3"
	choiceAddNote   = "4"
	choiceExit      = "5"
	cancelSelection = 0
)

// Session は標準入出力上の1回の対話セッション。
// 入力を1行ずつ読み、メニュー選択に応じて処理を振り分ける。
// 単一goroutineで動作する。
type Session struct {
	svc ApplicationService
	in  *bufio.Reader
	out io.Writer
}

// NewSession はSessionを生成する。
func NewSession(svc ApplicationService, r io.Reader, w io.Writer) *Session {
	return &Session{
		svc: svc,
		in:  bufio.NewReader(r),
		out: w,
	}
}

// Run はExitが選ばれるか入力が閉じられるまでメニューを繰り返す。
// 入力の終端は正常終了として扱う。
func (s *Session) Run(ctx context.Context) error {
	for {
		s.println("\n--- Job Application Tracker Menu ---")
		s.println("1. Add New Application")
		s.println("2. List All Applications")
		s.println("3. Update Application Status")
		s.println("4. Add Note to Application")
		s.println("5. Exit")

		choice, err := s.prompt("Enter your choice: ")
		if err != nil {
			return s.finish(err)
		}

		switch strings.TrimSpace(choice) {
		case choiceAdd:
			err = s.addApplication(ctx)
		case choiceList:
			err = s.listApplications(ctx)
		case choiceUpdate:
			err = s.updateStatus(ctx)
		case choiceAddNote:
			err = s.addNote(ctx)
		case choiceExit:
			s.println("Exiting Job Application Tracker. Goodbye!")
			return nil
		default:
			s.println("Invalid choice. Please try again.")
		}
		if err != nil {
			return s.finish(err)
		}
	}
}

// finish は入力終端を正常終了に変換する。
func (s *Session) finish(err error) error {
	if errors.Is(err, io.EOF) {
		s.println("\nInput closed. Exiting Job Application Tracker.")
		return nil
	}
	return err
}

func (s *Session) addApplication(ctx context.Context) error {
	s.println("\n--- Add New Job Application ---")

	var in model.ApplicationInput
	var err error
	if in.CompanyName, err = s.prompt("Company Name: "); err != nil {
		return err
	}
	if in.JobTitle, err = s.prompt("Job Title: "); err != nil {
		return err
	}

	for {
		if in.ApplicationDate, err = s.prompt("Application Date (YYYY-MM-DD): "); err != nil {
			return err
		}
		if _, perr := model.ParseDate(in.ApplicationDate); perr == nil {
			break
		}
		s.println("Invalid date format. Please use YYYY-MM-DD.")
	}

	if in.SourceOfListing, err = s.prompt("Source of Listing (e.g., LinkedIn, Referral): "); err != nil {
		return err
	}
	if in.JobID, err = s.prompt("Job ID (optional, press Enter to skip): "); err != nil {
		return err
	}
	if in.JobDescriptionLink, err = s.prompt("Link to Job Description (optional): "); err != nil {
		return err
	}
	if in.Location, err = s.prompt("Location (e.g., City, State, Remote; optional): "); err != nil {
		return err
	}
	if in.SalaryExpectation, err = s.prompt("Salary Expectation (optional): "); err != nil {
		return err
	}

	s.printStatuses()
	status, err := s.selectInitialStatus()
	if err != nil {
		return err
	}
	in.Status = string(status)

	if in.Notes, err = s.prompt("Initial Notes (optional): "); err != nil {
		return err
	}

	app, warnings, err := s.svc.Create(ctx, in)
	for _, w := range warnings {
		s.printf("Warning: %s\n", w.Message)
	}
	if err != nil {
		s.printf("Error: %v\n", err)
		return nil
	}
	s.printf("\nApplication for '%s' at '%s' added successfully!\n", app.JobTitle, app.CompanyName)
	return nil
}

// selectInitialStatus は初期ステータスを番号で選ばせる。空入力はDefaultStatus。
func (s *Session) selectInitialStatus() (model.Status, error) {
	prompt := fmt.Sprintf("Initial Status (select 1-%d, default is '%s'): ", len(model.Statuses), model.DefaultStatus)
	for {
		choice, err := s.prompt(prompt)
		if err != nil {
			return "", err
		}
		if choice == "" {
			return model.DefaultStatus, nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(choice))
		if err != nil {
			s.println("Invalid input. Please enter a number.")
			continue
		}
		if status, ok := model.StatusAt(n); ok {
			return status, nil
		}
		s.println("Invalid choice. Please select a number from the list.")
	}
}

func (s *Session) listApplications(ctx context.Context) error {
	s.println("\n--- All Tracked Job Applications ---")
	apps, err := s.svc.List(ctx)
	if err != nil {
		s.printf("Error: %v\n", err)
		return nil
	}
	if len(apps) == 0 {
		s.println("No job applications tracked yet.")
		return nil
	}
	for i := range apps {
		s.printf("\n--- Application #%d ---\n", i+1)
		s.println(apps[i].String())
	}
	return nil
}

func (s *Session) updateStatus(ctx context.Context) error {
	apps, err := s.svc.List(ctx)
	if err != nil {
		s.printf("Error: %v\n", err)
		return nil
	}
	if len(apps) == 0 {
		s.println("No applications to update.")
		return nil
	}

	s.println("\n--- Update Application Status ---")
	s.printSummary(apps)

	selected, ok, err := s.selectApplication(apps, "Enter the number of the application to update (or 0 to cancel): ")
	if err != nil || !ok {
		return err
	}

	s.printStatuses()
	prompt := fmt.Sprintf("New Status for '%s' (select 1-%d): ", selected.JobTitle, len(model.Statuses))
	for {
		choice, err := s.prompt(prompt)
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(strings.TrimSpace(choice))
		if err != nil {
			s.println("Invalid input. Please enter a number.")
			continue
		}
		status, ok := model.StatusAt(n)
		if !ok {
			s.println("Invalid choice. Please select a number from the list.")
			continue
		}

		updated, err := s.svc.UpdateStatus(ctx, selected.ID, status)
		if err != nil {
			s.printf("Error: %v\n", err)
			return nil
		}
		s.printf("Status for '%s' at '%s' updated to '%s'.\n", updated.JobTitle, updated.CompanyName, updated.Status)
		return nil
	}
}

func (s *Session) addNote(ctx context.Context) error {
	apps, err := s.svc.List(ctx)
	if err != nil {
		s.printf("Error: %v\n", err)
		return nil
	}
	if len(apps) == 0 {
		s.println("No applications to add notes to.")
		return nil
	}

	s.println("\n--- Add Note to Application ---")
	s.printSummary(apps)

	selected, ok, err := s.selectApplication(apps, "Enter the number of the application to add a note to (or 0 to cancel): ")
	if err != nil || !ok {
		return err
	}

	text, err := s.prompt(fmt.Sprintf("Enter note for '%s': ", selected.JobTitle))
	if err != nil {
		return err
	}
	if _, err := s.svc.AddNote(ctx, selected.ID, text); err != nil {
		s.printf("Error: %v\n", err)
		return nil
	}
	s.println("Note added successfully.")
	return nil
}

// selectApplication は1始まりの番号で応募を選ばせる。
// 0が入力された場合はok=falseを返す。
func (s *Session) selectApplication(apps []model.Application, prompt string) (model.Application, bool, error) {
	for {
		choice, err := s.prompt(prompt)
		if err != nil {
			return model.Application{}, false, err
		}
		n, err := strconv.Atoi(strings.TrimSpace(choice))
		if err != nil {
			s.println("Please enter a valid number.")
			continue
		}
		if n == cancelSelection {
			return model.Application{}, false, nil
		}
		if n < 1 || n > len(apps) {
			s.println("Invalid application number.")
			continue
		}
		return apps[n-1], true, nil
	}
}

func (s *Session) printSummary(apps []model.Application) {
	s.println("\n--- Current Applications ---")
	for i := range apps {
		s.printf("%d. %s\n", i+1, apps[i].Summary())
	}
}

func (s *Session) printStatuses() {
	s.println("\nAvailable Statuses:")
	for i, st := range model.Statuses {
		s.printf("%d. %s\n", i+1, st)
	}
}

// prompt はプロンプトを表示して1行読み取る。末尾の改行は除去する。
// 入力が尽きた場合はio.EOFを返す。
func (s *Session) prompt(text string) (string, error) {
	fmt.Fprint(s.out, text)
	line, err := s.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (s *Session) println(text string) {
	fmt.Fprintln(s.out, text)
}

func (s *Session) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}
