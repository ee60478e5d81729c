// Package application は求人応募の登録・更新のドメインロジックを提供する。
package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/jobtracker/internal/metrics"
	"github.com/hitoshi/jobtracker/internal/model"
	"github.com/hitoshi/jobtracker/internal/repository"
)

// Service は応募管理のサービス層。
// CLIとHTTPハンドラーの双方から利用される。
type Service struct {
	repo    repository.ApplicationRepository
	logger  *slog.Logger
	metrics metrics.MetricsCollector
	now     func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
// collectorとnowはnilを許容する。
func NewService(
	repo repository.ApplicationRepository,
	logger *slog.Logger,
	collector metrics.MetricsCollector,
	now func() time.Time,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if collector == nil {
		collector = metrics.Nop{}
	}
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:    repo,
		logger:  logger,
		metrics: collector,
		now:     now,
	}
}

// Create は入力値から応募を生成して保存する。
// 補正が発生した項目は警告として返し、ログにも記録する。
func (s *Service) Create(ctx context.Context, in model.ApplicationInput) (*model.Application, []model.Warning, error) {
	app, warnings := model.NewApplication(in, s.now)
	for _, w := range warnings {
		s.logger.Warn("応募の入力値を補正しました",
			slog.String("field", w.Field),
			slog.String("detail", w.Message),
		)
	}

	if err := s.repo.Create(ctx, app); err != nil {
		return nil, warnings, fmt.Errorf("応募の保存に失敗しました: %w", err)
	}
	s.metrics.RecordApplicationCreated()

	s.logger.Info("応募を登録しました",
		slog.String("application_id", app.ID),
		slog.String("company", app.CompanyName),
		slog.String("status", app.Status.String()),
	)
	return app, warnings, nil
}

// List は全応募を登録順に返す。
func (s *Service) List(ctx context.Context) ([]model.Application, error) {
	apps, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("応募一覧の取得に失敗しました: %w", err)
	}
	return apps, nil
}

// Get は指定IDの応募を返す。存在しない場合はAPPLICATION_NOT_FOUNDエラーを返す。
func (s *Service) Get(ctx context.Context, id string) (*model.Application, error) {
	app, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("応募の取得に失敗しました: %w", err)
	}
	if app == nil {
		return nil, model.NewApplicationNotFoundError(id)
	}
	return app, nil
}

// UpdateStatus はステータスを更新する。
// 定義外のステータスはINVALID_STATUSエラーとなり、応募は変更されない。
func (s *Service) UpdateStatus(ctx context.Context, id string, status model.Status) (*model.Application, error) {
	app, err := s.repo.Update(ctx, id, func(a *model.Application) error {
		return a.UpdateStatus(status)
	})
	if err != nil {
		s.metrics.RecordStatusUpdate(false)
		s.logger.Warn("ステータス更新を拒否しました",
			slog.String("application_id", id),
			slog.String("status", string(status)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	if app == nil {
		return nil, model.NewApplicationNotFoundError(id)
	}
	s.metrics.RecordStatusUpdate(true)

	s.logger.Info("ステータスを更新しました",
		slog.String("application_id", id),
		slog.String("status", app.Status.String()),
	)
	return app, nil
}

// AddNote はメモを追記する。
func (s *Service) AddNote(ctx context.Context, id, text string) (*model.Application, error) {
	app, err := s.repo.Update(ctx, id, func(a *model.Application) error {
		a.AddNote(text)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("メモの追記に失敗しました: %w", err)
	}
	if app == nil {
		return nil, model.NewApplicationNotFoundError(id)
	}
	s.metrics.RecordNoteAdded()

	s.logger.Info("メモを追記しました",
		slog.String("application_id", id),
	)
	return app, nil
}
