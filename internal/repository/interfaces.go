// Package repository はデータ保持のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/jobtracker/internal/model"
)

// ApplicationRepository は応募データの保持インターフェース。
// 取得系は内部状態のコピーを返し、変更はUpdateを通してのみ行う。
type ApplicationRepository interface {
	// Create は応募を追加し、IDを採番する。追加順が一覧順になる。
	Create(ctx context.Context, app *model.Application) error

	// List は全応募を追加順に返す。
	List(ctx context.Context) ([]model.Application, error)

	// FindByID は指定IDの応募を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Application, error)

	// Update は指定IDの応募にfnを排他的に適用し、適用後の値を返す。
	// fnがエラーを返した場合は変更を破棄する。見つからない場合はnilを返す。
	Update(ctx context.Context, id string, fn func(app *model.Application) error) (*model.Application, error)
}
