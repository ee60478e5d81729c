package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/hitoshi/jobtracker/internal/model"
)

// MemoryApplicationRepo はプロセス内メモリに応募を保持するリポジトリ。
// 永続化は行わず、プロセス終了とともに破棄される。削除操作は持たない。
type MemoryApplicationRepo struct {
	mu   sync.RWMutex
	apps []*model.Application
	byID map[string]*model.Application
}

// NewMemoryApplicationRepo はMemoryApplicationRepoを生成する。
func NewMemoryApplicationRepo() *MemoryApplicationRepo {
	return &MemoryApplicationRepo{
		byID: make(map[string]*model.Application),
	}
}

// Create は応募を末尾に追加する。IDが空の場合はUUIDを採番する。
func (r *MemoryApplicationRepo) Create(ctx context.Context, app *model.Application) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	stored := *app
	r.apps = append(r.apps, &stored)
	r.byID[stored.ID] = &stored
	return nil
}

// List は全応募のコピーを追加順に返す。
func (r *MemoryApplicationRepo) List(ctx context.Context) ([]model.Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Application, len(r.apps))
	for i, a := range r.apps {
		out[i] = *a
	}
	return out, nil
}

// FindByID は指定IDの応募のコピーを返す。見つからない場合はnilを返す。
func (r *MemoryApplicationRepo) FindByID(ctx context.Context, id string) (*model.Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

// Update はコピーにfnを適用し、成功した場合のみ保存値を置き換える。
func (r *MemoryApplicationRepo) Update(ctx context.Context, id string, fn func(app *model.Application) error) (*model.Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return nil, nil
	}

	working := *a
	if err := fn(&working); err != nil {
		return nil, err
	}
	*a = working

	cp := working
	return &cp, nil
}

// Len は保持している応募数を返す。
func (r *MemoryApplicationRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.apps)
}
