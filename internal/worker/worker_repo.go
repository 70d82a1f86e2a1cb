package worker

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

//go:generate mockgen -source=worker_repo.go -destination=mock/worker_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, w *Worker) error
	FindAll(ctx context.Context) ([]Worker, error)
	FindByID(ctx context.Context, id string) (*Worker, error)
	FindByFullName(ctx context.Context, fullName string) (*Worker, error)
	Update(ctx context.Context, w *Worker) error
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) Create(ctx context.Context, w *Worker) error {
	return r.db.WithContext(ctx).Create(w).Error
}

func (r *repository) FindAll(ctx context.Context) ([]Worker, error) {
	var workers []Worker
	err := r.db.WithContext(ctx).
		Order("full_name asc").
		Find(&workers).Error
	return workers, err
}

func (r *repository) FindByID(ctx context.Context, id string) (*Worker, error) {
	var w Worker
	err := r.db.WithContext(ctx).First(&w, "id = ?", id).Error
	return &w, err
}

func (r *repository) FindByFullName(ctx context.Context, fullName string) (*Worker, error) {
	var w Worker
	err := r.db.WithContext(ctx).First(&w, "full_name = ?", fullName).Error
	return &w, err
}

func (r *repository) Update(ctx context.Context, w *Worker) error {
	return r.db.WithContext(ctx).Save(w).Error
}

func (r *repository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&Worker{}, "id = ?", id).Error
}
