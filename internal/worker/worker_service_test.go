package worker_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"go-fieldpay/internal/worker"
	workererrors "go-fieldpay/internal/worker/errors"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeWorkerRepo struct {
	CreateFn         func(ctx context.Context, w *worker.Worker) error
	FindAllFn        func(ctx context.Context) ([]worker.Worker, error)
	FindByIDFn       func(ctx context.Context, id string) (*worker.Worker, error)
	FindByFullNameFn func(ctx context.Context, fullName string) (*worker.Worker, error)
	UpdateFn         func(ctx context.Context, w *worker.Worker) error
	DeleteFn         func(ctx context.Context, id string) error
}

func (f *fakeWorkerRepo) WithTx(*sql.Tx) worker.Repository { return f }
func (f *fakeWorkerRepo) Create(ctx context.Context, w *worker.Worker) error {
	return f.CreateFn(ctx, w)
}
func (f *fakeWorkerRepo) FindAll(ctx context.Context) ([]worker.Worker, error) {
	return f.FindAllFn(ctx)
}
func (f *fakeWorkerRepo) FindByID(ctx context.Context, id string) (*worker.Worker, error) {
	return f.FindByIDFn(ctx, id)
}
func (f *fakeWorkerRepo) FindByFullName(ctx context.Context, fullName string) (*worker.Worker, error) {
	return f.FindByFullNameFn(ctx, fullName)
}
func (f *fakeWorkerRepo) Update(ctx context.Context, w *worker.Worker) error {
	return f.UpdateFn(ctx, w)
}
func (f *fakeWorkerRepo) Delete(ctx context.Context, id string) error {
	return f.DeleteFn(ctx, id)
}

func roster() []worker.Worker {
	return []worker.Worker{
		{ID: uuid.New(), FullName: "Иванов Иван Иванович"},
		{ID: uuid.New(), FullName: "Петров Петр Петрович", OnCompanyCar: true},
		{ID: uuid.New(), FullName: "Козлов Андрей Андреевич", IsManager: true},
	}
}

func TestWorkerService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("success invalidates roster cache", func(t *testing.T) {
		repo := &fakeWorkerRepo{
			CreateFn: func(_ context.Context, w *worker.Worker) error {
				assert.Equal(t, "Сидоров Семен Семенович", w.FullName)
				assert.True(t, w.OnCompanyCar)
				return nil
			},
		}
		rdb, mock := redismock.NewClientMock()
		mock.ExpectDel("workers:roster").SetVal(1)

		svc := worker.NewService(repo, rdb, zap.NewNop())
		resp, err := svc.Create(ctx, worker.CreateWorkerRequest{
			FullName:     "Сидоров Семен Семенович",
			OnCompanyCar: true,
		})
		require.NoError(t, err)
		assert.Equal(t, "Сидоров Семен Семенович", resp.FullName)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate name", func(t *testing.T) {
		repo := &fakeWorkerRepo{
			CreateFn: func(context.Context, *worker.Worker) error {
				return &pgconn.PgError{Code: "23505", ConstraintName: "uq_worker_full_name"}
			},
		}
		svc := worker.NewService(repo, nil, zap.NewNop())

		_, err := svc.Create(ctx, worker.CreateWorkerRequest{FullName: "Иванов Иван Иванович"})
		assert.ErrorIs(t, err, workererrors.ErrWorkerAlreadyExists)
	})
}

func TestWorkerService_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		repo := &fakeWorkerRepo{
			FindByIDFn: func(context.Context, string) (*worker.Worker, error) {
				return nil, gorm.ErrRecordNotFound
			},
		}
		svc := worker.NewService(repo, nil, zap.NewNop())

		_, err := svc.GetByID(ctx, uuid.New().String())
		assert.ErrorIs(t, err, workererrors.ErrWorkerNotFound)
	})
}

func TestWorkerService_Update(t *testing.T) {
	ctx := context.Background()

	existing := &worker.Worker{ID: uuid.New(), FullName: "Иванов Иван Иванович"}
	repo := &fakeWorkerRepo{
		FindByIDFn: func(_ context.Context, id string) (*worker.Worker, error) {
			assert.Equal(t, existing.ID.String(), id)
			return existing, nil
		},
		UpdateFn: func(_ context.Context, w *worker.Worker) error {
			assert.True(t, w.IsManager)
			return nil
		},
	}
	rdb, mock := redismock.NewClientMock()
	mock.ExpectDel("workers:roster").SetVal(1)

	svc := worker.NewService(repo, rdb, zap.NewNop())
	resp, err := svc.Update(ctx, existing.ID.String(), worker.UpdateWorkerRequest{
		FullName:  "Иванов Иван Иванович",
		IsManager: true,
	})
	require.NoError(t, err)
	assert.True(t, resp.IsManager)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkerService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("success invalidates roster cache", func(t *testing.T) {
		repo := &fakeWorkerRepo{
			DeleteFn: func(context.Context, string) error { return nil },
		}
		rdb, mock := redismock.NewClientMock()
		mock.ExpectDel("workers:roster").SetVal(1)

		svc := worker.NewService(repo, rdb, zap.NewNop())
		require.NoError(t, svc.Delete(ctx, uuid.New().String()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo := &fakeWorkerRepo{
			DeleteFn: func(context.Context, string) error { return gorm.ErrRecordNotFound },
		}
		svc := worker.NewService(repo, nil, zap.NewNop())
		assert.ErrorIs(t, svc.Delete(ctx, uuid.New().String()), workererrors.ErrWorkerNotFound)
	})
}

func TestWorkerService_Roster(t *testing.T) {
	ctx := context.Background()

	t.Run("manager set and company car list", func(t *testing.T) {
		calls := 0
		repo := &fakeWorkerRepo{
			FindAllFn: func(context.Context) ([]worker.Worker, error) {
				calls++
				return roster(), nil
			},
		}
		svc := worker.NewService(repo, nil, zap.NewNop())

		managers, err := svc.ManagerSet(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]bool{"Козлов Андрей Андреевич": true}, managers)

		cars, err := svc.CompanyCarWorkers(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Петров Петр Петрович"}, cars)

		// No cache backend, so each read goes to the repository.
		assert.Equal(t, 2, calls)
	})

	t.Run("cache hit skips the repository", func(t *testing.T) {
		repo := &fakeWorkerRepo{
			FindAllFn: func(context.Context) ([]worker.Worker, error) {
				t.Fatal("repository must not be called on cache hit")
				return nil, nil
			},
		}
		cached, err := json.Marshal(roster())
		require.NoError(t, err)

		rdb, mock := redismock.NewClientMock()
		mock.ExpectGet("workers:roster").SetVal(string(cached))

		svc := worker.NewService(repo, rdb, zap.NewNop())
		all, err := svc.GetAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 3)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("cache miss populates the cache", func(t *testing.T) {
		workers := roster()
		repo := &fakeWorkerRepo{
			FindAllFn: func(context.Context) ([]worker.Worker, error) { return workers, nil },
		}
		payload, err := json.Marshal(workers)
		require.NoError(t, err)

		rdb, mock := redismock.NewClientMock()
		mock.ExpectGet("workers:roster").RedisNil()
		mock.ExpectSet("workers:roster", payload, 1*time.Hour).SetVal("OK")

		svc := worker.NewService(repo, rdb, zap.NewNop())
		all, err := svc.GetAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 3)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
