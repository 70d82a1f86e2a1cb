package worker

import (
	"context"
	"encoding/json"
	"time"

	"go-fieldpay/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const rosterCacheKey = "workers:roster"

//go:generate mockgen -source=worker_service.go -destination=mock/worker_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, req CreateWorkerRequest) (WorkerResponse, error)
	GetAll(ctx context.Context) ([]WorkerResponse, error)
	GetByID(ctx context.Context, id string) (WorkerResponse, error)
	Update(ctx context.Context, id string, req UpdateWorkerRequest) (WorkerResponse, error)
	Delete(ctx context.Context, id string) error

	// ManagerSet and CompanyCarWorkers feed the ingestor and the rule engine.
	ManagerSet(ctx context.Context) (map[string]bool, error)
	CompanyCarWorkers(ctx context.Context) ([]string, error)
}

type service struct {
	repo   Repository
	rdb    *redis.Client
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewService(repo Repository, rdb *redis.Client, logger ...*zap.Logger) Service {
	l := zap.L().Named("worker.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("worker.service")
	}
	return &service{
		repo:   repo,
		rdb:    rdb,
		sf:     &singleflight.Group{},
		logger: l,
	}
}

func (s *service) Create(ctx context.Context, req CreateWorkerRequest) (WorkerResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("create worker requested",
		zap.String("request_id", rid),
		zap.String("full_name", req.FullName),
	)

	w := &Worker{
		ID:           uuid.New(),
		FullName:     req.FullName,
		OnCompanyCar: req.OnCompanyCar,
		IsManager:    req.IsManager,
	}
	if err := s.repo.Create(ctx, w); err != nil {
		s.logger.Error("create worker persist failed", zap.String("request_id", rid), zap.Error(err))
		return WorkerResponse{}, mapRepositoryError(err)
	}

	s.invalidateRoster(ctx)
	s.logger.Info("create worker success",
		zap.String("request_id", rid),
		zap.String("worker_id", w.ID.String()),
	)
	return mapToResponse(*w), nil
}

func (s *service) GetAll(ctx context.Context) ([]WorkerResponse, error) {
	workers, err := s.roster(ctx)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(workers), nil
}

func (s *service) GetByID(ctx context.Context, id string) (WorkerResponse, error) {
	w, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.logger.Error("get worker by id failed", zap.String("worker_id", id), zap.Error(err))
		return WorkerResponse{}, mapRepositoryError(err)
	}
	return mapToResponse(*w), nil
}

func (s *service) Update(ctx context.Context, id string, req UpdateWorkerRequest) (WorkerResponse, error) {
	s.logger.Debug("update worker requested", zap.String("worker_id", id))

	w, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.logger.Error("update worker fetch existing failed", zap.Error(err))
		return WorkerResponse{}, mapRepositoryError(err)
	}

	w.FullName = req.FullName
	w.OnCompanyCar = req.OnCompanyCar
	w.IsManager = req.IsManager

	if err := s.repo.Update(ctx, w); err != nil {
		s.logger.Error("update worker persist failed", zap.Error(err))
		return WorkerResponse{}, mapRepositoryError(err)
	}

	s.invalidateRoster(ctx)
	s.logger.Info("update worker success", zap.String("worker_id", id))
	return mapToResponse(*w), nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	s.logger.Debug("delete worker requested", zap.String("worker_id", id))

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("delete worker failed", zap.Error(err))
		return mapRepositoryError(err)
	}

	s.invalidateRoster(ctx)
	s.logger.Info("delete worker success", zap.String("worker_id", id))
	return nil
}

func (s *service) ManagerSet(ctx context.Context) (map[string]bool, error) {
	workers, err := s.roster(ctx)
	if err != nil {
		return nil, err
	}
	set := map[string]bool{}
	for _, w := range workers {
		if w.IsManager {
			set[w.FullName] = true
		}
	}
	return set, nil
}

func (s *service) CompanyCarWorkers(ctx context.Context) ([]string, error) {
	workers, err := s.roster(ctx)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, w := range workers {
		if w.OnCompanyCar {
			names = append(names, w.FullName)
		}
	}
	return names, nil
}

// roster is the cached read path. Every upload hits it twice (manager set and
// company-car list), so the Redis TTL plus singleflight keeps the DB quiet.
func (s *service) roster(ctx context.Context) ([]Worker, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, rosterCacheKey).Result(); err == nil {
			var workers []Worker
			if json.Unmarshal([]byte(cached), &workers) == nil {
				return workers, nil
			}
		}
	}

	v, err, _ := s.sf.Do(rosterCacheKey, func() (interface{}, error) {
		workers, err := s.repo.FindAll(ctx)
		if err != nil {
			return nil, mapRepositoryError(err)
		}

		if s.rdb != nil {
			if jsonData, err := json.Marshal(workers); err == nil {
				s.rdb.Set(ctx, rosterCacheKey, jsonData, 1*time.Hour)
			}
		}
		return workers, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Worker), nil
}

func (s *service) invalidateRoster(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, rosterCacheKey).Err(); err != nil {
		s.logger.Error("failed to invalidate roster cache",
			zap.Error(err),
			zap.String("key", rosterCacheKey),
		)
	}
}

func mapToResponse(w Worker) WorkerResponse {
	return WorkerResponse{
		ID:           w.ID.String(),
		FullName:     w.FullName,
		OnCompanyCar: w.OnCompanyCar,
		IsManager:    w.IsManager,
	}
}

func mapToListResponse(workers []Worker) []WorkerResponse {
	res := make([]WorkerResponse, len(workers))
	for i, w := range workers {
		res[i] = mapToResponse(w)
	}
	return res
}
