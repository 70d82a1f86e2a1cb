package app

import (
	"go-fieldpay/internal/calc"
	"go-fieldpay/internal/geo"
	"go-fieldpay/internal/messaging/kafka"
	"go-fieldpay/internal/payrun"
	"go-fieldpay/internal/reconcile"
	"go-fieldpay/internal/session"
	"go-fieldpay/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	gormDB *gorm.DB,
	rdb *redis.Client,
	geoService *geo.Service,
	publisher kafka.Publisher,
	logger *zap.Logger,
) error {
	// --- Repositories ---
	workerRepo := worker.NewRepository(gormDB)
	payrunRepo := payrun.NewRepository(gormDB)

	// --- Services ---
	workerService := worker.NewService(workerRepo, rdb, logger)
	calcService := calc.NewService(logger, geoService)
	reconcileService := reconcile.NewService(logger)
	sessionStore := session.NewStore(rdb, logger)
	payrunService := payrun.NewService(
		payrunRepo,
		workerService,
		calcService,
		reconcileService,
		sessionStore,
		publisher,
		logger,
	)

	// --- Handlers ---
	workerHandler := worker.NewHandler(workerService, logger)
	payrunHandler := payrun.NewHandler(payrunService, logger)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		worker.RegisterRoutes(api, workerHandler, logger)
		payrun.RegisterRoutes(api, payrunHandler, logger)
	}

	return nil
}
