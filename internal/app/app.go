package app

import (
	"os"
	"strings"

	"go-fieldpay/internal/geo"
	"go-fieldpay/internal/messaging/kafka"
	"go-fieldpay/internal/middleware"
	"go-fieldpay/internal/payrun"
	"go-fieldpay/internal/shared/connection"
	"go-fieldpay/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func BuildApp(router *gin.Engine, logger *zap.Logger) error {
	// 1. Infrastructure
	gormDB, err := connection.ConnectGORMWithRetry(
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
		5,
	)
	if err != nil {
		return err
	}

	if err := gormDB.AutoMigrate(
		&worker.Worker{},
		&payrun.Period{},
		&payrun.Upload{},
		&payrun.OrderRow{},
		&payrun.Calculation{},
		&payrun.WorkerTotal{},
		&payrun.ChangeRecord{},
	); err != nil {
		return err
	}

	redisClient, err := connection.ConnectRedisWithRetry(os.Getenv("REDIS_ADDR"), 5)
	if err != nil {
		return err
	}

	// 2. Distance oracle: Yandex first when a key is configured, Nominatim
	// as the free fallback, OSRM for routing.
	var geocoders []geo.Geocoder
	if key := os.Getenv("YANDEX_GEOCODER_API_KEY"); key != "" {
		geocoders = append(geocoders, geo.NewYandexGeocoder(key))
	}
	geocoders = append(geocoders, geo.NewNominatimGeocoder())
	geoService := geo.NewService(logger, geo.NewCache(), geo.NewOSRMRouter(), geocoders...)

	// 3. Event publisher, optional.
	publisher := kafka.NewNoopPublisher()
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		writer := kafka.NewWriter(strings.Split(brokers, ","))
		publisher = kafka.NewPublisher(writer, logger)
		logger.Info("kafka publisher enabled", zap.String("brokers", brokers))
	}

	router.Use(middleware.RequestID())

	return registerModules(router, gormDB, redisClient, geoService, publisher, logger)
}
