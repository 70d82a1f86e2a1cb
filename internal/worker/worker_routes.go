package worker

import (
	"go-fieldpay/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, logger *zap.Logger) {
	workers := r.Group("/workers")
	workers.Use(middleware.ContextLogger(logger))
	{
		workers.GET("", handler.GetAll)
		workers.GET("/:id", handler.GetById)
		workers.POST("", handler.Create)
		workers.PUT("/:id", handler.Update)
		workers.DELETE("/:id", handler.Delete)
	}
}
