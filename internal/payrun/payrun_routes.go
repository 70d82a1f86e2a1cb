package payrun

import (
	"go-fieldpay/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, logger *zap.Logger) {
	payruns := r.Group("/payruns")
	payruns.Use(middleware.ContextLogger(logger))
	{
		payruns.POST("/uploads", handler.Upload)
		payruns.GET("/reviews/:session_id", handler.GetReview)
		payruns.POST("/reviews/:session_id/apply", handler.ApplyReview)
		payruns.GET("/periods", handler.ListPeriods)
		payruns.GET("/periods/:label/uploads", handler.ListUploads)
		payruns.GET("/uploads/:id", handler.GetUpload)
	}
}
