package payrun

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"

	"go-fieldpay/internal/calc"
	"go-fieldpay/internal/shared/apperror"
	"go-fieldpay/internal/shared/contextutil"
	"go-fieldpay/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("payrun.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("payrun.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	contextutil.GetLogger(c.Request.Context(), h.logger).Warn("payrun request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.String("message", httpErr.Message),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

// Upload takes the period's file pair as multipart fields "file_under" and
// "file_over", plus an optional "config" field with JSON overrides.
func (h *Handler) Upload(c *gin.Context) {
	under, underName, err := readFormFile(c, "file_under")
	if err != nil {
		response.Error(c, http.StatusBadRequest, apperror.CodeInvalidInput,
			"Отсутствует файл 'file_under'", err.Error())
		return
	}
	over, overName, err := readFormFile(c, "file_over")
	if err != nil {
		response.Error(c, http.StatusBadRequest, apperror.CodeInvalidInput,
			"Отсутствует файл 'file_over'", err.Error())
		return
	}

	var overrides calc.Overrides
	if raw := c.PostForm("config"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &overrides); err != nil {
			response.Error(c, http.StatusBadRequest, apperror.CodeInvalidInput,
				"Некорректный JSON в поле 'config'", err.Error())
			return
		}
	}

	h.logger.Debug("http upload",
		zap.String("file_under", underName),
		zap.String("file_over", overName),
	)

	resp, err := h.service.Upload(c.Request.Context(), UploadRequest{
		FileUnder:     under,
		FileOver:      over,
		FileNameUnder: underName,
		FileNameOver:  overName,
		Overrides:     overrides,
	})
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	status := http.StatusCreated
	if resp.Status == StatusReviewRequired {
		status = http.StatusAccepted
	}
	response.Success(c, status, resp, nil)
}

func (h *Handler) GetReview(c *gin.Context) {
	sessionID := c.Param("session_id")
	resp, err := h.service.GetReview(c.Request.Context(), sessionID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) ApplyReview(c *gin.Context) {
	sessionID := c.Param("session_id")
	var req ApplyReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http apply review validation failed", zap.Error(err))
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.ApplyReview(c.Request.Context(), sessionID, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) ListPeriods(c *gin.Context) {
	resp, err := h.service.ListPeriods(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) ListUploads(c *gin.Context) {
	label := c.Param("label")
	resp, err := h.service.ListUploads(c.Request.Context(), label)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetUpload(c *gin.Context) {
	id := c.Param("id")
	resp, err := h.service.GetUpload(c.Request.Context(), id)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func readFormFile(c *gin.Context, field string) ([]byte, string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, "", err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", err
	}
	defer func(f multipart.File) { _ = f.Close() }(f)

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", err
	}
	return data, fh.Filename, nil
}
