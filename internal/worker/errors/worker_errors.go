package workererrors

import (
	"net/http"

	"go-fieldpay/internal/shared/apperror"
)

var (
	ErrWorkerNotFound = apperror.New(
		apperror.CodeNotFound,
		"Монтажник не найден",
		http.StatusNotFound,
	)
	ErrWorkerAlreadyExists = apperror.New(
		apperror.CodeConflict,
		"Монтажник с таким именем уже существует",
		http.StatusConflict,
	)
	ErrInvalidWorkerID = apperror.New(
		apperror.CodeInvalidInput,
		"Некорректный идентификатор монтажника",
		http.StatusBadRequest,
	)
)
