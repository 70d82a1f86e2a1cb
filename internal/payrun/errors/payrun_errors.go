package payrunerrors

import (
	"net/http"

	"go-fieldpay/internal/shared/apperror"
)

var (
	ErrPeriodNotFound = apperror.New(
		apperror.CodeNotFound,
		"Период не найден",
		http.StatusNotFound,
	)
	ErrUploadNotFound = apperror.New(
		apperror.CodeNotFound,
		"Загрузка не найдена",
		http.StatusNotFound,
	)
	ErrReviewNotFound = apperror.New(
		apperror.CodeNotFound,
		"Сессия проверки не найдена или истекла",
		http.StatusNotFound,
	)
	ErrBadExportFile = apperror.New(
		apperror.CodeInvalidInput,
		"Файл не похож на выгрузку: заголовок 'Монтажник' не найден",
		http.StatusBadRequest,
	)
	ErrMissingFiles = apperror.New(
		apperror.CodeInvalidInput,
		"Нужны оба файла: до порога и свыше порога",
		http.StatusBadRequest,
	)
)
