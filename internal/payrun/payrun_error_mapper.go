package payrun

import (
	"errors"

	payrunerrors "go-fieldpay/internal/payrun/errors"

	"gorm.io/gorm"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return payrunerrors.ErrUploadNotFound
	}
	return err
}
