package http

import (
	"errors"
	"net/http"

	apperrors "github.com/cpatton716/collectors-catalog/pkg/errors"
)

// httpStatus maps application error codes to HTTP statuses. Validation and
// business-rule failures surface as 4xx; everything unknown is a 500 with no
// internal detail leaked.
func httpStatus(code int) int {
	switch code {
	case apperrors.ErrUnauthorized:
		return http.StatusUnauthorized
	case apperrors.ErrForbidden:
		return http.StatusForbidden
	case apperrors.ErrNotFound, apperrors.ErrProfileNotFound:
		return http.StatusNotFound
	case apperrors.ErrNotAvailable, apperrors.ErrSelfPurchase,
		apperrors.ErrNoBuyNowPrice, apperrors.ErrBadRequest:
		return http.StatusBadRequest
	case apperrors.ErrOutbid, apperrors.ErrConflict:
		return http.StatusConflict
	case apperrors.ErrStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
