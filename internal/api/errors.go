package api

import (
	"errors"
	"net/http"

	"adlens/internal/domain"
)

// httpStatusFromDomainError maps domain errors to HTTP status codes.
// Directory lookup failures surface as 502 since the fault is upstream.
func httpStatusFromDomainError(err error) int {
	var notFound *domain.NotFoundError
	var lookup *domain.LookupError
	var validation *domain.ValidationError
	var conflict *domain.ConflictError

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &lookup):
		return http.StatusBadGateway
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &conflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
