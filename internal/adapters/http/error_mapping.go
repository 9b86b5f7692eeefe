package httpadapter

import (
	"net/http"

	"github.com/kirillkom/automation-dashboard/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrProcessNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrNotReady):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
