package helpers

import (
	"errors"
	"log/slog"
	"net/http"

	"eventcertificates/internal/domain"
)

// WriteServiceError maps a service error to its HTTP status and writes the error envelope.
// Issuance failures are matched first since they may wrap ErrNotFound from a lower layer.
// Unclassified errors are logged and reported as 500 without leaking details.
func WriteServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrDefinitionMisconfigured):
		logger.WarnContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		WriteJSONError(w, http.StatusUnprocessableEntity, ErrCodeUnprocessable, domain.ErrDefinitionMisconfigured.Error())
	case errors.Is(err, domain.ErrConversionFailed):
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		WriteJSONError(w, http.StatusBadGateway, ErrCodeBadGateway, domain.ErrConversionFailed.Error())
	case errors.Is(err, domain.ErrStorageFailed):
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		WriteJSONError(w, http.StatusInternalServerError, ErrCodeInternalError, domain.ErrStorageFailed.Error())
	case errors.Is(err, domain.ErrNotFound):
		WriteJSONError(w, http.StatusNotFound, ErrCodeNotFound, "not found")
	case errors.Is(err, domain.ErrInvalidInput):
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		WriteJSONError(w, http.StatusForbidden, ErrCodeForbidden, "forbidden")
	case errors.Is(err, domain.ErrDuplicateHashtag), errors.Is(err, domain.ErrCertificateInUse):
		WriteJSONError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	default:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		WriteJSONError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
	}
}
