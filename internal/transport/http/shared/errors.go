package shared

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"hwportal/internal/domain/bulkjobs"
	"hwportal/internal/domain/listing"
	"hwportal/internal/domain/upload"
	"hwportal/internal/platform/backend"
	"hwportal/internal/transport/http/api"
)

// FailError writes the envelope matching a domain or upstream error.
func FailError(w http.ResponseWriter, err error, requestID string) {
	var validationErr *upload.ValidationError
	var parseErr *upload.ParseError
	var submissionErr *bulkjobs.SubmissionError
	var networkErr *backend.NetworkError
	var serverErr *backend.ServerError

	switch {
	case errors.As(err, &validationErr):
		api.FailWithDetails(w, http.StatusBadRequest, "validation_error", validationErr.Error(), map[string]any{
			"issues":      validationErr.Issues,
			"totalIssues": validationErr.Total,
		}, requestID)
	case errors.As(err, &parseErr), errors.Is(err, upload.ErrUnsupportedFile), errors.Is(err, listing.ErrInvalidFilter):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID)
	case errors.Is(err, upload.ErrSessionNotFound), errors.Is(err, bulkjobs.ErrJobNotFound), errors.Is(err, listing.ErrRecordNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	case errors.Is(err, upload.ErrNoRecords),
		errors.Is(err, upload.ErrNoFacility),
		errors.Is(err, upload.ErrWrongStep),
		errors.Is(err, upload.ErrSubmitInProgress),
		errors.Is(err, upload.ErrAlreadySubmitted),
		errors.Is(err, bulkjobs.ErrNothingToSubmit):
		api.Fail(w, http.StatusConflict, "invalid_state", err.Error(), requestID)
	case errors.As(err, &submissionErr):
		api.Fail(w, http.StatusBadGateway, "upstream_error", submissionErr.Message, requestID)
	case errors.As(err, &serverErr):
		message := serverErr.Message
		if message == "" {
			message = "backend request failed"
		}
		api.Fail(w, http.StatusBadGateway, "upstream_error", message, requestID)
	case errors.As(err, &networkErr), errors.Is(err, backend.ErrMalformedResponse), errors.Is(err, context.DeadlineExceeded):
		api.Fail(w, http.StatusBadGateway, "upstream_error", "backend unavailable", requestID)
	default:
		slog.Error("request failed", "requestId", requestID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "internal_error", "internal error", requestID)
	}
}
