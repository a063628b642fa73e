package uploadshandler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"hwportal/internal/domain/upload"
	"hwportal/internal/transport/http/api"
	"hwportal/internal/transport/http/middleware"
	"hwportal/internal/transport/http/shared"
)

const (
	submitEndpoint = "uploads.submit"

	// Backend document names are capped at 140 characters.
	maxFacilityIDLength = 140
)

type facilityRequest struct {
	FacilityID string `json:"facilityId"`
}

type submitResponse struct {
	JobID   string      `json:"jobId"`
	Session upload.View `json:"session"`
}

func (h *Handler) handleTemplate(w http.ResponseWriter, r *http.Request) {
	name, body, err := upload.Template(h.Now())
	if err != nil {
		shared.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		slog.Warn("template write failed", "err", err)
	}
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	session := h.Sessions.Create(user.UserID)
	api.Created(w, session.Snapshot(), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	api.Success(w, session.Snapshot(), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Sessions.Delete(chi.URLParam(r, "sessionID"), user.UserID); err != nil {
		shared.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUploadFile accepts either a multipart form with a "file" part or the
// raw file as the body, named by the filename query parameter.
func (h *Handler) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var name string
	var body io.Reader
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxMultipartMem); err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "unable to read upload", middleware.GetRequestID(r.Context()))
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "file part is required", middleware.GetRequestID(r.Context()))
			return
		}
		defer file.Close()
		name, body = header.Filename, file
	} else {
		name, body = r.URL.Query().Get("filename"), r.Body
	}
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "file name is required", middleware.GetRequestID(r.Context()))
		return
	}

	err := session.Load(name, body)
	var maxBytesErr *http.MaxBytesError
	switch {
	case err == nil:
		api.Success(w, session.Snapshot(), middleware.GetRequestID(r.Context()))
	case errors.As(err, &maxBytesErr):
		api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "upload exceeds the size limit", middleware.GetRequestID(r.Context()))
	case isFileProblem(err):
		view := session.Snapshot()
		api.FailWithDetails(w, http.StatusBadRequest, "validation_error", err.Error(), map[string]any{
			"errors":      view.Errors,
			"issues":      view.Issues,
			"totalIssues": view.TotalIssues,
			"session":     view,
		}, middleware.GetRequestID(r.Context()))
	default:
		shared.FailError(w, err, middleware.GetRequestID(r.Context()))
	}
}

func isFileProblem(err error) bool {
	var validationErr *upload.ValidationError
	var parseErr *upload.ParseError
	return errors.As(err, &validationErr) || errors.As(err, &parseErr) || errors.Is(err, upload.ErrUnsupportedFile)
}

func (h *Handler) handleSelectFacility(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var req facilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid facility payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.MaxLen("facilityId", req.FacilityID, maxFacilityIDLength)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	if err := session.SelectFacility(req.FacilityID); err != nil {
		shared.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, session.Snapshot(), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleNext(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := session.Next(); err != nil {
		shared.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, session.Snapshot(), middleware.GetRequestID(r.Context()))
}

// handlePrevious steps back; leaving the first step discards the session.
func (h *Handler) handlePrevious(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	err := session.Previous()
	if errors.Is(err, upload.ErrExitSession) {
		if err := h.Sessions.Delete(session.ID(), user.UserID); err != nil && !errors.Is(err, upload.ErrSessionNotFound) {
			slog.Warn("discarding upload session failed", "session", session.ID(), "err", err)
		}
		api.Success(w, map[string]any{"exited": true}, middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		shared.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, session.Snapshot(), middleware.GetRequestID(r.Context()))
}

// handleSubmit creates the bulk upload job and then drops the session. A
// retried request with the same Idempotency-Key is answered from the stored
// response, which is why the key check runs before the session lookup.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	idempotencyKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	requestHash := submissionHash(chi.URLParam(r, "sessionID"))
	if idempotencyKey != "" {
		stored, found, err := h.Idempotency.Check(r.Context(), user.UserID, submitEndpoint, idempotencyKey, requestHash)
		if errors.Is(err, middleware.ErrIdempotencyConflict) {
			api.Fail(w, http.StatusConflict, "idempotency_conflict", err.Error(), middleware.GetRequestID(r.Context()))
			return
		}
		if err != nil {
			slog.Warn("idempotency check failed", "err", err)
		}
		if found {
			api.Created(w, json.RawMessage(stored), middleware.GetRequestID(r.Context()))
			return
		}
	}

	session, ok := h.session(w, r)
	if !ok {
		return
	}
	jobID, err := session.Submit(r.Context(), h.Submitter, user.Uploader())
	if err != nil {
		shared.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}

	view := session.Snapshot()
	view.Records = []upload.Record{}
	if err := h.Sessions.Delete(session.ID(), user.UserID); err != nil {
		slog.Debug("submitted session already gone", "session", session.ID(), "err", err)
	}

	response := submitResponse{JobID: jobID, Session: view}
	if idempotencyKey != "" {
		payload, err := json.Marshal(response)
		if err != nil {
			slog.Warn("idempotency response marshal failed", "err", err)
		} else if err := h.Idempotency.Save(r.Context(), user.UserID, submitEndpoint, idempotencyKey, requestHash, payload); err != nil {
			slog.Warn("idempotency save failed", "err", err)
		}
	}
	api.Created(w, response, middleware.GetRequestID(r.Context()))
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*upload.Session, bool) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return nil, false
	}
	session, err := h.Sessions.Get(chi.URLParam(r, "sessionID"), user.UserID)
	if err != nil {
		shared.FailError(w, err, middleware.GetRequestID(r.Context()))
		return nil, false
	}
	return session, true
}

// submissionHash binds an Idempotency-Key to one upload session. A session
// submits at most once, so its id identifies the payload.
func submissionHash(sessionID string) string {
	return middleware.RequestHash([]byte(submitEndpoint + "\x00" + sessionID))
}
