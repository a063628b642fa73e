package uploadshandler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"hwportal/internal/domain/bulkjobs"
	"hwportal/internal/transport/http/api"
	"hwportal/internal/transport/http/middleware"
	"hwportal/internal/transport/http/shared"
)

var (
	jobStatuses = []string{
		string(bulkjobs.StatusQueued),
		string(bulkjobs.StatusProcessing),
		string(bulkjobs.StatusCompleted),
		string(bulkjobs.StatusFailed),
	}
	jobSortFields = []string{
		string(bulkjobs.SortUploadedAt),
		string(bulkjobs.SortID),
		string(bulkjobs.SortFacility),
		string(bulkjobs.SortUploadedBy),
		string(bulkjobs.SortStatus),
		string(bulkjobs.SortTotal),
		string(bulkjobs.SortProgress),
	}
)

type jobListMeta struct {
	Mode    bulkjobs.Mode `json:"mode"`
	Page    int           `json:"page"`
	PerPage int           `json:"perPage"`
	Fetched int           `json:"fetched"`
	Shown   int           `json:"shown"`
}

func (h *Handler) handleListJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	v := shared.NewValidator()
	statusRaw := v.OneOf("status", query.Get("status"), jobStatuses...)
	sortBy := bulkjobs.SortField(v.OneOf("sort", query.Get("sort"), jobSortFields...))
	order := v.OneOf("order", query.Get("order"), "asc", "desc")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	page := shared.ParsePagination(r, h.PageSize, 500)
	status := bulkjobs.ParseStatus(statusRaw)
	jobs, err := h.Jobs.List(r.Context(), bulkjobs.ListQuery{Status: status, Page: page.Page, PerPage: page.PerPage})
	if err != nil {
		shared.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}

	shown := bulkjobs.ApplyView(jobs, bulkjobs.View{
		Search: query.Get("q"),
		Status: status,
		SortBy: sortBy,
		Desc:   sortBy != "" && order != "asc",
	})
	api.SuccessWithMeta(w, shown, jobListMeta{
		Mode:    h.Jobs.Mode(),
		Page:    page.Page,
		PerPage: page.PerPage,
		Fetched: len(jobs),
		Shown:   len(shown),
	}, middleware.GetRequestID(r.Context()))
}

// handleGetJob returns a job with its items. With wait set it long-polls
// until the job settles or the wait elapses.
func (h *Handler) handleGetJob(w http.ResponseWriter, r *http.Request) {
	v := shared.NewValidator()
	wait := v.Duration("wait", r.URL.Query().Get("wait"), maxWait)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	jobID := chi.URLParam(r, "jobID")
	detail, err := h.Jobs.Wait(r.Context(), jobID, wait, h.PollEvery)
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		shared.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, detail, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleJobReport(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	detail, err := h.Jobs.Get(r.Context(), jobID)
	if err != nil {
		shared.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	pdf, err := bulkjobs.RenderReport(detail, h.Now())
	if err != nil {
		slog.Error("job report render failed", "job", jobID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to render report", middleware.GetRequestID(r.Context()))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="bulk_upload_`+sanitizeFilename(jobID)+`.pdf"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		slog.Warn("job report write failed", "job", jobID, "err", err)
	}
}

func sanitizeFilename(value string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, value)
}
