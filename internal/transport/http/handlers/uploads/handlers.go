package uploadshandler

import (
	"time"

	"github.com/go-chi/chi/v5"

	"hwportal/internal/domain/auth"
	"hwportal/internal/domain/bulkjobs"
	"hwportal/internal/domain/upload"
	"hwportal/internal/transport/http/middleware"
)

const (
	maxWait         = 60 * time.Second
	maxMultipartMem = 8 << 20
)

// Handler serves the upload wizard and the bulk job views.
type Handler struct {
	Sessions    *upload.Registry
	Submitter   upload.Submitter
	Jobs        *bulkjobs.Service
	Idempotency middleware.IdempotencyStore
	Perms       middleware.PermissionStore
	PageSize    int
	PollEvery   time.Duration
	Now         func() time.Time
}

func NewHandler(sessions *upload.Registry, submitter upload.Submitter, jobs *bulkjobs.Service, idem middleware.IdempotencyStore, perms middleware.PermissionStore) *Handler {
	if idem == nil {
		idem = middleware.NewMemoryIdempotencyStore()
	}
	return &Handler{
		Sessions:    sessions,
		Submitter:   submitter,
		Jobs:        jobs,
		Idempotency: idem,
		Perms:       perms,
		PageSize:    20,
		PollEvery:   2 * time.Second,
		Now:         time.Now,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	write := middleware.RequirePermission(h.Perms, auth.PermUploadsWrite)
	read := middleware.RequirePermission(h.Perms, auth.PermJobsRead)

	r.Route("/uploads", func(r chi.Router) {
		r.With(write).Get("/template", h.handleTemplate)

		r.Route("/sessions", func(r chi.Router) {
			r.Use(write)
			r.Post("/", h.handleCreateSession)
			r.Get("/{sessionID}", h.handleGetSession)
			r.Delete("/{sessionID}", h.handleDeleteSession)
			r.Post("/{sessionID}/file", h.handleUploadFile)
			r.Put("/{sessionID}/facility", h.handleSelectFacility)
			r.Post("/{sessionID}/next", h.handleNext)
			r.Post("/{sessionID}/previous", h.handlePrevious)
			r.Post("/{sessionID}/submit", h.handleSubmit)
		})

		r.Route("/jobs", func(r chi.Router) {
			r.Use(read)
			r.Get("/", h.handleListJobs)
			r.Get("/{jobID}", h.handleGetJob)
			r.Get("/{jobID}/report.pdf", h.handleJobReport)
		})
	})
}
