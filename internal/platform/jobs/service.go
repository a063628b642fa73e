package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"hwportal/internal/platform/querier"
)

const (
	JobSweepUploadSessions = "upload_session_sweep"
	JobPruneIdempotency    = "idempotency_prune"
)

type RunFunc func(context.Context) (any, error)

// Service runs background maintenance work on a single worker. Scheduled
// tasks are enqueued on their interval; when a database is configured each
// run is recorded in job_runs.
type Service struct {
	DB    querier.Querier
	queue chan job

	mu    sync.Mutex
	tasks []task
}

type job struct {
	Type string
	Run  RunFunc
}

type task struct {
	jobType  string
	interval time.Duration
	run      RunFunc
}

func New(db querier.Querier) *Service {
	return &Service{
		DB:    db,
		queue: make(chan job, 128),
	}
}

// Every registers a task to be enqueued each interval once Start is called.
func (s *Service) Every(jobType string, interval time.Duration, run RunFunc) {
	if interval <= 0 {
		return
	}
	s.mu.Lock()
	s.tasks = append(s.tasks, task{jobType: jobType, interval: interval, run: run})
	s.mu.Unlock()
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	s.mu.Lock()
	tasks := append([]task(nil), s.tasks...)
	s.mu.Unlock()
	for _, t := range tasks {
		go s.schedule(ctx, t)
	}
}

func (s *Service) Enqueue(jobType string, run RunFunc) {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
	default:
		slog.Warn("job queue full", "jobType", jobType)
	}
}

func (s *Service) RunNow(ctx context.Context, jobType string, run RunFunc) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "err", err)
			}
		}
	}
}

func (s *Service) schedule(ctx context.Context, t task) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Enqueue(t.jobType, t.run)
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	var runID int64
	if s.DB != nil {
		if err := s.DB.QueryRow(ctx, `
      INSERT INTO job_runs (job_type, status)
      VALUES ($1,$2)
      RETURNING id
    `, j.Type, "running").Scan(&runID); err != nil {
			slog.Warn("job run insert failed", "jobType", j.Type, "err", err)
		}
	}

	start := time.Now()
	details, err := j.Run(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
	}
	slog.Debug("job run finished", "jobType", j.Type, "status", status, "durationMs", time.Since(start).Milliseconds())

	if runID == 0 {
		return details, err
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil || string(detailsJSON) == "null" {
		detailsJSON = []byte("{}")
	}
	if _, updErr := s.DB.Exec(ctx, `
    UPDATE job_runs
    SET status = $1, details_json = $2, completed_at = now()
    WHERE id = $3
  `, status, detailsJSON, runID); updErr != nil {
		slog.Warn("job run update failed", "jobType", j.Type, "err", updErr)
	}
	return details, err
}
