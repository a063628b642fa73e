package bulkjobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"hwportal/internal/platform/backend"
)

type Mode string

const (
	ModePreAggregated Mode = "preaggregated"
	ModeScan          Mode = "scan"
)

const (
	defaultPageSize    = 100
	defaultItemLimit   = 1000
	defaultConcurrency = 8
	defaultPollEvery   = 2 * time.Second
)

// Backend is the subset of the upstream client the job views need.
type Backend interface {
	GetList(ctx context.Context, q backend.CollectionQuery) ([]json.RawMessage, error)
	GetDoc(ctx context.Context, doctype, name string, out any) error
	BulkJobs(ctx context.Context, method string, q backend.BulkJobsQuery) (backend.BulkJobsResponse, error)
}

type Config struct {
	Mode        Mode
	JobsMethod  string
	Concurrency int
	PageSize    int
	ItemLimit   int
}

type ListQuery struct {
	Status  Status
	Page    int
	PerPage int
}

type Service struct {
	backend Backend
	cfg     Config
}

func NewService(b Backend, cfg Config) *Service {
	if cfg.Mode == "" {
		cfg.Mode = ModePreAggregated
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.ItemLimit <= 0 {
		cfg.ItemLimit = defaultItemLimit
	}
	return &Service{backend: b, cfg: cfg}
}

func (s *Service) Mode() Mode {
	return s.cfg.Mode
}

// List returns one page of jobs, newest first, with counts and progress set.
func (s *Service) List(ctx context.Context, q ListQuery) ([]Job, error) {
	q.Page = max(q.Page, 1)
	if q.PerPage <= 0 {
		q.PerPage = s.cfg.PageSize
	}

	var (
		jobs []Job
		err  error
	)
	switch s.cfg.Mode {
	case ModeScan:
		jobs, err = s.listScan(ctx, q)
	default:
		jobs, err = s.listPreAggregated(ctx, q)
	}
	if err != nil {
		return nil, err
	}

	if q.Status != "" {
		jobs = slices.DeleteFunc(jobs, func(j Job) bool { return j.Status != q.Status })
	}
	slices.SortStableFunc(jobs, func(a, b Job) int {
		return b.UploadedAt.Compare(a.UploadedAt)
	})
	if len(jobs) > q.PerPage {
		jobs = jobs[:q.PerPage]
	}
	return jobs, nil
}

func (s *Service) listPreAggregated(ctx context.Context, q ListQuery) ([]Job, error) {
	resp, err := s.backend.BulkJobs(ctx, s.cfg.JobsMethod, backend.BulkJobsQuery{
		Page:    q.Page,
		PerPage: q.PerPage,
		Status:  string(q.Status),
	})
	if err != nil {
		return nil, fmt.Errorf("list bulk upload jobs: %w", err)
	}
	return decodeJobs(resp.Jobs), nil
}

func (s *Service) listScan(ctx context.Context, q ListQuery) ([]Job, error) {
	query := backend.CollectionQuery{
		Doctype: JobDoctype,
		Fields:  jobFields,
		OrderBy: "creation desc",
		Limit:   q.PerPage,
	}
	if q.Status != "" {
		query.Filters = map[string]any{"status": string(q.Status)}
	}
	rows, err := s.backend.GetList(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list bulk upload jobs: %w", err)
	}
	jobs := decodeJobs(rows)

	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for i := range jobs {
		g.Go(func() error {
			items, err := s.scanItems(ctx, jobs[i].ID)
			if err != nil {
				slog.Warn("bulk upload item aggregation failed", "job", jobs[i].ID, "err", err)
				jobs[i].setCounts(Counts{})
				return nil
			}
			jobs[i].setCounts(CountItems(items))
			return nil
		})
	}
	_ = g.Wait()
	return jobs, nil
}

func (s *Service) scanItems(ctx context.Context, jobID string) ([]Item, error) {
	rows, err := s.backend.GetList(ctx, backend.CollectionQuery{
		Doctype: ItemDoctype,
		Fields:  itemFields,
		Filters: map[string]any{"parent": jobID},
		Limit:   s.cfg.ItemLimit,
	})
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(rows))
	for _, raw := range rows {
		var dto itemDTO
		if err := json.Unmarshal(raw, &dto); err != nil {
			return nil, fmt.Errorf("%w: item: %v", backend.ErrMalformedResponse, err)
		}
		items = append(items, dto.toItem())
	}
	return items, nil
}

// Get loads one job with its items. Counts reported by the backend win; they
// are derived from the items only when the document carries none.
func (s *Service) Get(ctx context.Context, id string) (JobDetail, error) {
	var dto jobDTO
	if err := s.backend.GetDoc(ctx, JobDoctype, id, &dto); err != nil {
		if backend.IsNotFound(err) {
			return JobDetail{}, ErrJobNotFound
		}
		return JobDetail{}, fmt.Errorf("get bulk upload job %s: %w", id, err)
	}
	job := dto.toJob()
	if job.ID == "" {
		job.ID = id
	}
	items := make([]Item, 0, len(dto.Items))
	for _, it := range dto.Items {
		items = append(items, it.toItem())
	}
	if len(items) > 0 && job.Counts.Verified+job.Counts.Created+job.Counts.Failed+job.Counts.Pending == 0 {
		job.setCounts(CountItems(items))
	}
	return JobDetail{Job: job, Items: items}, nil
}

// Wait polls a job until it reaches a terminal status or timeout elapses,
// returning the latest state either way. Cancelling ctx aborts with its error.
func (s *Service) Wait(ctx context.Context, id string, timeout, interval time.Duration) (JobDetail, error) {
	if interval <= 0 {
		interval = defaultPollEvery
	}
	detail, err := s.Get(ctx, id)
	if err != nil || timeout <= 0 || detail.Job.Status.Terminal() {
		return detail, err
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return detail, ctx.Err()
		case <-deadline.C:
			return detail, nil
		case <-ticker.C:
			next, err := s.Get(ctx, id)
			if err != nil {
				if errors.Is(err, ErrJobNotFound) || ctx.Err() != nil {
					return detail, err
				}
				slog.Warn("bulk upload job poll failed", "job", id, "err", err)
				continue
			}
			detail = next
			if detail.Job.Status.Terminal() {
				return detail, nil
			}
		}
	}
}

func decodeJobs(rows []json.RawMessage) []Job {
	jobs := make([]Job, 0, len(rows))
	for _, raw := range rows {
		var dto jobDTO
		if err := json.Unmarshal(raw, &dto); err != nil {
			slog.Warn("skipping undecodable bulk upload job", "err", err)
			continue
		}
		job := dto.toJob()
		if job.ID == "" {
			slog.Warn("skipping bulk upload job without id")
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs
}
