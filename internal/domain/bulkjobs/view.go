package bulkjobs

import (
	"cmp"
	"slices"
	"strings"
)

type SortField string

const (
	SortUploadedAt SortField = "uploaded_at"
	SortID         SortField = "id"
	SortFacility   SortField = "facility"
	SortUploadedBy SortField = "uploaded_by"
	SortStatus     SortField = "status"
	SortTotal      SortField = "total_records"
	SortProgress   SortField = "progress"
)

// View holds the table-level filters applied to an already fetched page.
type View struct {
	Search string
	Status Status
	SortBy SortField
	Desc   bool
}

// ApplyView filters and sorts jobs without touching the input slice.
func ApplyView(jobs []Job, v View) []Job {
	term := strings.ToLower(strings.TrimSpace(v.Search))
	out := make([]Job, 0, len(jobs))
	for _, job := range jobs {
		if v.Status != "" && !strings.EqualFold(string(job.Status), string(v.Status)) {
			continue
		}
		if term != "" && !matchesSearch(job, term) {
			continue
		}
		out = append(out, job)
	}
	if v.SortBy == "" {
		return out
	}
	slices.SortStableFunc(out, func(a, b Job) int {
		c := compareJobs(a, b, v.SortBy)
		if v.Desc {
			return -c
		}
		return c
	})
	return out
}

func matchesSearch(job Job, term string) bool {
	for _, field := range []string{job.ID, job.FacilityName, job.FacilityID, job.UploadedBy} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

func compareJobs(a, b Job, field SortField) int {
	switch field {
	case SortID:
		return cmp.Compare(a.ID, b.ID)
	case SortFacility:
		return cmp.Compare(a.FacilityName, b.FacilityName)
	case SortUploadedBy:
		return cmp.Compare(a.UploadedBy, b.UploadedBy)
	case SortStatus:
		return cmp.Compare(a.Status, b.Status)
	case SortTotal:
		return cmp.Compare(a.Counts.TotalRecords, b.Counts.TotalRecords)
	case SortProgress:
		return cmp.Compare(a.Progress, b.Progress)
	default:
		return a.UploadedAt.Compare(b.UploadedAt)
	}
}
