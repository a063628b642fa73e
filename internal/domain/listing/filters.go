package listing

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 500
	dateLayout      = "2006-01-02"
)

var ErrInvalidFilter = errors.New("invalid filter")

// Filters is the query state of one list view.
type Filters struct {
	Page       int      `json:"page"`
	PageSize   int      `json:"pageSize"`
	Status     string   `json:"status"`
	Search     string   `json:"search"`
	DateFrom   string   `json:"dateFrom"`
	DateTo     string   `json:"dateTo"`
	Facilities []string `json:"facilities"`
}

func DefaultFilters() Filters {
	return Filters{Page: 1, PageSize: DefaultPageSize, Facilities: []string{}}
}

// Patch is a partial update; nil fields are left unchanged.
type Patch struct {
	Page       *int      `json:"page,omitempty"`
	PageSize   *int      `json:"pageSize,omitempty"`
	Status     *string   `json:"status,omitempty"`
	Search     *string   `json:"search,omitempty"`
	DateFrom   *string   `json:"dateFrom,omitempty"`
	DateTo     *string   `json:"dateTo,omitempty"`
	Facilities *[]string `json:"facilities,omitempty"`
}

// Apply merges p into f. Page goes back to 1 unless p sets it.
func (f Filters) Apply(p Patch) Filters {
	out := f.clone()
	if p.PageSize != nil {
		out.PageSize = *p.PageSize
	}
	if p.Status != nil {
		out.Status = strings.TrimSpace(*p.Status)
	}
	if p.Search != nil {
		out.Search = strings.TrimSpace(*p.Search)
	}
	if p.DateFrom != nil {
		out.DateFrom = strings.TrimSpace(*p.DateFrom)
	}
	if p.DateTo != nil {
		out.DateTo = strings.TrimSpace(*p.DateTo)
	}
	if p.Facilities != nil {
		out.Facilities = cleanIDs(*p.Facilities)
	}
	if p.Page != nil {
		out.Page = *p.Page
	} else {
		out.Page = 1
	}
	return out
}

// Validate checks the fields a patch sets.
func (p Patch) Validate() error {
	if p.Page != nil && *p.Page < 1 {
		return fmt.Errorf("%w: page must be at least 1", ErrInvalidFilter)
	}
	if p.PageSize != nil && (*p.PageSize < 1 || *p.PageSize > MaxPageSize) {
		return fmt.Errorf("%w: pageSize must be between 1 and %d", ErrInvalidFilter, MaxPageSize)
	}
	var from, to time.Time
	var err error
	if p.DateFrom != nil && strings.TrimSpace(*p.DateFrom) != "" {
		if from, err = time.Parse(dateLayout, strings.TrimSpace(*p.DateFrom)); err != nil {
			return fmt.Errorf("%w: dateFrom must be YYYY-MM-DD", ErrInvalidFilter)
		}
	}
	if p.DateTo != nil && strings.TrimSpace(*p.DateTo) != "" {
		if to, err = time.Parse(dateLayout, strings.TrimSpace(*p.DateTo)); err != nil {
			return fmt.Errorf("%w: dateTo must be YYYY-MM-DD", ErrInvalidFilter)
		}
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return fmt.Errorf("%w: dateTo is before dateFrom", ErrInvalidFilter)
	}
	return nil
}

func (f Filters) clone() Filters {
	out := f
	out.Facilities = slices.Clone(f.Facilities)
	if out.Facilities == nil {
		out.Facilities = []string{}
	}
	return out
}

// normalize repairs values loaded from storage.
func (f Filters) normalize() Filters {
	out := f.clone()
	if out.Page < 1 {
		out.Page = 1
	}
	if out.PageSize < 1 || out.PageSize > MaxPageSize {
		out.PageSize = DefaultPageSize
	}
	return out
}

func cleanIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
