package backend

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// ListRequest is the payload accepted by the per-module list endpoints.
// The free-text term is sent under SearchParam (e.g. "professional_name").
type ListRequest struct {
	Page        int
	PageSize    int
	Status      string
	Facilities  []string
	Search      string
	SearchParam string
	DateFrom    string
	DateTo      string
}

func (r ListRequest) MarshalJSON() ([]byte, error) {
	payload := map[string]any{
		"page":     r.Page,
		"pageSize": r.PageSize,
	}
	if r.Status != "" {
		payload["status"] = r.Status
	}
	if len(r.Facilities) > 0 {
		payload["facilities"] = r.Facilities
	}
	if r.Search != "" {
		key := r.SearchParam
		if key == "" {
			key = "search"
		}
		payload[key] = r.Search
	}
	if r.DateFrom != "" {
		payload["dateFrom"] = r.DateFrom
	}
	if r.DateTo != "" {
		payload["dateTo"] = r.DateTo
	}
	return json.Marshal(payload)
}

type ListResponse struct {
	Items            []json.RawMessage
	TotalCount       int
	StatusAggregates json.RawMessage
}

type listEnvelope struct {
	Success *bool           `json:"success"`
	Message json.RawMessage `json:"message"`
	Error   json.RawMessage `json:"error"`
	Data    *struct {
		Items            []json.RawMessage `json:"items"`
		TotalCount       Int               `json:"total_count"`
		StatusAggregates json.RawMessage   `json:"status_aggregates"`
	} `json:"data"`
}

// CollectionQuery targets the generic resource listing endpoint.
type CollectionQuery struct {
	Doctype string
	Fields  []string
	Filters map[string]any
	OrderBy string
	Limit   int
}

type BulkJobsQuery struct {
	Page    int
	PerPage int
	Status  string
}

type BulkJobsResponse struct {
	Jobs    []json.RawMessage
	Message string
}

// Int decodes numbers that may arrive as JSON numbers, numeric strings or null.
type Int int

func (i *Int) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*i = 0
		return nil
	}
	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*i = 0
			return nil
		}
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			*i = 0
			return nil
		}
		*i = Int(parsed)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*i = Int(f)
	return nil
}

// Float decodes currency and percentage values with the same leniency as Int.
type Float float64

func (f *Float) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = Float(parsed)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Time decodes backend timestamps. Unparseable or empty values decode to the
// zero time rather than failing the whole payload.
type Time struct {
	time.Time
}

func (t *Time) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		t.Time = time.Time{}
		return nil
	}
	t.Time = ParseTime(*raw)
	return nil
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339))
}

func ParseTime(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
