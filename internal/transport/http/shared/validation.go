package shared

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"hwportal/internal/transport/http/api"
)

type ValidationIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Validator collects query and payload problems so a request is rejected once
// with every issue listed.
type Validator struct {
	issues []ValidationIssue
}

func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) Add(field, reason string) {
	reason = strings.TrimSpace(reason)
	if v == nil || reason == "" {
		return
	}
	v.issues = append(v.issues, ValidationIssue{Field: strings.TrimSpace(field), Reason: reason})
}

func (v *Validator) Required(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, "is required")
	}
}

// MaxLen bounds identifiers forwarded upstream.
func (v *Validator) MaxLen(field, value string, limit int) {
	if utf8.RuneCountInString(value) > limit {
		v.Add(field, fmt.Sprintf("must be at most %d characters", limit))
	}
}

// OneOf returns the allowed spelling of value, matched case-insensitively.
// Empty input is accepted and returns "".
func (v *Validator) OneOf(field, value string, allowed ...string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	for _, candidate := range allowed {
		if strings.EqualFold(value, candidate) {
			return candidate
		}
	}
	v.Add(field, "must be one of "+strings.Join(allowed, ", "))
	return ""
}

// Duration parses an optional duration such as "10s", bounded by limit.
func (v *Validator) Duration(field, raw string, limit time.Duration) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	parsed, err := time.ParseDuration(raw)
	switch {
	case err != nil || parsed < 0:
		v.Add(field, "must be a duration such as 10s")
	case limit > 0 && parsed > limit:
		v.Add(field, "must not exceed "+limit.String())
	default:
		return parsed
	}
	return 0
}

func (v *Validator) HasIssues() bool {
	return v != nil && len(v.issues) > 0
}

// Issues returns a copy ordered by field, then reason.
func (v *Validator) Issues() []ValidationIssue {
	if !v.HasIssues() {
		return nil
	}
	out := slices.Clone(v.issues)
	slices.SortStableFunc(out, func(a, b ValidationIssue) int {
		if c := strings.Compare(a.Field, b.Field); c != 0 {
			return c
		}
		return strings.Compare(a.Reason, b.Reason)
	})
	return out
}

// Reject writes a 400 and reports true when any issue was recorded.
func (v *Validator) Reject(w http.ResponseWriter, requestID string) bool {
	if !v.HasIssues() {
		return false
	}
	FailValidation(w, requestID, v.Issues())
	return true
}

func FailValidation(w http.ResponseWriter, requestID string, issues []ValidationIssue) {
	api.FailWithDetails(w, http.StatusBadRequest, "validation_error", "request validation failed",
		map[string]any{"fields": issues}, requestID)
}
