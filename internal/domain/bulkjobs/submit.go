package bulkjobs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"hwportal/internal/domain/upload"
	"hwportal/internal/platform/backend"
)

// Inserter creates a document upstream and returns its name.
type Inserter interface {
	Insert(ctx context.Context, doc map[string]any) (string, error)
}

// Submitter turns a reviewed upload into a backend job. It never retries:
// each successful call creates exactly one job.
type Submitter struct {
	backend Inserter
}

func NewSubmitter(b Inserter) *Submitter {
	return &Submitter{backend: b}
}

func (s *Submitter) Submit(ctx context.Context, facilityID string, records []upload.Record, uploadedBy string) (string, error) {
	facilityID = strings.TrimSpace(facilityID)
	if facilityID == "" {
		return "", &SubmissionError{Message: upload.ErrNoFacility.Error(), Err: upload.ErrNoFacility}
	}
	if len(records) == 0 {
		return "", &SubmissionError{Message: ErrNothingToSubmit.Error(), Err: ErrNothingToSubmit}
	}

	jobID, err := s.backend.Insert(ctx, buildJobDoc(facilityID, records, uploadedBy))
	if err != nil {
		msg := backend.ServerMessage(err)
		if msg == "" {
			msg = genericSubmissionMessage
		}
		slog.Warn("bulk upload job creation failed", "facility", facilityID, "records", len(records), "err", err)
		return "", &SubmissionError{Message: msg, Err: err}
	}
	if strings.TrimSpace(jobID) == "" {
		return "", &SubmissionError{Message: genericSubmissionMessage, Err: fmt.Errorf("%w: empty job id", backend.ErrMalformedResponse)}
	}
	slog.Info("bulk upload job created", "job", jobID, "facility", facilityID, "records", len(records))
	return jobID, nil
}

func buildJobDoc(facilityID string, records []upload.Record, uploadedBy string) map[string]any {
	items := make([]map[string]any, 0, len(records))
	for _, r := range records {
		items = append(items, map[string]any{
			"doctype":               ItemDoctype,
			"identification_type":   r.IdentificationType,
			"identification_number": r.IdentificationNumber,
			"registration_number":   r.RegistrationNumber,
			"regulator":             r.Regulator,
			"employment_type":       r.EmploymentType,
			"designation":           r.Designation,
			"start_date":            r.StartDate,
			"end_date":              r.EndDate,
			"verification_status":   VerificationPending,
			"onboarding_status":     OnboardingPending,
		})
	}
	return map[string]any{
		"doctype":       JobDoctype,
		"facility":      facilityID,
		"uploaded_by":   uploadedBy,
		"status":        string(StatusQueued),
		"total_records": len(records),
		"items":         items,
	}
}
