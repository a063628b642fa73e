package bulkjobs

import (
	"strings"
	"time"

	"hwportal/internal/platform/backend"
)

const (
	JobDoctype  = "Health Worker Bulk Upload"
	ItemDoctype = "Health Worker Bulk Upload Item"
)

type Status string

const (
	StatusQueued     Status = "Queued"
	StatusProcessing Status = "Processing"
	StatusCompleted  Status = "Completed"
	StatusFailed     Status = "Failed"
)

// ParseStatus matches case-insensitively; unknown values are kept verbatim.
func ParseStatus(raw string) Status {
	raw = strings.TrimSpace(raw)
	for _, s := range []Status{StatusQueued, StatusProcessing, StatusCompleted, StatusFailed} {
		if strings.EqualFold(raw, string(s)) {
			return s
		}
	}
	return Status(raw)
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

const (
	VerificationPending  = "Pending"
	VerificationVerified = "Verified"
	VerificationFailed   = "Failed"

	OnboardingPending = "Pending"
	OnboardingSuccess = "Success"
	OnboardingFailed  = "Failed"
)

type Counts struct {
	TotalRecords int `json:"total_records"`
	Verified     int `json:"verified"`
	Created      int `json:"created"`
	Failed       int `json:"failed"`
	Pending      int `json:"pending"`
}

// Normalize clamps negative counts and bounds pending by the items whose
// onboarding has not finished. TotalRecords is the item count, or the
// backend's figure, and is never rewritten.
func (c Counts) Normalize() Counts {
	c.TotalRecords = max(c.TotalRecords, 0)
	c.Verified = max(c.Verified, 0)
	c.Created = max(c.Created, 0)
	c.Failed = max(c.Failed, 0)
	c.Pending = min(max(c.Pending, 0), max(c.TotalRecords-c.Created-c.Failed, 0))
	return c
}

type Job struct {
	ID           string     `json:"id"`
	FacilityID   string     `json:"facilityId"`
	FacilityName string     `json:"facilityName"`
	UploadedBy   string     `json:"uploadedBy"`
	UploadedAt   time.Time  `json:"uploadedAt"`
	Status       Status     `json:"status"`
	StartedAt    *time.Time `json:"startedAt,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	Counts       Counts     `json:"counts"`
	Progress     int        `json:"progress"`
}

type Item struct {
	ID                   string `json:"id"`
	IdentificationType   string `json:"identificationType"`
	IdentificationNumber string `json:"identificationNumber"`
	RegistrationNumber   string `json:"registrationNumber,omitempty"`
	Regulator            string `json:"regulator,omitempty"`
	EmploymentType       string `json:"employmentType"`
	Designation          string `json:"designation"`
	StartDate            string `json:"startDate"`
	EndDate              string `json:"endDate,omitempty"`
	VerificationStatus   string `json:"verificationStatus"`
	OnboardingStatus     string `json:"onboardingStatus"`
	ErrorMessage         string `json:"errorMessage,omitempty"`
}

type JobDetail struct {
	Job   Job    `json:"job"`
	Items []Item `json:"items"`
}

// jobDTO is the upstream shape of a job. Both the resource document and the
// pre-aggregated listing use it; absent fields decode to zero values.
type jobDTO struct {
	Name         string       `json:"name"`
	ID           string       `json:"id"`
	JobID        string       `json:"job_id"`
	Facility     string       `json:"facility"`
	FacilityID   string       `json:"facility_id"`
	FacilityName string       `json:"facility_name"`
	UploadedBy   string       `json:"uploaded_by"`
	Owner        string       `json:"owner"`
	UploadDate   backend.Time `json:"upload_date"`
	Creation     backend.Time `json:"creation"`
	Status       string       `json:"status"`
	StartedAt    backend.Time `json:"started_at"`
	CompletedAt  backend.Time `json:"completed_at"`
	TotalRecords backend.Int  `json:"total_records"`
	Verified     backend.Int  `json:"verified"`
	Created      backend.Int  `json:"created"`
	Failed       backend.Int  `json:"failed"`
	Pending      backend.Int  `json:"pending"`
	Items        []itemDTO    `json:"items"`
}

func (d jobDTO) toJob() Job {
	job := Job{
		ID:           firstNonEmpty(d.Name, d.JobID, d.ID),
		FacilityID:   firstNonEmpty(d.Facility, d.FacilityID),
		FacilityName: d.FacilityName,
		UploadedBy:   firstNonEmpty(d.UploadedBy, d.Owner),
		UploadedAt:   d.UploadDate.Time,
		Status:       ParseStatus(d.Status),
		StartedAt:    optionalTime(d.StartedAt),
		CompletedAt:  optionalTime(d.CompletedAt),
		Counts: Counts{
			TotalRecords: int(d.TotalRecords),
			Verified:     int(d.Verified),
			Created:      int(d.Created),
			Failed:       int(d.Failed),
			Pending:      int(d.Pending),
		},
	}
	if job.UploadedAt.IsZero() {
		job.UploadedAt = d.Creation.Time
	}
	if job.Status == "" {
		job.Status = StatusQueued
	}
	if job.FacilityName == "" {
		job.FacilityName = job.FacilityID
	}
	job.setCounts(job.Counts)
	return job
}

func (j *Job) setCounts(c Counts) {
	j.Counts = c.Normalize()
	j.Progress = Progress(j.Counts.TotalRecords, j.Counts.Pending)
}

type itemDTO struct {
	Name                 string `json:"name"`
	IdentificationType   string `json:"identification_type"`
	IdentificationNumber string `json:"identification_number"`
	RegistrationNumber   string `json:"registration_number"`
	Regulator            string `json:"regulator"`
	EmploymentType       string `json:"employment_type"`
	Designation          string `json:"designation"`
	StartDate            string `json:"start_date"`
	EndDate              string `json:"end_date"`
	VerificationStatus   string `json:"verification_status"`
	OnboardingStatus     string `json:"onboarding_status"`
	ErrorMessage         string `json:"error_message"`
}

func (d itemDTO) toItem() Item {
	item := Item{
		ID:                   d.Name,
		IdentificationType:   d.IdentificationType,
		IdentificationNumber: d.IdentificationNumber,
		RegistrationNumber:   d.RegistrationNumber,
		Regulator:            d.Regulator,
		EmploymentType:       d.EmploymentType,
		Designation:          d.Designation,
		StartDate:            d.StartDate,
		EndDate:              d.EndDate,
		VerificationStatus:   d.VerificationStatus,
		OnboardingStatus:     d.OnboardingStatus,
		ErrorMessage:         d.ErrorMessage,
	}
	if item.VerificationStatus == "" {
		item.VerificationStatus = VerificationPending
	}
	if item.OnboardingStatus == "" {
		item.OnboardingStatus = OnboardingPending
	}
	return item
}

var (
	jobFields = []string{
		"name", "facility", "facility_name", "uploaded_by", "upload_date", "creation",
		"status", "started_at", "completed_at", "total_records",
	}
	itemFields = []string{"name", "verification_status", "onboarding_status"}
)

func optionalTime(t backend.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
