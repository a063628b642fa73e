package upload

import (
	"context"
	"io"
	"slices"
	"strings"
	"sync"
	"time"
)

type Step int

const (
	StepUpload Step = 0
	StepReview Step = 1
)

type State string

const (
	StateUploading State = "uploading"
	StateReviewing State = "reviewing"
	StateSubmitted State = "submitted"
)

// Submitter creates the backend job for a reviewed upload.
type Submitter interface {
	Submit(ctx context.Context, facilityID string, records []Record, uploadedBy string) (string, error)
}

// Session is one run of the two-step upload wizard.
type Session struct {
	mu sync.Mutex

	id         string
	owner      string
	step       Step
	submitted  bool
	submitting bool
	facilityID string
	fileName   string
	result     Result
	jobID      string
	lastError  string
	createdAt  time.Time
	updatedAt  time.Time
	now        func() time.Time
}

type View struct {
	ID          string    `json:"id"`
	Step        Step      `json:"step"`
	State       State     `json:"state"`
	FacilityID  *string   `json:"facilityId"`
	FileName    string    `json:"fileName,omitempty"`
	RecordCount int       `json:"recordCount"`
	Records     []Record  `json:"records"`
	Errors      []string  `json:"errors"`
	Issues      []Issue   `json:"issues"`
	TotalIssues int       `json:"totalIssues"`
	Submitting  bool      `json:"submitting"`
	CanProceed  bool      `json:"canProceed"`
	CanSubmit   bool      `json:"canSubmit"`
	JobID       string    `json:"jobId,omitempty"`
	LastError   string    `json:"lastError,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func newSession(id, owner string, now func() time.Time) *Session {
	ts := now()
	return &Session{
		id:        id,
		owner:     owner,
		step:      StepUpload,
		result:    Result{Records: []Record{}, Errors: []string{}, Issues: []Issue{}},
		createdAt: ts,
		updatedAt: ts,
		now:       now,
	}
}

func (s *Session) ID() string {
	return s.id
}

// Load parses and validates a file, replacing whatever the session held.
// An invalid file leaves the session with no records.
func (s *Session) Load(name string, r io.Reader) error {
	s.mu.Lock()
	if err := s.checkStepLocked(StepUpload); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	result, parseErr := ParseAndValidate(name, r)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkStepLocked(StepUpload); err != nil {
		return err
	}
	s.fileName = name
	s.lastError = ""
	s.touchLocked()
	if parseErr != nil {
		s.result = Result{
			Records:     []Record{},
			Errors:      []string{parseErr.Error()},
			Issues:      []Issue{},
			TotalIssues: 1,
		}
		return parseErr
	}
	s.result = result
	return result.Err()
}

// SelectFacility sets the target facility; an empty id clears it.
func (s *Session) SelectFacility(facilityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitted {
		return ErrAlreadySubmitted
	}
	s.facilityID = strings.TrimSpace(facilityID)
	s.touchLocked()
	return nil
}

// Next moves from upload to review once a file has passed validation.
func (s *Session) Next() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkStepLocked(StepUpload); err != nil {
		return err
	}
	if len(s.result.Records) == 0 {
		return ErrNoRecords
	}
	s.step = StepReview
	s.touchLocked()
	return nil
}

// Previous steps back from review, keeping records and facility. At the first
// step it returns ErrExitSession: the caller should discard the session.
func (s *Session) Previous() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitted {
		return ErrAlreadySubmitted
	}
	if s.submitting {
		return ErrSubmitInProgress
	}
	if s.step == StepUpload {
		return ErrExitSession
	}
	s.step--
	s.touchLocked()
	return nil
}

// Submit hands the reviewed records to sub. On failure the session stays in
// review with the error recorded so the user can retry.
func (s *Session) Submit(ctx context.Context, sub Submitter, uploadedBy string) (string, error) {
	s.mu.Lock()
	if err := s.checkStepLocked(StepReview); err != nil {
		s.mu.Unlock()
		return "", err
	}
	if s.facilityID == "" {
		s.mu.Unlock()
		return "", ErrNoFacility
	}
	if len(s.result.Records) == 0 {
		s.mu.Unlock()
		return "", ErrNoRecords
	}
	s.submitting = true
	s.lastError = ""
	facilityID := s.facilityID
	records := slices.Clone(s.result.Records)
	s.mu.Unlock()

	jobID, err := sub.Submit(ctx, facilityID, records, uploadedBy)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
	s.touchLocked()
	if err != nil {
		s.lastError = err.Error()
		return "", err
	}
	s.submitted = true
	s.jobID = jobID
	return jobID, nil
}

func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := View{
		ID:          s.id,
		Step:        s.step,
		State:       s.stateLocked(),
		FileName:    s.fileName,
		RecordCount: len(s.result.Records),
		Records:     slices.Clone(s.result.Records),
		Errors:      slices.Clone(s.result.Errors),
		Issues:      slices.Clone(s.result.Issues),
		TotalIssues: s.result.TotalIssues,
		Submitting:  s.submitting,
		JobID:       s.jobID,
		LastError:   s.lastError,
		CreatedAt:   s.createdAt,
		UpdatedAt:   s.updatedAt,
	}
	if s.facilityID != "" {
		facility := s.facilityID
		view.FacilityID = &facility
	}
	view.CanProceed = !s.submitted && s.step == StepUpload && len(s.result.Records) > 0
	view.CanSubmit = !s.submitted && !s.submitting && s.step == StepReview && s.facilityID != "" && len(s.result.Records) > 0
	return view
}

func (s *Session) stateLocked() State {
	switch {
	case s.submitted:
		return StateSubmitted
	case s.step == StepReview:
		return StateReviewing
	default:
		return StateUploading
	}
}

func (s *Session) checkStepLocked(want Step) error {
	if s.submitted {
		return ErrAlreadySubmitted
	}
	if s.submitting {
		return ErrSubmitInProgress
	}
	if s.step != want {
		return ErrWrongStep
	}
	return nil
}

func (s *Session) touchLocked() {
	s.updatedAt = s.now()
}

func (s *Session) idle(now time.Time, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.submitting && now.Sub(s.updatedAt) > ttl
}
