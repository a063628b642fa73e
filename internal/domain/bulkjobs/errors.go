package bulkjobs

import (
	"errors"
)

var (
	ErrJobNotFound     = errors.New("bulk upload job not found")
	ErrNothingToSubmit = errors.New("no records to submit")
)

const genericSubmissionMessage = "failed to create bulk upload job"

// SubmissionError reports a job that could not be created. Message is the
// server-provided text when there was one.
type SubmissionError struct {
	Message string
	Err     error
}

func (e *SubmissionError) Error() string {
	return e.Message
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}
