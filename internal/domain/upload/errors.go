package upload

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSessionNotFound  = errors.New("upload session not found")
	ErrNoRecords        = errors.New("no validated records to continue with")
	ErrNoFacility       = errors.New("a facility must be selected before submitting")
	ErrWrongStep        = errors.New("action not allowed at the current step")
	ErrSubmitInProgress = errors.New("submission already in progress")
	ErrAlreadySubmitted = errors.New("upload session already submitted")
	ErrExitSession      = errors.New("leaving the upload wizard")
	ErrUnsupportedFile  = errors.New("unsupported file type")
)

// ParseError reports a file that could not be read as tabular data.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("unable to parse file at line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("unable to parse file: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

type IssueKind string

const (
	KindEmptyFile      IssueKind = "EmptyFile"
	KindTooManyRecords IssueKind = "TooManyRecords"
	KindMissingColumns IssueKind = "MissingColumns"
	KindMissingField   IssueKind = "MissingField"
)

type Issue struct {
	Kind    IssueKind `json:"kind"`
	Row     int       `json:"row,omitempty"`
	Field   string    `json:"field,omitempty"`
	Message string    `json:"message"`
}

// ValidationError carries the retained issues plus the total found.
type ValidationError struct {
	Issues []Issue
	Total  int
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "file failed validation"
	}
	msgs := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		msgs = append(msgs, issue.Message)
	}
	suffix := ""
	if e.Total > len(e.Issues) {
		suffix = fmt.Sprintf(" (and %d more)", e.Total-len(e.Issues))
	}
	return "file failed validation: " + strings.Join(msgs, "; ") + suffix
}

// Has reports whether an issue of the given kind was retained.
func (e *ValidationError) Has(kind IssueKind) bool {
	for _, issue := range e.Issues {
		if issue.Kind == kind {
			return true
		}
	}
	return false
}
