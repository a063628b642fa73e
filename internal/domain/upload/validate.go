package upload

import (
	"fmt"
	"io"
	"strings"
)

// Result is the outcome of validating one file: either every record, or no
// records and at most MaxReportedErrors messages.
type Result struct {
	Records     []Record `json:"records"`
	Errors      []string `json:"errors"`
	Issues      []Issue  `json:"issues"`
	TotalIssues int      `json:"totalIssues"`
}

func (r Result) Valid() bool {
	return r.TotalIssues == 0 && len(r.Records) > 0
}

func (r Result) Err() error {
	if r.TotalIssues == 0 {
		return nil
	}
	return &ValidationError{Issues: r.Issues, Total: r.TotalIssues}
}

// Validate applies the upload rules in order: empty file, record cap, required
// columns, then required fields per row. One failing row rejects the file.
func Validate(table Table) Result {
	var c issueCollector

	if len(table.Rows) == 0 {
		c.add(Issue{Kind: KindEmptyFile, Message: "The uploaded file contains no records"})
		return c.result()
	}

	if len(table.Rows) > MaxRecords {
		c.add(Issue{
			Kind:    KindTooManyRecords,
			Message: fmt.Sprintf("The file contains %d records; a maximum of %d is allowed per upload", len(table.Rows), MaxRecords),
		})
	}

	var missing []string
	for _, column := range RequiredColumns {
		if !table.HasColumn(column) {
			missing = append(missing, column)
		}
	}
	if len(missing) > 0 {
		c.add(Issue{
			Kind:    KindMissingColumns,
			Message: "Missing required columns: " + strings.Join(missing, ", "),
		})
	}

	for _, row := range table.Rows {
		for _, column := range RequiredColumns {
			if !table.HasColumn(column) {
				continue
			}
			if row.Get(column) == "" {
				c.add(Issue{
					Kind:    KindMissingField,
					Row:     row.Line,
					Field:   column,
					Message: fmt.Sprintf("Row %d: missing required field %q", row.Line, column),
				})
			}
		}
	}

	if c.total > 0 {
		return c.result()
	}

	records := make([]Record, 0, len(table.Rows))
	for _, row := range table.Rows {
		records = append(records, recordFromRow(row))
	}
	return Result{Records: records, Errors: []string{}, Issues: []Issue{}}
}

// ParseAndValidate is the single entry point used by the wizard. Parse
// failures are returned as errors; rule violations live in the Result.
func ParseAndValidate(name string, r io.Reader) (Result, error) {
	table, err := ParseFile(name, r)
	if err != nil {
		return Result{}, err
	}
	return Validate(table), nil
}

type issueCollector struct {
	issues []Issue
	total  int
}

func (c *issueCollector) add(issue Issue) {
	c.total++
	if len(c.issues) < MaxReportedErrors {
		c.issues = append(c.issues, issue)
	}
}

func (c *issueCollector) result() Result {
	msgs := make([]string, 0, len(c.issues))
	for _, issue := range c.issues {
		msgs = append(msgs, issue.Message)
	}
	return Result{
		Records:     []Record{},
		Errors:      msgs,
		Issues:      c.issues,
		TotalIssues: c.total,
	}
}
