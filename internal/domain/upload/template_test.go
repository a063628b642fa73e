package upload

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestTemplateRoundTrip(t *testing.T) {
	now := time.Date(2025, time.March, 14, 9, 0, 0, 0, time.UTC)
	name, body, err := Template(now)
	if err != nil {
		t.Fatalf("template failed: %v", err)
	}
	if name != "affiliation_template_2025-03-14.csv" {
		t.Fatalf("unexpected filename %q", name)
	}
	firstLine, _, _ := strings.Cut(string(body), "\n")
	if firstLine != strings.Join(TemplateColumns, ",") {
		t.Fatalf("unexpected header %q", firstLine)
	}

	result, err := ParseAndValidate(name, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !result.Valid() || len(result.Records) != 1 {
		t.Fatalf("expected exactly one valid record, got %+v", result)
	}
	want := Record{
		IdentificationType:   "National ID",
		IdentificationNumber: "12345678",
		EmploymentType:       "Full-time Employee",
		Designation:          "Nurse",
		StartDate:            "2025-03-01",
		EndDate:              "2026-03-01",
	}
	if result.Records[0] != want {
		t.Fatalf("unexpected record %+v", result.Records[0])
	}
}
