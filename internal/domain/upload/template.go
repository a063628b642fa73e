package upload

import (
	"bytes"
	"encoding/csv"
	"time"
)

var templateExample = Record{
	IdentificationType:   "National ID",
	IdentificationNumber: "12345678",
	EmploymentType:       "Full-time Employee",
	Designation:          "Nurse",
	StartDate:            "2025-03-01",
	EndDate:              "2026-03-01",
}

func TemplateFilename(now time.Time) string {
	return "affiliation_template_" + now.Format("2006-01-02") + ".csv"
}

// Template renders the downloadable CSV: the full header plus one example row.
func Template(now time.Time) (string, []byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(TemplateColumns); err != nil {
		return "", nil, err
	}
	example := templateExample
	if err := w.Write([]string{
		example.IdentificationType,
		example.IdentificationNumber,
		example.RegistrationNumber,
		example.Regulator,
		example.EmploymentType,
		example.Designation,
		example.StartDate,
		example.EndDate,
	}); err != nil {
		return "", nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", nil, err
	}
	return TemplateFilename(now), buf.Bytes(), nil
}
