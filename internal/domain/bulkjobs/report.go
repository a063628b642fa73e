package bulkjobs

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

const reportItemLimit = 500

// RenderReport produces a printable PDF summary of a job and its items.
func RenderReport(detail JobDetail, generatedAt time.Time) ([]byte, error) {
	job := detail.Job

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Bulk upload "+job.ID, true)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Bulk Upload Job "+job.ID)
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	lines := []string{
		"Facility: " + job.FacilityName,
		"Uploaded by: " + job.UploadedBy,
		"Uploaded at: " + formatTime(&job.UploadedAt),
		"Status: " + string(job.Status),
		"Started: " + formatTime(job.StartedAt),
		"Completed: " + formatTime(job.CompletedAt),
	}
	for _, line := range lines {
		pdf.Cell(0, 7, line)
		pdf.Ln(6)
	}
	pdf.Ln(4)

	c := job.Counts
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Progress: %d%%", job.Progress))
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Total %d  Verified %d  Created %d  Failed %d  Pending %d",
		c.TotalRecords, c.Verified, c.Created, c.Failed, c.Pending))
	pdf.Ln(10)

	if len(detail.Items) > 0 {
		widths := []float64{40, 45, 40, 25, 25}
		headers := []string{"Identification", "Designation", "Employment", "Verification", "Onboarding"}
		pdf.SetFont("Helvetica", "B", 9)
		for i, h := range headers {
			pdf.CellFormat(widths[i], 7, h, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
		for i, item := range detail.Items {
			if i == reportItemLimit {
				pdf.Ln(2)
				pdf.Cell(0, 6, fmt.Sprintf("%d more items not shown", len(detail.Items)-reportItemLimit))
				break
			}
			row := []string{
				item.IdentificationType + " " + item.IdentificationNumber,
				item.Designation,
				item.EmploymentType,
				item.VerificationStatus,
				item.OnboardingStatus,
			}
			for j, v := range row {
				pdf.CellFormat(widths[j], 6, v, "1", 0, "L", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.Cell(0, 6, "Generated "+generatedAt.UTC().Format(time.RFC3339))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render job report: %w", err)
	}
	return buf.Bytes(), nil
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04")
}
