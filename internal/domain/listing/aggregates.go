package listing

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"hwportal/internal/platform/backend"
)

// StatusAggregate summarizes a list by status. PageLocal marks counts taken
// from the current page only because the backend sent none.
type StatusAggregate struct {
	Total            int     `json:"total"`
	Pending          int     `json:"pending"`
	Confirmed        int     `json:"confirmed"`
	Active           int     `json:"active"`
	Rejected         int     `json:"rejected"`
	Expired          int     `json:"expired"`
	Inactive         int     `json:"inactive"`
	ConfirmationRate float64 `json:"confirmationRate"`
	RejectionRate    float64 `json:"rejectionRate"`
	PageLocal        bool    `json:"pageLocal"`
}

type aggregateDTO struct {
	Total            backend.Int   `json:"total"`
	Pending          backend.Int   `json:"pending"`
	Confirmed        backend.Int   `json:"confirmed"`
	Active           backend.Int   `json:"active"`
	Rejected         backend.Int   `json:"rejected"`
	Expired          backend.Int   `json:"expired"`
	Inactive         backend.Int   `json:"inactive"`
	ConfirmationRate backend.Float `json:"confirmation_rate"`
	RejectionRate    backend.Float `json:"rejection_rate"`
}

// DecodeAggregate returns nil when the backend sent no usable aggregate.
func DecodeAggregate(raw json.RawMessage) *StatusAggregate {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	var dto aggregateDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return nil
	}
	return &StatusAggregate{
		Total:            int(dto.Total),
		Pending:          int(dto.Pending),
		Confirmed:        int(dto.Confirmed),
		Active:           int(dto.Active),
		Rejected:         int(dto.Rejected),
		Expired:          int(dto.Expired),
		Inactive:         int(dto.Inactive),
		ConfirmationRate: clampRate(float64(dto.ConfirmationRate)),
		RejectionRate:    clampRate(float64(dto.RejectionRate)),
	}
}

// CountPageStatuses counts the given row statuses. The result covers one page
// only and is flagged as such.
func CountPageStatuses(statuses []string) StatusAggregate {
	agg := StatusAggregate{Total: len(statuses), PageLocal: true}
	for _, status := range statuses {
		switch strings.ToLower(strings.TrimSpace(status)) {
		case "pending":
			agg.Pending++
		case "confirmed":
			agg.Confirmed++
		case "active":
			agg.Active++
		case "rejected":
			agg.Rejected++
		case "expired":
			agg.Expired++
		case "inactive":
			agg.Inactive++
		}
	}
	if agg.Total > 0 {
		agg.ConfirmationRate = rate(agg.Confirmed, agg.Total)
		agg.RejectionRate = rate(agg.Rejected, agg.Total)
	}
	return agg
}

func rate(n, total int) float64 {
	return clampRate(math.Round(1000*float64(n)/float64(total)) / 10)
}

func clampRate(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return min(max(v, 0), 100)
}
