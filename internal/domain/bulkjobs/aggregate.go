package bulkjobs

import "math"

// CountItems derives a job's counts from its child items. Verification and
// onboarding are independent, so an item can be both verified and created.
// Pending is every item whose onboarding has not finished.
func CountItems(items []Item) Counts {
	c := Counts{TotalRecords: len(items)}
	for _, item := range items {
		if item.VerificationStatus == VerificationVerified {
			c.Verified++
		}
		switch item.OnboardingStatus {
		case OnboardingSuccess:
			c.Created++
		case OnboardingFailed:
			c.Failed++
		}
	}
	c.Pending = c.TotalRecords - c.Created - c.Failed
	return c.Normalize()
}

// Progress is the settled share of a job as a whole percentage.
func Progress(total, pending int) int {
	if total <= 0 {
		return 0
	}
	pending = min(max(pending, 0), total)
	return int(math.Round(100 * float64(total-pending) / float64(total)))
}
