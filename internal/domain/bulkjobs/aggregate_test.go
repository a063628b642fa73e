package bulkjobs

import "testing"

func TestProgress(t *testing.T) {
	cases := []struct {
		total, pending, want int
	}{
		{100, 25, 75},
		{0, 0, 0},
		{0, 5, 0},
		{3, 1, 67},
		{10, 0, 100},
		{10, 15, 0},
	}
	for _, tc := range cases {
		if got := Progress(tc.total, tc.pending); got != tc.want {
			t.Fatalf("Progress(%d, %d) = %d, want %d", tc.total, tc.pending, got, tc.want)
		}
	}
}

func TestCountItems(t *testing.T) {
	items := []Item{
		{VerificationStatus: VerificationVerified, OnboardingStatus: OnboardingPending},
		{VerificationStatus: VerificationPending, OnboardingStatus: OnboardingSuccess},
		{VerificationStatus: VerificationFailed, OnboardingStatus: OnboardingFailed},
		{VerificationStatus: VerificationPending, OnboardingStatus: OnboardingPending},
	}
	got := CountItems(items)
	want := Counts{TotalRecords: 4, Verified: 1, Created: 1, Failed: 1, Pending: 2}
	if got != want {
		t.Fatalf("unexpected counts %+v", got)
	}
	if empty := CountItems(nil); empty != (Counts{}) {
		t.Fatalf("expected zero counts, got %+v", empty)
	}
}

func TestCountItemsVerifiedAndOnboardedCountOnce(t *testing.T) {
	items := []Item{
		{VerificationStatus: VerificationVerified, OnboardingStatus: OnboardingSuccess},
		{VerificationStatus: VerificationVerified, OnboardingStatus: OnboardingPending},
	}
	got := CountItems(items)
	want := Counts{TotalRecords: 2, Verified: 2, Created: 1, Pending: 1}
	if got != want {
		t.Fatalf("unexpected counts %+v", got)
	}
	if p := Progress(got.TotalRecords, got.Pending); p != 50 {
		t.Fatalf("expected progress 50 while one item awaits onboarding, got %d", p)
	}
}

func TestCountsNormalizeKeepsTotal(t *testing.T) {
	c := Counts{TotalRecords: 10, Verified: 4, Created: 3, Failed: 1, Pending: 9}.Normalize()
	if c.TotalRecords != 10 || c.Pending != 6 {
		t.Fatalf("expected total kept and pending trimmed to 6, got %+v", c)
	}
	c = Counts{TotalRecords: 2, Verified: 2, Created: 2, Failed: -1, Pending: 4}.Normalize()
	if c.TotalRecords != 2 || c.Failed != 0 || c.Pending != 0 {
		t.Fatalf("unexpected normalized counts %+v", c)
	}
	c = Counts{TotalRecords: 100, Verified: 50, Created: 20, Failed: 5, Pending: 25}.Normalize()
	if c.TotalRecords != 100 || c.Pending != 25 || Progress(c.TotalRecords, c.Pending) != 75 {
		t.Fatalf("backend counts should pass through unchanged, got %+v", c)
	}
}

func TestToJobKeepsBackendTotal(t *testing.T) {
	job := jobDTO{Name: "J1", TotalRecords: 2, Verified: 2, Created: 2}.toJob()
	if job.Counts.TotalRecords != 2 || job.Counts.Pending != 0 || job.Progress != 100 {
		t.Fatalf("expected backend total to stand, got %+v progress %d", job.Counts, job.Progress)
	}
}
