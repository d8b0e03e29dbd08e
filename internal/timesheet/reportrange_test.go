package timesheet

import (
	"errors"
	"testing"
	"time"
)

func TestComputeRange_Daily(t *testing.T) {
	t.Parallel()

	anchor := time.Date(2024, 6, 12, 15, 42, 7, 0, time.UTC)
	r, err := ComputeRange(ReportDaily, anchor, time.Time{}, time.Time{}, time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantStart := time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, 6, 12, 23, 59, 59, 999000000, time.UTC)
	if !r.Start.Equal(wantStart) || !r.End.Equal(wantEnd) {
		t.Fatalf("expected [%v, %v], got [%v, %v]", wantStart, wantEnd, r.Start, r.End)
	}
}

func TestComputeRange_WeeklyAnchoredMidweek(t *testing.T) {
	t.Parallel()

	// Wednesday June 12 2024 → Monday June 10 through Sunday June 16.
	anchor := time.Date(2024, 6, 12, 11, 0, 0, 0, time.UTC)
	r, err := ComputeRange(ReportWeekly, anchor, time.Time{}, time.Time{}, time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantStart := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, 6, 16, 23, 59, 59, 999000000, time.UTC)
	if !r.Start.Equal(wantStart) || !r.End.Equal(wantEnd) {
		t.Fatalf("expected [%v, %v], got [%v, %v]", wantStart, wantEnd, r.Start, r.End)
	}
}

func TestComputeRange_WeeklyAnchoredSunday(t *testing.T) {
	t.Parallel()

	// Sunday June 16 2024 belongs to the week that started Monday June 10.
	anchor := time.Date(2024, 6, 16, 8, 0, 0, 0, time.UTC)
	r, err := ComputeRange(ReportWeekly, anchor, time.Time{}, time.Time{}, time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !r.Start.Equal(time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("Sunday anchor must map to preceding Monday, got %v", r.Start)
	}
	if !r.Contains(anchor) {
		t.Fatal("anchor must fall inside its own weekly range")
	}
}

func TestComputeRange_WeeklyAnchoredMonday(t *testing.T) {
	t.Parallel()

	anchor := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	r, err := ComputeRange(ReportWeekly, anchor, time.Time{}, time.Time{}, time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !r.Start.Equal(anchor) {
		t.Fatalf("Monday anchor starts its own week, got %v", r.Start)
	}
}

func TestComputeRange_MonthlySpansWholeMonth(t *testing.T) {
	t.Parallel()

	anchor := time.Date(2024, 2, 14, 10, 0, 0, 0, time.UTC)
	r, err := ComputeRange(ReportMonthly, anchor, time.Time{}, time.Time{}, time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantStart := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, 2, 29, 23, 59, 59, 999000000, time.UTC)
	if !r.Start.Equal(wantStart) || !r.End.Equal(wantEnd) {
		t.Fatalf("expected leap February [%v, %v], got [%v, %v]", wantStart, wantEnd, r.Start, r.End)
	}
}

func TestComputeRange_CustomNormalizesBounds(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 6, 1, 14, 30, 0, 0, time.UTC)
	end := time.Date(2024, 6, 5, 9, 15, 0, 0, time.UTC)
	r, err := ComputeRange(ReportCustom, time.Time{}, start, end, time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !r.Start.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("custom start must normalize to midnight, got %v", r.Start)
	}
	if !r.End.Equal(time.Date(2024, 6, 5, 23, 59, 59, 999000000, time.UTC)) {
		t.Fatalf("custom end must normalize to end of day, got %v", r.End)
	}
}

func TestComputeRange_CustomRequiresBothBounds(t *testing.T) {
	t.Parallel()

	_, err := ComputeRange(ReportCustom, time.Time{}, time.Now(), time.Time{}, time.UTC)
	if !errors.Is(err, ErrMissingCustomRange) {
		t.Fatalf("expected ErrMissingCustomRange, got %v", err)
	}
}

func TestComputeRange_RejectsUnknownType(t *testing.T) {
	t.Parallel()

	_, err := ComputeRange(ReportType("quarterly"), time.Now(), time.Time{}, time.Time{}, time.UTC)
	if !errors.Is(err, ErrInvalidReportType) {
		t.Fatalf("expected ErrInvalidReportType, got %v", err)
	}
}

func TestComputeRange_RespectsLocation(t *testing.T) {
	t.Parallel()

	est := time.FixedZone("EST", -5*60*60)
	// 02:00 UTC June 13 is still June 12 in EST.
	anchor := time.Date(2024, 6, 13, 2, 0, 0, 0, time.UTC)
	r, err := ComputeRange(ReportDaily, anchor, time.Time{}, time.Time{}, est)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !r.Start.Equal(time.Date(2024, 6, 12, 0, 0, 0, 0, est)) {
		t.Fatalf("expected EST June 12 midnight, got %v", r.Start)
	}
}
