package timesheet

import (
	"math"
	"testing"
	"time"
)

func shiftAt(t *testing.T, startHour, startMin, endHour, endMin int, breaks ...Break) Shift {
	t.Helper()
	day := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	return Shift{
		ID:         "shift-1",
		EmployeeID: "emp-1",
		Start:      day.Add(time.Duration(startHour)*time.Hour + time.Duration(startMin)*time.Minute),
		End:        day.Add(time.Duration(endHour)*time.Hour + time.Duration(endMin)*time.Minute),
		Breaks:     breaks,
	}
}

func breakAt(t *testing.T, startHour, startMin, endHour, endMin int) Break {
	t.Helper()
	day := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	return Break{
		Start: day.Add(time.Duration(startHour)*time.Hour + time.Duration(startMin)*time.Minute),
		End:   day.Add(time.Duration(endHour)*time.Hour + time.Duration(endMin)*time.Minute),
		Type:  BreakTypeRest,
	}
}

func TestNetMinutes_SubtractsBreakBeforeFlooring(t *testing.T) {
	t.Parallel()

	// 09:00-17:00 with a 15 minute rest break: 480 - 15 = 465 minutes.
	shift := shiftAt(t, 9, 0, 17, 0, breakAt(t, 10, 0, 10, 15))

	if got := NetMinutes(shift); got != 465 {
		t.Fatalf("expected 465 net minutes, got %d", got)
	}
	if got := NetHours(shift); got != 7.75 {
		t.Fatalf("expected 7.75 net hours, got %v", got)
	}
	if IsOvertime(shift) {
		t.Fatal("7.75h shift must not be overtime")
	}
}

func TestNetMinutes_OpenBreaksContributeNothing(t *testing.T) {
	t.Parallel()

	open := Break{Start: time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC), Type: BreakTypeLunch}
	shift := shiftAt(t, 9, 0, 17, 0)
	shift.Breaks = append(shift.Breaks, open)

	if got := NetMinutes(shift); got != 480 {
		t.Fatalf("expected open break to be ignored, got %d minutes", got)
	}
	if got := BreakMinutes(shift); got != 0 {
		t.Fatalf("expected zero break minutes, got %d", got)
	}
}

func TestNetDuration_NonNegativeForContainedBreaks(t *testing.T) {
	t.Parallel()

	shift := shiftAt(t, 9, 0, 9, 30,
		breakAt(t, 9, 0, 9, 10),
		breakAt(t, 9, 10, 9, 20),
		breakAt(t, 9, 20, 9, 30),
	)

	if got := NetDuration(shift); got < 0 {
		t.Fatalf("net duration must be non-negative, got %v", got)
	}
	if got := NetMinutes(shift); got != 0 {
		t.Fatalf("fully-on-break shift should net zero minutes, got %d", got)
	}
}

func TestIsOvertime_ThresholdIsExclusive(t *testing.T) {
	t.Parallel()

	exactly := shiftAt(t, 9, 0, 17, 0)
	if IsOvertime(exactly) {
		t.Fatal("exactly 8.0 net hours is not overtime")
	}
	if got := OvertimeHours(exactly); got != 0 {
		t.Fatalf("expected zero overtime hours at the threshold, got %v", got)
	}

	over := shiftAt(t, 9, 0, 18, 30)
	if !IsOvertime(over) {
		t.Fatal("9.5 net hours must be overtime")
	}
	if got := OvertimeHours(over); got != 1.5 {
		t.Fatalf("expected 1.5 overtime hours, got %v", got)
	}
}

func TestBreakMinutes_FlooredPerBreakThenSummed(t *testing.T) {
	t.Parallel()

	day := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	shift := shiftAt(t, 9, 0, 17, 0)
	shift.Breaks = []Break{
		{Start: day.Add(10 * time.Hour), End: day.Add(10*time.Hour + 90*time.Second)},
		{Start: day.Add(12 * time.Hour), End: day.Add(12*time.Hour + 90*time.Second)},
	}

	// Each break floors to 1 minute even though together they span 3.
	if got := BreakMinutes(shift); got != 2 {
		t.Fatalf("expected 2 floored break minutes, got %d", got)
	}

	// The net computation subtracts the exact durations, not the floors.
	if got := NetDuration(shift); got != 8*time.Hour-3*time.Minute {
		t.Fatalf("expected 7h57m net, got %v", got)
	}
}

func TestCalculatedPay(t *testing.T) {
	t.Parallel()

	rate := 21.50
	shift := shiftAt(t, 9, 0, 17, 0, breakAt(t, 10, 0, 10, 15))
	shift.HourlyRate = &rate
	shift.PayMultiplier = 1.5

	pay := CalculatedPay(shift)
	if pay == nil {
		t.Fatal("expected pay for closed shift with rate")
	}
	want := math.Round(7.75*21.50*1.5*100) / 100
	if *pay != want {
		t.Fatalf("expected pay %v, got %v", want, *pay)
	}
}

func TestCalculatedPay_NilWithoutRateOrClose(t *testing.T) {
	t.Parallel()

	if pay := CalculatedPay(shiftAt(t, 9, 0, 17, 0)); pay != nil {
		t.Fatalf("expected nil pay without hourly rate, got %v", *pay)
	}

	rate := 10.0
	open := Shift{Start: time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC), HourlyRate: &rate}
	if pay := CalculatedPay(open); pay != nil {
		t.Fatalf("expected nil pay for open shift, got %v", *pay)
	}
}

func TestCalculatedPay_ZeroMultiplierDefaultsToOne(t *testing.T) {
	t.Parallel()

	rate := 10.0
	shift := shiftAt(t, 9, 0, 17, 0)
	shift.HourlyRate = &rate

	pay := CalculatedPay(shift)
	if pay == nil || *pay != 80.0 {
		t.Fatalf("expected 80.00 with implicit multiplier, got %v", pay)
	}
}
