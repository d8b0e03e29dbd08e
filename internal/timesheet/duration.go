package timesheet

import (
	"math"
	"time"
)

// OvertimeThreshold is the net worked duration beyond which a shift counts
// as overtime. Shifts of exactly eight net hours are not overtime.
const OvertimeThreshold = 8 * time.Hour

// BreakType classifies a break interval within a shift.
type BreakType string

const (
	BreakTypeLunch BreakType = "lunch"
	BreakTypeRest  BreakType = "rest"
	BreakTypeOther BreakType = "other"
)

// Status is the approval state of a shift.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Break is a sub-interval of a shift during which worked time does not
// accrue. End is the zero value while the break is open.
type Break struct {
	Start time.Time
	End   time.Time
	Type  BreakType
}

// Closed reports whether the break has ended.
func (b Break) Closed() bool {
	return !b.End.IsZero()
}

// Duration returns the elapsed time of a closed break, zero while open.
func (b Break) Duration() time.Duration {
	if !b.Closed() {
		return 0
	}
	return b.End.Sub(b.Start)
}

// Minutes returns the break length in whole minutes, floored. Open breaks
// report zero.
func (b Break) Minutes() int64 {
	return int64(b.Duration() / time.Minute)
}

// Shift is the snapshot the calculator and the aggregation engine operate
// on. End is the zero value while the shift is open; callers must not ask
// for gross or net durations of open shifts.
type Shift struct {
	ID            string
	EmployeeID    string
	EmployeeName  string
	EmployeeEmail string
	Department    string
	JobTitle      string
	ProjectID     string
	Start         time.Time
	End           time.Time
	Breaks        []Break
	Status        Status
	HourlyRate    *float64
	PayMultiplier float64
}

// Closed reports whether the shift has a clock-out instant.
func (s Shift) Closed() bool {
	return !s.End.IsZero()
}

// BreakDuration sums the elapsed time of all closed breaks. Open breaks
// contribute nothing.
func BreakDuration(s Shift) time.Duration {
	var total time.Duration
	for _, b := range s.Breaks {
		total += b.Duration()
	}
	return total
}

// BreakMinutes returns the total closed-break time in whole minutes,
// floored per break and then summed.
func BreakMinutes(s Shift) int64 {
	var total int64
	for _, b := range s.Breaks {
		total += b.Minutes()
	}
	return total
}

// GrossDuration is the clock-in to clock-out span with no break deduction.
func GrossDuration(s Shift) time.Duration {
	return s.End.Sub(s.Start)
}

// GrossMinutes returns the gross span in whole minutes, floored.
func GrossMinutes(s Shift) int64 {
	return int64(GrossDuration(s) / time.Minute)
}

// NetDuration is the gross span minus total closed-break time. The
// subtraction happens before any flooring so multi-break shifts do not
// accumulate rounding error.
func NetDuration(s Shift) time.Duration {
	return GrossDuration(s) - BreakDuration(s)
}

// NetMinutes returns the net worked time in whole minutes, floored.
func NetMinutes(s Shift) int64 {
	return int64(NetDuration(s) / time.Minute)
}

// NetHours returns the net worked time in decimal hours.
func NetHours(s Shift) float64 {
	return NetDuration(s).Hours()
}

// IsOvertime reports whether the shift's net worked time strictly exceeds
// the overtime threshold. Exactly the threshold is not overtime.
func IsOvertime(s Shift) bool {
	return NetDuration(s) > OvertimeThreshold
}

// OvertimeHours returns the net hours worked beyond the threshold, zero
// for shifts at or under it.
func OvertimeHours(s Shift) float64 {
	over := NetDuration(s) - OvertimeThreshold
	if over <= 0 {
		return 0
	}
	return over.Hours()
}

// CalculatedPay derives the pay for a closed shift with a known hourly
// rate, rounded to two decimal places. It returns nil when the shift is
// open or has no rate. A zero multiplier is treated as 1.0.
func CalculatedPay(s Shift) *float64 {
	if !s.Closed() || s.HourlyRate == nil {
		return nil
	}
	multiplier := s.PayMultiplier
	if multiplier == 0 {
		multiplier = 1.0
	}
	pay := math.Round(NetHours(s)**s.HourlyRate*multiplier*100) / 100
	return &pay
}
