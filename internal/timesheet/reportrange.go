package timesheet

import (
	"errors"
	"time"
)

// ReportType selects how a reporting date range is derived.
type ReportType string

const (
	ReportDaily   ReportType = "daily"
	ReportWeekly  ReportType = "weekly"
	ReportMonthly ReportType = "monthly"
	ReportCustom  ReportType = "custom"
)

var (
	// ErrInvalidReportType is returned for report type tokens outside the
	// daily/weekly/monthly/custom set.
	ErrInvalidReportType = errors.New("timesheet: invalid report type")
	// ErrMissingCustomRange is returned when a custom report omits either
	// bound.
	ErrMissingCustomRange = errors.New("timesheet: custom report requires start and end dates")
)

// DateRange is an inclusive instant range covering whole calendar days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls within the range, bounds included.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// ComputeRange maps a report type to a concrete date range anchored to
// day/week/month boundaries in loc. The anchor defaults to now for the
// preset types; custom ranges take both bounds from start and end and
// normalize them to the enclosing whole days. Ranges run from 00:00:00.000
// of the first day through 23:59:59.999 of the last.
func ComputeRange(reportType ReportType, anchor, start, end time.Time, loc *time.Location) (DateRange, error) {
	if loc == nil {
		loc = time.UTC
	}

	switch reportType {
	case ReportDaily:
		day := startOfDay(anchor, loc)
		return DateRange{Start: day, End: endOfDay(day)}, nil

	case ReportWeekly:
		day := startOfDay(anchor, loc)
		monday := startOfWeek(day)
		sunday := monday.AddDate(0, 0, 6)
		return DateRange{Start: monday, End: endOfDay(sunday)}, nil

	case ReportMonthly:
		day := startOfDay(anchor, loc)
		first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, loc)
		last := first.AddDate(0, 1, -1)
		return DateRange{Start: first, End: endOfDay(last)}, nil

	case ReportCustom:
		if start.IsZero() || end.IsZero() {
			return DateRange{}, ErrMissingCustomRange
		}
		return DateRange{
			Start: startOfDay(start, loc),
			End:   endOfDay(startOfDay(end, loc)),
		}, nil

	default:
		return DateRange{}, ErrInvalidReportType
	}
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// startOfWeek returns the Monday of the week containing the day. Weeks
// start Monday; a Sunday anchor belongs to the week that began six days
// earlier.
func startOfWeek(day time.Time) time.Time {
	weekday := int(day.Weekday())
	offset := weekday - 1
	if weekday == int(time.Sunday) {
		offset = 6
	}
	return day.AddDate(0, 0, -offset)
}

// endOfDay returns 23:59:59.999 of the day that starts at dayStart.
func endOfDay(dayStart time.Time) time.Time {
	return dayStart.AddDate(0, 0, 1).Add(-time.Millisecond)
}
