package timesheet

import (
	"sort"
	"time"
)

// Stats is the result of rolling up a batch of closed shifts. The employee,
// department and project breakdowns are unordered mappings; only Daily has
// a mandated order (ascending by date string).
type Stats struct {
	TotalShifts        int
	TotalHours         float64
	TotalBreakHours    float64
	OvertimeHours      float64
	AverageShiftLength float64
	Employees          map[string]*EmployeeStats
	Departments        map[string]*DepartmentStats
	Projects           map[string]*ProjectStats
	Daily              []DailyStats
}

// EmployeeStats accumulates totals for a single employee. Identity fields
// are captured from the first shift seen for that employee in the batch.
type EmployeeStats struct {
	Name          string
	Email         string
	Department    string
	JobTitle      string
	TotalShifts   int
	TotalHours    float64
	BreakHours    float64
	OvertimeHours float64
}

// DepartmentStats accumulates totals for a department label, including the
// number of distinct employees that contributed to it.
type DepartmentStats struct {
	TotalShifts   int
	TotalHours    float64
	BreakHours    float64
	OvertimeHours float64
	EmployeeCount int
}

// ProjectStats accumulates totals for a project reference.
type ProjectStats struct {
	TotalShifts   int
	TotalHours    float64
	BreakHours    float64
	OvertimeHours float64
	EmployeeCount int
}

// DailyStats carries the totals of one UTC calendar day, keyed by the date
// of the shifts' start instants.
type DailyStats struct {
	Date          string
	TotalShifts   int
	TotalHours    float64
	EmployeeCount int
}

// accumulator tracks distinct employee ids as sets while folding; the sets
// collapse to plain counts at finalization and never leave this package.
type accumulator struct {
	stats               Stats
	departmentEmployees map[string]map[string]struct{}
	projectEmployees    map[string]map[string]struct{}
	dailyBuckets        map[string]*DailyStats
	dailyEmployees      map[string]map[string]struct{}
}

// Aggregate folds a batch of shifts into Stats in a single pass. Shifts
// without an end instant are excluded from all numeric totals: callers are
// expected to pre-filter to closed shifts, and any open shift that slips
// through is skipped rather than aborting the batch.
func Aggregate(shifts []Shift) Stats {
	acc := accumulator{
		stats: Stats{
			Employees:   make(map[string]*EmployeeStats),
			Departments: make(map[string]*DepartmentStats),
			Projects:    make(map[string]*ProjectStats),
		},
		departmentEmployees: make(map[string]map[string]struct{}),
		projectEmployees:    make(map[string]map[string]struct{}),
		dailyBuckets:        make(map[string]*DailyStats),
		dailyEmployees:      make(map[string]map[string]struct{}),
	}

	for _, shift := range shifts {
		if !shift.Closed() {
			continue
		}
		acc.add(shift)
	}

	return acc.finalize()
}

func (a *accumulator) add(shift Shift) {
	netHours := NetHours(shift)
	breakHours := BreakDuration(shift).Hours()
	overtimeHours := OvertimeHours(shift)

	a.stats.TotalShifts++
	a.stats.TotalHours += netHours
	a.stats.TotalBreakHours += breakHours
	a.stats.OvertimeHours += overtimeHours

	employee, ok := a.stats.Employees[shift.EmployeeID]
	if !ok {
		employee = &EmployeeStats{
			Name:       shift.EmployeeName,
			Email:      shift.EmployeeEmail,
			Department: shift.Department,
			JobTitle:   shift.JobTitle,
		}
		a.stats.Employees[shift.EmployeeID] = employee
	}
	employee.TotalShifts++
	employee.TotalHours += netHours
	employee.BreakHours += breakHours
	employee.OvertimeHours += overtimeHours

	if shift.Department != "" {
		department, ok := a.stats.Departments[shift.Department]
		if !ok {
			department = &DepartmentStats{}
			a.stats.Departments[shift.Department] = department
			a.departmentEmployees[shift.Department] = make(map[string]struct{})
		}
		department.TotalShifts++
		department.TotalHours += netHours
		department.BreakHours += breakHours
		department.OvertimeHours += overtimeHours
		a.departmentEmployees[shift.Department][shift.EmployeeID] = struct{}{}
	}

	if shift.ProjectID != "" {
		project, ok := a.stats.Projects[shift.ProjectID]
		if !ok {
			project = &ProjectStats{}
			a.stats.Projects[shift.ProjectID] = project
			a.projectEmployees[shift.ProjectID] = make(map[string]struct{})
		}
		project.TotalShifts++
		project.TotalHours += netHours
		project.BreakHours += breakHours
		project.OvertimeHours += overtimeHours
		a.projectEmployees[shift.ProjectID][shift.EmployeeID] = struct{}{}
	}

	date := shift.Start.UTC().Format(time.DateOnly)
	bucket, ok := a.dailyBuckets[date]
	if !ok {
		bucket = &DailyStats{Date: date}
		a.dailyBuckets[date] = bucket
		a.dailyEmployees[date] = make(map[string]struct{})
	}
	bucket.TotalShifts++
	bucket.TotalHours += netHours
	a.dailyEmployees[date][shift.EmployeeID] = struct{}{}
}

func (a *accumulator) finalize() Stats {
	if a.stats.TotalShifts > 0 {
		a.stats.AverageShiftLength = a.stats.TotalHours / float64(a.stats.TotalShifts)
	}

	for label, members := range a.departmentEmployees {
		a.stats.Departments[label].EmployeeCount = len(members)
	}
	for id, members := range a.projectEmployees {
		a.stats.Projects[id].EmployeeCount = len(members)
	}

	daily := make([]DailyStats, 0, len(a.dailyBuckets))
	for date, bucket := range a.dailyBuckets {
		bucket.EmployeeCount = len(a.dailyEmployees[date])
		daily = append(daily, *bucket)
	}
	sort.Slice(daily, func(i, j int) bool { return daily[i].Date < daily[j].Date })
	a.stats.Daily = daily

	return a.stats
}
