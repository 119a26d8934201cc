package attendance

import (
	"math"
	"time"

	"github.com/redaxis-hris/hrms-backend-go/internal/domain/attendance"
)

// Check-out thresholds in hours.
const (
	HalfDayHours = 5.0
	FullDayHours = 7.5

	// LeaveHalfDayHours is credited for a half-day leave.
	LeaveHalfDayHours = 4.0
)

// RoundHours rounds to two decimals.
func RoundHours(h float64) float64 {
	return math.Round(h*100) / 100
}

// WorkedHours is the rounded span between check-in and check-out.
func WorkedHours(checkIn, checkOut time.Time) float64 {
	return RoundHours(checkOut.Sub(checkIn).Hours())
}

// DeriveStatus maps worked hours to a day status.
func DeriveStatus(hours float64) attendance.Status {
	switch {
	case hours < HalfDayHours:
		return attendance.StatusAbsent
	case hours < FullDayHours:
		return attendance.StatusHalfDay
	default:
		return attendance.StatusPresent
	}
}

// IsWorkingDay reports whether d counts towards the attendance denominator.
func IsWorkingDay(d time.Time, saturdayWorking bool) bool {
	switch d.Weekday() {
	case time.Sunday:
		return false
	case time.Saturday:
		return saturdayWorking
	default:
		return true
	}
}

// CountWorkingDays counts working days in [start, end] by calendar date.
func CountWorkingDays(start, end time.Time, saturdayWorking bool) int {
	from := civilDate(start)
	to := civilDate(end)

	count := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if IsWorkingDay(d, saturdayWorking) {
			count++
		}
	}
	return count
}

// Percentage is (present + half of half-days) over working days, one decimal.
func Percentage(present, halfDay, workingDays int) float64 {
	if workingDays == 0 {
		return 0
	}
	p := (float64(present) + 0.5*float64(halfDay)) / float64(workingDays) * 100
	return math.Round(p*10) / 10
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func clock(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("15:04")
}
