package schedule

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// runHour is the local-time anchor for fixed cadences: occurrences run
// at 08:00 in the schedule timezone.
const runHour = 8

// NextRun computes the next due time strictly after the given anchor.
//
// The anchor is the schedule's own prior due time, not the wall clock at
// execution; advancing from it keeps delayed ticks from skipping or
// duplicating periods.
//
// For CadenceCustom the cron expression is parsed in the schedule
// timezone. An unparseable expression degrades to the daily cadence;
// fellBack reports that degradation so the caller can log it.
func NextRun(s *Schedule, after time.Time) (next time.Time, fellBack bool) {
	loc := s.Location()
	local := after.In(loc)

	switch s.Cadence {
	case CadenceWeekly:
		return nextWeekly(local, loc), false
	case CadenceMonthly:
		return nextMonthly(local, loc), false
	case CadenceCustom:
		parsed, err := cron.ParseStandard(s.CronExpr)
		if err != nil {
			return nextDaily(local, loc), true
		}
		return parsed.Next(local), false
	default:
		return nextDaily(local, loc), false
	}
}

// nextDaily returns the next calendar day at 08:00.
func nextDaily(local time.Time, loc *time.Location) time.Time {
	d := local.AddDate(0, 0, 1)
	return time.Date(d.Year(), d.Month(), d.Day(), runHour, 0, 0, 0, loc)
}

// nextWeekly returns the next Monday at 08:00. When the anchor already
// falls on a Monday it rolls a full week forward, never same-day.
func nextWeekly(local time.Time, loc *time.Location) time.Time {
	offset := (int(time.Monday) - int(local.Weekday()) + 7) % 7
	if offset == 0 {
		offset = 7
	}
	d := local.AddDate(0, 0, offset)
	return time.Date(d.Year(), d.Month(), d.Day(), runHour, 0, 0, 0, loc)
}

// nextMonthly returns the first day of the next month at 08:00.
// time.Date normalizes month 13, so the December to January rollover
// needs no special case.
func nextMonthly(local time.Time, loc *time.Location) time.Time {
	return time.Date(local.Year(), local.Month()+1, 1, runHour, 0, 0, 0, loc)
}

// PeriodKey identifies the occurrence due at dueAt. Keys are stable
// under retries and unique per period, which makes them the idempotence
// key for artifact generation.
func PeriodKey(s *Schedule, dueAt time.Time) string {
	local := dueAt.In(s.Location())

	switch s.Cadence {
	case CadenceWeekly:
		year, week := local.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case CadenceMonthly:
		return fmt.Sprintf("%d-%02d", local.Year(), int(local.Month()))
	case CadenceCustom:
		// Custom cadences can fire more than once a day; key on the
		// full due minute.
		return local.Format("2006-01-02T15:04")
	default:
		return local.Format("2006-01-02")
	}
}

// ValidateCron reports whether a cron expression parses. Collaborators
// creating schedules use it to reject bad input up front; the scheduler
// itself degrades to daily rather than failing.
func ValidateCron(expr string) error {
	_, err := cron.ParseStandard(expr)
	return err
}
