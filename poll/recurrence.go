package poll

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"easypoll/db"
)

// occurrenceWindow is how many future occurrences a recurring definition
// keeps scheduled at any time.
const occurrenceWindow = 10

// Walking day by day, a monthly rule on the 31st yields an occurrence at
// most every other month or so; four years of days is enough slack for
// any valid rule to fill the window.
const maxWalkDays = 4 * 366

// NextOccurrences computes the next n occurrence timestamps (epoch
// seconds) of a recurrence rule, starting from now in the rule's
// timezone. The start is today's configured time of day if it has not
// passed yet, otherwise tomorrow's; from there days are walked one at a
// time and only matching days are yielded. Months lacking the configured
// day-of-month are skipped, never clamped.
func NextOccurrences(rule db.Recurrence, now time.Time, n int) ([]int64, error) {
	loc, err := time.LoadLocation(rule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", rule.Timezone, err)
	}
	hours, minutes, err := parseTimeOfDay(rule.TimeOfDay)
	if err != nil {
		return nil, err
	}

	local := now.In(loc)
	t := time.Date(local.Year(), local.Month(), local.Day(), hours, minutes, 0, 0, loc)
	if t.Before(local) {
		t = t.AddDate(0, 0, 1)
	}

	days := make(map[string]bool, len(rule.Days))
	for _, d := range rule.Days {
		days[d] = true
	}

	var out []int64
	for i := 0; i < maxWalkDays && len(out) < n; i++ {
		switch rule.Frequency {
		case db.FrequencyDaily:
			out = append(out, t.Unix())
		case db.FrequencyWeekly:
			if days[t.Weekday().String()] {
				out = append(out, t.Unix())
			}
		case db.FrequencyMonthly:
			if t.Day() == rule.DayOfMonth {
				out = append(out, t.Unix())
			}
		default:
			return nil, fmt.Errorf("unknown frequency %q", rule.Frequency)
		}
		t = t.AddDate(0, 0, 1)
	}
	return out, nil
}

func parseTimeOfDay(s string) (hours, minutes int, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("bad time of day %q", s)
	}
	hours, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("bad time of day %q", s)
	}
	minutes, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("bad time of day %q", s)
	}
	return hours, minutes, nil
}

// OccurrenceID is the deterministic identifier of one occurrence of a
// recurring definition. It is also what ScheduleMatchKey recovers from an
// already-scheduled message, which is what makes reconciliation
// idempotent across runs.
func OccurrenceID(definitionUUID string, epochSeconds int64) string {
	return fmt.Sprintf("%s:%d", definitionUUID, epochSeconds)
}

// ScheduleMatchKey derives the occurrence identifier from a scheduled
// message's top block id by stripping the 3 trailing jitter digits off
// its millisecond sort key.
func ScheduleMatchKey(blockID string) string {
	if len(blockID) < 3 {
		return blockID
	}
	return blockID[:len(blockID)-3]
}
