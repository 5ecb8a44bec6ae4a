package poll

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easypoll/db"
)

func TestNextOccurrencesDaily(t *testing.T) {
	rule := db.Recurrence{Frequency: db.FrequencyDaily, Timezone: "UTC", TimeOfDay: "12:00"}
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	got, err := NextOccurrences(rule, now, 10)
	require.NoError(t, err)
	require.Len(t, got, 10)

	first := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	for i, ts := range got {
		assert.Equal(t, first.AddDate(0, 0, i).Unix(), ts)
	}
}

func TestNextOccurrencesDailyTimeAlreadyPassed(t *testing.T) {
	rule := db.Recurrence{Frequency: db.FrequencyDaily, Timezone: "UTC", TimeOfDay: "12:00"}
	now := time.Date(2026, 3, 2, 13, 30, 0, 0, time.UTC)

	got, err := NextOccurrences(rule, now, 3)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC).Unix(), got[0])
}

func TestNextOccurrencesWeekly(t *testing.T) {
	rule := db.Recurrence{
		Frequency: db.FrequencyWeekly,
		Timezone:  "UTC",
		TimeOfDay: "09:15",
		Days:      []string{"Monday", "Friday"},
	}
	// A Wednesday.
	now := time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC)

	got, err := NextOccurrences(rule, now, 10)
	require.NoError(t, err)
	require.Len(t, got, 10)

	for _, ts := range got {
		day := time.Unix(ts, 0).UTC().Weekday()
		assert.Contains(t, []time.Weekday{time.Monday, time.Friday}, day)
	}
	assert.Equal(t, time.Date(2026, 3, 6, 9, 15, 0, 0, time.UTC).Unix(), got[0])
	assert.Equal(t, time.Date(2026, 3, 9, 9, 15, 0, 0, time.UTC).Unix(), got[1])
}

func TestNextOccurrencesWeeklyNoDaysSelected(t *testing.T) {
	rule := db.Recurrence{Frequency: db.FrequencyWeekly, Timezone: "UTC", TimeOfDay: "09:00"}
	now := time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC)

	got, err := NextOccurrences(rule, now, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNextOccurrencesMonthlySkipsShortMonths(t *testing.T) {
	rule := db.Recurrence{
		Frequency:  db.FrequencyMonthly,
		Timezone:   "UTC",
		TimeOfDay:  "09:30",
		DayOfMonth: 31,
	}
	now := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

	got, err := NextOccurrences(rule, now, 10)
	require.NoError(t, err)
	require.Len(t, got, 10)

	// No February occurrence; the first is in the next month with a 31st.
	assert.Equal(t, time.Date(2026, 3, 31, 9, 30, 0, 0, time.UTC).Unix(), got[0])
	for _, ts := range got {
		assert.Equal(t, 31, time.Unix(ts, 0).UTC().Day())
	}
	// April, June, September and November have no 31st.
	assert.Equal(t, time.Date(2026, 5, 31, 9, 30, 0, 0, time.UTC).Unix(), got[1])
}

func TestNextOccurrencesHonorsTimezone(t *testing.T) {
	rule := db.Recurrence{Frequency: db.FrequencyDaily, Timezone: "Europe/Amsterdam", TimeOfDay: "08:00"}
	loc, err := time.LoadLocation("Europe/Amsterdam")
	require.NoError(t, err)
	now := time.Date(2026, 1, 10, 7, 0, 0, 0, loc)

	got, err := NextOccurrences(rule, now.UTC(), 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, time.Date(2026, 1, 10, 8, 0, 0, 0, loc).Unix(), got[0])
}

func TestNextOccurrencesErrors(t *testing.T) {
	now := time.Date(2026, 1, 10, 7, 0, 0, 0, time.UTC)

	_, err := NextOccurrences(db.Recurrence{Frequency: db.FrequencyDaily, Timezone: "Mars/Olympus", TimeOfDay: "08:00"}, now, 1)
	assert.Error(t, err)

	_, err = NextOccurrences(db.Recurrence{Frequency: db.FrequencyDaily, Timezone: "UTC", TimeOfDay: "morning"}, now, 1)
	assert.Error(t, err)

	_, err = NextOccurrences(db.Recurrence{Frequency: "hourly", Timezone: "UTC", TimeOfDay: "08:00"}, now, 1)
	assert.Error(t, err)
}

func TestOccurrenceIDDeterminism(t *testing.T) {
	a := OccurrenceID("9f4c2d", 1767000000)
	b := OccurrenceID("9f4c2d", 1767000000)
	assert.Equal(t, a, b)
	assert.Equal(t, "9f4c2d:1767000000", a)
}

func TestScheduleMatchKeyStripsJitter(t *testing.T) {
	// A block id carries the millisecond sort key; stripping the three
	// jitter digits recovers the deterministic occurrence id.
	ts := int64(1767000000)
	blockID := OccurrenceID("9f4c2d", ts*1000+457)
	assert.Equal(t, OccurrenceID("9f4c2d", ts), ScheduleMatchKey(blockID))
}
