package db

import (
	"fmt"
	"time"
)

// Recurrence frequencies.
const (
	FrequencyNever   = "never"
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
)

// Recurrence describes when a recurring poll should be posted.
type Recurrence struct {
	Frequency  string   `json:"frequency"`
	Timezone   string   `json:"tz"`
	TimeOfDay  string   `json:"time"` // 24h clock, "15:04"
	Days       []string `json:"days,omitempty"`
	DayOfMonth int      `json:"day_number,omitempty"`
}

// Record is one row of the partitioned record table. It carries quotes,
// live polls and recurring poll definitions; which fields are set depends
// on the partition the record lives in.
//
// The sort key is creation time in epoch milliseconds plus a 0-999ms
// jitter, so records created within the same second still sort strictly.
type Record struct {
	ID           uint   `gorm:"primaryKey"`
	PartitionKey string `gorm:"uniqueIndex:idx_partition_sort;not null"`
	SortTS       int64  `gorm:"uniqueIndex:idx_partition_sort;index;not null"`

	// Quote records.
	Message string

	// Poll records (live and recurring).
	Title     string
	Channel   string
	CreatedBy string
	Anonymous bool
	VoteLimit int
	Options   []string            `gorm:"serializer:json"`
	Votes     map[string][]string `gorm:"serializer:json"`

	// Recurring definitions only.
	Recurrence *Recurrence `gorm:"serializer:json"`
	UUID       string

	// Set on polls materialized by the scheduler.
	ScheduledMessageID string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsRecurring reports whether the record is a recurring poll definition.
func (r *Record) IsRecurring() bool {
	return r.Recurrence != nil
}

// PollPartition is the partition holding a team's live polls.
func PollPartition(team string) string {
	return fmt.Sprintf("%s:poll", team)
}

// RecurringPartition is the partition holding a team's recurring poll
// definitions.
func RecurringPartition(team string) string {
	return fmt.Sprintf("%s:poll-recurring", team)
}
