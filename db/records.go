package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNotFound is returned when an exact-key lookup matches nothing.
	ErrNotFound = errors.New("record not found")
	// ErrWrongPartition is returned when the sort key exists but only
	// under another partition, which means the caller's reference is
	// forged or stale.
	ErrWrongPartition = errors.New("record exists in a different partition")
	// ErrScanIncomplete is returned when the team-discovery scan fails
	// before all pages were read. Partial results are never returned as
	// complete.
	ErrScanIncomplete = errors.New("scan incomplete")
)

const scanPageSize = 200

// Store gives typed access to the record table.
type Store struct {
	db *gorm.DB
}

func NewStore(gdb *gorm.DB) *Store {
	return &Store{db: gdb}
}

// PutRecord writes the full record, overwriting an existing row with the
// same (partition, sort) key. Last writer wins; there is no version check.
func (s *Store) PutRecord(ctx context.Context, rec *Record) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "partition_key"}, {Name: "sort_ts"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"message", "title", "channel", "created_by", "anonymous",
			"vote_limit", "options", "votes", "recurrence", "uuid",
			"scheduled_message_id", "updated_at",
		}),
	}).Create(rec).Error
	if err != nil {
		return fmt.Errorf("putting record %s/%d: %w", rec.PartitionKey, rec.SortTS, err)
	}
	return nil
}

// GetRecord fetches the record with the given full key. A sort key held
// by another partition yields ErrWrongPartition, not an arbitrary row,
// even if two teams collide on the same millisecond and jitter.
func (s *Store) GetRecord(ctx context.Context, partition string, sortTS int64) (*Record, error) {
	var rec Record
	err := s.db.WithContext(ctx).
		Where("partition_key = ? AND sort_ts = ?", partition, sortTS).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		var count int64
		if err := s.db.WithContext(ctx).Model(&Record{}).
			Where("sort_ts = ?", sortTS).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("getting record %s/%d: %w", partition, sortTS, err)
		}
		if count > 0 {
			return nil, ErrWrongPartition
		}
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting record %s/%d: %w", partition, sortTS, err)
	}
	return &rec, nil
}

// QueryPartition returns every record in a partition, newest first.
func (s *Store) QueryPartition(ctx context.Context, partition string) ([]Record, error) {
	var recs []Record
	err := s.db.WithContext(ctx).
		Where("partition_key = ?", partition).
		Order("sort_ts desc").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("querying partition %s: %w", partition, err)
	}
	return recs, nil
}

// TeamsWithRecurringPolls scans the whole table for recurring poll
// definitions and returns the distinct team ids owning them. The scan
// pages on the row id until exhausted.
func (s *Store) TeamsWithRecurringPolls(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	var teams []string

	var cursor uint
	for {
		var page []Record
		err := s.db.WithContext(ctx).
			Select("id", "partition_key").
			Where("id > ? AND partition_key LIKE ?", cursor, "%:poll-recurring").
			Order("id").
			Limit(scanPageSize).
			Find(&page).Error
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrScanIncomplete, err)
		}
		for _, rec := range page {
			team := strings.Split(rec.PartitionKey, ":")[0]
			if !seen[team] {
				seen[team] = true
				teams = append(teams, team)
			}
			cursor = rec.ID
		}
		if len(page) < scanPageSize {
			return teams, nil
		}
	}
}
