// Package poll implements the interactive poll feature: the creation
// modal, vote toggling and the recurring-poll reconciliation.
package poll

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"strings"
	"time"

	log15 "github.com/inconshreveable/log15/v3"

	"easypoll/db"
	"easypoll/slack"
)

var (
	// ErrWrongTeam means the callback referenced a poll owned by another
	// workspace, which only happens on forged or stale payloads.
	ErrWrongTeam = errors.New("poll belongs to a different team")
	// ErrVoteLimitExceeded means the voter is already at their per-poll
	// vote limit; nothing was changed.
	ErrVoteLimitExceeded = errors.New("vote limit reached")
	// ErrMalformedCallback means the payload did not carry the context a
	// poll callback must have.
	ErrMalformedCallback = errors.New("malformed poll callback")
)

// Store is the slice of the record store the poll feature needs.
type Store interface {
	PutRecord(ctx context.Context, rec *db.Record) error
	GetRecord(ctx context.Context, partition string, sortTS int64) (*db.Record, error)
	QueryPartition(ctx context.Context, partition string) ([]db.Record, error)
}

// Messenger is the outbound messaging surface the poll feature needs.
type Messenger interface {
	PostMessage(ctx context.Context, channel string, blocks []slack.Block, text string) (string, error)
	UpdateMessage(ctx context.Context, channel, ts string, blocks []slack.Block) error
	ScheduleMessage(ctx context.Context, channel string, blocks []slack.Block, text string, postAt int64) (string, error)
	DeleteScheduledMessage(ctx context.Context, channel, scheduledMessageID string) error
	ListScheduledMessages(ctx context.Context, channel string) ([]slack.ScheduledMessage, error)
	OpenView(ctx context.Context, triggerID string, view slack.View) error
	UpdateView(ctx context.Context, viewID string, view slack.View) error
}

// Service wires the poll feature to its store and messenger.
type Service struct {
	store Store
	slack Messenger
	log   log15.Logger

	// Overridable in tests.
	Now    func() time.Time
	Jitter func() int64
}

func NewService(store Store, messenger Messenger) *Service {
	return &Service{
		store:  store,
		slack:  messenger,
		log:    log15.New("module", "poll"),
		Now:    time.Now,
		Jitter: func() int64 { return int64(rand.Intn(1000)) },
	}
}

// sortKey derives a fresh record sort key: epoch millis plus jitter, so
// bursty creation within the same second still orders strictly.
func (s *Service) sortKey() int64 {
	return s.Now().Unix()*1000 + s.Jitter()
}

// parseRecordKey extracts the record sort key from a poll message's top
// block id, which is either ":{ms}" (one-shot) or "{uuid}:{ms}"
// (materialized occurrence).
func parseRecordKey(blockID string) (int64, error) {
	idx := strings.LastIndex(blockID, ":")
	if idx < 0 {
		return 0, ErrMalformedCallback
	}
	ts, err := strconv.ParseInt(blockID[idx+1:], 10, 64)
	if err != nil {
		return 0, ErrMalformedCallback
	}
	return ts, nil
}
