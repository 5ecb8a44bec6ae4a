package poll

import (
	"context"
	"fmt"

	"easypoll/db"
	"easypoll/slack"
)

// Reconcile converges a team's scheduled messages onto "exactly the next
// ten occurrences of every active recurring poll are scheduled, nothing
// else". Occurrences already scheduled are left alone, missing ones are
// materialized as live poll records and submitted as scheduled sends, and
// scheduled messages no longer backed by a definition are canceled.
//
// Running this twice in a row is a no-op the second time. Two concurrent
// runs for the same team are not safe; the scheduler serializes them with
// a per-team lock.
func (s *Service) Reconcile(ctx context.Context, team string) error {
	definitions, err := s.store.QueryPartition(ctx, db.RecurringPartition(team))
	if err != nil {
		return err
	}

	// Scheduled-but-unsent messages per channel, keyed by the occurrence
	// identifier recovered from their top block. Entries still present
	// after all definitions are processed are stale.
	pending := map[string]map[string]slack.ScheduledMessage{}

	for _, def := range definitions {
		if !def.IsRecurring() {
			s.log.Warn("skipping recurring record without a rule", "team", team, "key", def.SortTS)
			continue
		}

		if _, ok := pending[def.Channel]; !ok {
			scheduled, err := s.slack.ListScheduledMessages(ctx, def.Channel)
			if err != nil {
				return err
			}
			byID := make(map[string]slack.ScheduledMessage, len(scheduled))
			for _, msg := range scheduled {
				if len(msg.Blocks) == 0 {
					continue
				}
				byID[ScheduleMatchKey(msg.Blocks[0].BlockID)] = msg
			}
			pending[def.Channel] = byID
		}
		scheduled := pending[def.Channel]

		occurrences, err := NextOccurrences(*def.Recurrence, s.Now(), occurrenceWindow)
		if err != nil {
			s.log.Error("skipping definition with a broken rule", "team", team, "key", def.SortTS, "error", err)
			continue
		}

		for _, at := range occurrences {
			id := OccurrenceID(def.UUID, at)
			if _, ok := scheduled[id]; ok {
				// Already queued; keep it and stop it from being treated
				// as stale below.
				delete(scheduled, id)
				continue
			}
			if err := s.materializeOccurrence(ctx, team, &def, at); err != nil {
				return err
			}
		}
	}

	for channel, scheduled := range pending {
		for id, msg := range scheduled {
			s.log.Info("canceling stale scheduled poll", "team", team, "channel", channel, "occurrence", id)
			if err := s.slack.DeleteScheduledMessage(ctx, channel, msg.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// materializeOccurrence creates the live poll record for one future
// occurrence and queues its scheduled send. The record's sort key embeds
// the occurrence second plus jitter; the same value inside the top block
// id is what later vote callbacks and reconcile runs key on.
func (s *Service) materializeOccurrence(ctx context.Context, team string, def *db.Record, at int64) error {
	sortTS := at*1000 + s.Jitter()
	topID := fmt.Sprintf("%s:%d", def.UUID, sortTS)

	blocks, votes := MessageBlocks(topID, def.Title, def.Options, def.Anonymous, def.VoteLimit, def.CreatedBy, true)

	scheduledID, err := s.slack.ScheduleMessage(ctx, def.Channel, blocks, "Recurring poll", at)
	if err != nil {
		return err
	}

	rec := &db.Record{
		PartitionKey:       db.PollPartition(team),
		SortTS:             sortTS,
		Title:              def.Title,
		Channel:            def.Channel,
		CreatedBy:          def.CreatedBy,
		Anonymous:          def.Anonymous,
		VoteLimit:          def.VoteLimit,
		Options:            def.Options,
		Votes:              votes,
		ScheduledMessageID: scheduledID,
	}
	if err := s.store.PutRecord(ctx, rec); err != nil {
		return err
	}

	s.log.Info("scheduled recurring poll occurrence",
		"team", team, "channel", def.Channel, "definition", def.UUID, "post_at", at)
	return nil
}
