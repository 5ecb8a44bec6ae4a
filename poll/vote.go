package poll

import (
	"context"
	"errors"
	"fmt"

	"easypoll/db"
	"easypoll/slack"
)

// HandleVote applies a vote-button click: it toggles the voter on the
// clicked option, persists the whole record and re-renders the message.
//
// The write is a plain overwrite. Two concurrent votes on the same poll
// can race and the second writer wins; callers needing strict counts must
// add a version check on the record.
func (s *Service) HandleVote(ctx context.Context, p *slack.InteractionPayload) error {
	if p.Message == nil || len(p.Message.Blocks) == 0 {
		return ErrMalformedCallback
	}

	sortTS, err := parseRecordKey(p.Message.Blocks[0].BlockID)
	if err != nil {
		return err
	}

	rec, err := s.store.GetRecord(ctx, db.PollPartition(p.Message.Team), sortTS)
	if errors.Is(err, db.ErrWrongPartition) {
		return ErrWrongTeam
	}
	if err != nil {
		return err
	}

	voter := fmt.Sprintf("<@%s>", p.User.ID)
	for _, action := range p.Actions {
		if err := toggleVote(rec.Votes, voter, action.BlockID, rec.VoteLimit); err != nil {
			return err
		}
	}

	if err := s.store.PutRecord(ctx, rec); err != nil {
		return err
	}

	blocks := RenderVotes(p.Message.Blocks, rec.Votes, rec.Anonymous)
	if err := s.slack.UpdateMessage(ctx, p.Channel.ID, p.Message.Ts, blocks); err != nil {
		return err
	}

	s.log.Info("vote toggled", "team", p.Message.Team, "poll", sortTS, "user", p.User.ID)
	return nil
}

// toggleVote removes the voter from the option if present, else adds them
// if the per-user limit allows. Removing never fails; adding fails with
// ErrVoteLimitExceeded once the voter holds limit distinct options.
func toggleVote(votes map[string][]string, voter, optionID string, limit int) error {
	current := 0
	for _, members := range votes {
		for _, m := range members {
			if m == voter {
				current++
				break
			}
		}
	}

	members := votes[optionID]
	for i, m := range members {
		if m == voter {
			votes[optionID] = append(members[:i], members[i+1:]...)
			return nil
		}
	}

	if limit > 0 && current >= limit {
		return ErrVoteLimitExceeded
	}
	votes[optionID] = append(members, voter)
	return nil
}
