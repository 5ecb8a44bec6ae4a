package poll

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"easypoll/db"
	"easypoll/slack"
)

// HandleCreateCommand opens the poll creation modal, prefilled from the
// slash command's quoted segments.
func (s *Service) HandleCreateCommand(ctx context.Context, cmd slack.SlashCommand) (string, error) {
	title, options := ParseCommandText(cmd.Text)
	view := CreationForm(title, options, cmd.ChannelID)

	if err := s.slack.OpenView(ctx, cmd.TriggerID, view); err != nil {
		return "", err
	}
	return "Creating poll", nil
}

// HandleRecurringChange rebuilds the open modal for the newly selected
// recurrence frequency.
func (s *Service) HandleRecurringChange(ctx context.Context, p *slack.InteractionPayload) error {
	if p.View == nil || p.View.State == nil {
		return ErrMalformedCallback
	}

	frequency := db.FrequencyNever
	if v := stateValue(p.View.State.Values, blockRecurring, ActionRecurringChange); v.SelectedOption != nil {
		frequency = v.SelectedOption.Value
	}

	amended := AmendForFrequency(*p.View, frequency)
	return s.slack.UpdateView(ctx, p.View.ID, amended)
}

// HandleSubmission processes a submitted creation form: a recurring
// definition is persisted for the scheduler to pick up, a one-shot poll
// is posted and persisted immediately. A non-nil ValidationError is a
// field error to render back into the form; nothing was changed.
func (s *Service) HandleSubmission(ctx context.Context, p *slack.InteractionPayload) (*ValidationError, error) {
	def, verr := ParseSubmission(p.View)
	if verr != nil {
		return verr, nil
	}

	if def.Recurrence != nil {
		rec := &db.Record{
			PartitionKey: db.RecurringPartition(p.Team.ID),
			SortTS:       s.sortKey(),
			Title:        def.Title,
			Channel:      def.Channel,
			CreatedBy:    p.User.ID,
			Anonymous:    def.Anonymous,
			VoteLimit:    def.VoteLimit,
			Options:      def.Options,
			Recurrence:   def.Recurrence,
			UUID:         uuid.NewString(),
		}
		if err := s.store.PutRecord(ctx, rec); err != nil {
			return nil, err
		}
		s.log.Info("recurring poll definition created",
			"team", p.Team.ID, "channel", def.Channel, "frequency", def.Recurrence.Frequency)
		return nil, nil
	}

	sortTS := s.sortKey()
	blocks, votes := MessageBlocks(fmt.Sprintf(":%d", sortTS), def.Title, def.Options,
		def.Anonymous, def.VoteLimit, p.User.ID, false)

	if _, err := s.slack.PostMessage(ctx, def.Channel, blocks, def.Title); err != nil {
		return nil, err
	}

	rec := &db.Record{
		PartitionKey: db.PollPartition(p.Team.ID),
		SortTS:       sortTS,
		Title:        def.Title,
		Channel:      def.Channel,
		CreatedBy:    p.User.ID,
		Anonymous:    def.Anonymous,
		VoteLimit:    def.VoteLimit,
		Options:      def.Options,
		Votes:        votes,
	}
	if err := s.store.PutRecord(ctx, rec); err != nil {
		return nil, err
	}

	s.log.Info("poll posted", "team", p.Team.ID, "channel", def.Channel, "poll", sortTS)
	return nil, nil
}
