package poll

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"easypoll/db"
	"easypoll/slack"
)

// Block and action ids of the creation form. The vote button and the
// recurrence select are the two interactions routed back to this package.
const (
	CallbackCreate        = "poll-create"
	ActionVote            = "vote-poll"
	ActionRecurringChange = "update-recurring-settings"

	blockTitle      = "title"
	blockChannel    = "channel"
	blockAdvanced   = "advanced-options"
	blockRecurring  = "recurring-settings"
	blockLimitVotes = "limit-votes"

	actionTitle    = "title"
	actionChannel  = "selected-channel"
	actionAdvanced = "create-poll-options-changed"
	actionLimit    = "limit-votes"
	actionOption   = "option"

	optionAnonymous = "anonymous-votes"

	blockRecurringPrefix     = "recurring-sub-settings"
	blockRecurringTZ         = "recurring-sub-settings-tz"
	blockRecurringTime       = "recurring-sub-settings-time"
	blockRecurringDays       = "recurring-sub-settings-days"
	blockRecurringDayNumber  = "recurring-sub-settings-day-number"
	blockRecurringEndDivider = "recurring-sub-settings-final-divider"

	actionTimezone  = "timezone"
	actionTime      = "timepicker"
	actionDays      = "on-which-days"
	actionDayNumber = "on-which-day-number"

	defaultTimezone = "Europe/Amsterdam"
	maxOptions      = 9
)

var weekdays = []string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// ValidationError is bad user input surfaced back into the form as a
// field-level error. Nothing is persisted when one is returned.
type ValidationError struct {
	Field   string
	BlockID string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Definition is a parsed poll submission.
type Definition struct {
	Title      string
	Options    []string
	Channel    string
	Anonymous  bool
	VoteLimit  int
	Recurrence *db.Recurrence // nil for one-shot polls
}

// ParseCommandText splits the slash command argument into a prefilled
// title and options: segments are separated by double quotes, stripped of
// comma/space padding, blanks dropped.
func ParseCommandText(text string) (title string, options []string) {
	for _, part := range strings.Split(text, `"`) {
		part = strings.Trim(part, ", ")
		if part == "" {
			continue
		}
		if title == "" && len(options) == 0 {
			title = part
			continue
		}
		options = append(options, part)
	}
	return title, options
}

// CreationForm builds the poll creation modal. Recurrence sub-fields are
// absent until the frequency select fires and the view is amended.
func CreationForm(prefilledTitle string, prefilledOptions []string, defaultChannel string) slack.View {
	title := slack.PlainText("Create a new poll")
	submit := slack.PlainText("Create")

	limitOptions := make([]slack.Option, 0, 10)
	for i := 0; i < 10; i++ {
		label := strconv.Itoa(i)
		if i == 0 {
			label = "Unlimited"
		}
		limitOptions = append(limitOptions, slack.Opt(label, strconv.Itoa(i)))
	}
	unlimited := limitOptions[0]

	blocks := []slack.Block{
		slack.Input(blockTitle, "What's this poll about",
			slack.TextInput(actionTitle, prefilledTitle, true), false),
		slack.Input(blockChannel, "Pick a channel to post the poll in",
			slack.ChannelSelect(actionChannel, defaultChannel), false),
		slack.Divider(""),
		slack.Input(blockAdvanced, "Advanced options",
			slack.Checkboxes(actionAdvanced, []slack.Option{
				slack.Opt("Anonymous voting", optionAnonymous),
			}), true),
		recurrenceSelect(),
		slack.Input(blockLimitVotes, "Limit the amount of votes",
			slack.StaticSelect(actionLimit, limitOptions, &unlimited), false),
		slack.Divider(""),
	}

	for i := 0; i < maxOptions; i++ {
		initial := ""
		if i < len(prefilledOptions) {
			initial = prefilledOptions[i]
		}
		blocks = append(blocks, slack.Input(
			fmt.Sprintf("option-%d", i),
			fmt.Sprintf("Option %d", i+1),
			slack.TextInput(actionOption, initial, false),
			i >= 2,
		))
	}

	return slack.View{
		Type:       "modal",
		CallbackID: CallbackCreate,
		Title:      &title,
		Submit:     &submit,
		Blocks:     blocks,
	}
}

func recurrenceSelect() slack.Block {
	b := slack.Input(blockRecurring, "Recurring poll",
		slack.StaticSelect(ActionRecurringChange, []slack.Option{
			slack.Opt("Never", db.FrequencyNever),
			slack.Opt("Daily", db.FrequencyDaily),
			slack.Opt("Weekly", db.FrequencyWeekly),
			slack.Opt("Monthly", db.FrequencyMonthly),
		}, nil), false)
	b.DispatchAction = true
	return b
}

// AmendForFrequency rebuilds a creation form for the chosen recurrence
// frequency. All recurrence sub-fields are removed first and re-added from
// scratch, so applying the same frequency twice yields the same view.
func AmendForFrequency(view slack.View, frequency string) slack.View {
	blocks := make([]slack.Block, 0, len(view.Blocks)+4)
	for _, b := range view.Blocks {
		if strings.HasPrefix(b.BlockID, blockRecurringPrefix) {
			continue
		}
		blocks = append(blocks, b)
		if b.BlockID == blockRecurring {
			blocks = append(blocks, recurrenceSubFields(frequency)...)
		}
	}

	out := view
	out.Blocks = blocks
	out.State = nil
	return out
}

func recurrenceSubFields(frequency string) []slack.Block {
	if frequency == db.FrequencyNever {
		return nil
	}

	blocks := []slack.Block{
		slack.Input(blockRecurringTZ, "Timezone",
			slack.TextInput(actionTimezone, defaultTimezone, false), false),
		slack.Input(blockRecurringTime, "Pick a time for posting the poll.",
			slack.TimePicker(actionTime, "Select a time"), false),
	}

	switch frequency {
	case db.FrequencyWeekly:
		opts := make([]slack.Option, 0, len(weekdays))
		for _, day := range weekdays {
			opts = append(opts, slack.Opt(day, day))
		}
		blocks = append(blocks, slack.Input(blockRecurringDays,
			"Select the days on which to post",
			slack.MultiStaticSelect(actionDays, "Select days", opts), false))
	case db.FrequencyMonthly:
		opts := make([]slack.Option, 0, 31)
		for day := 1; day <= 31; day++ {
			label := strconv.Itoa(day)
			if day > 28 {
				label = fmt.Sprintf("%d (will not happen every month)", day)
			}
			opts = append(opts, slack.Opt(label, strconv.Itoa(day)))
		}
		blocks = append(blocks, slack.Input(blockRecurringDayNumber,
			"Select the day of the month on which to post",
			slack.StaticSelect(actionDayNumber, opts, nil), false))
	}

	return append(blocks, slack.Divider(blockRecurringEndDivider))
}

// ParseSubmission extracts a poll definition from a submitted creation
// form. The timezone is the only field validated here; everything else is
// constrained by the form itself.
func ParseSubmission(view *slack.View) (*Definition, *ValidationError) {
	if view == nil || view.State == nil {
		return nil, &ValidationError{Field: "view", Message: "submission carried no state"}
	}
	values := view.State.Values

	def := &Definition{
		Title:   strings.TrimSpace(stateValue(values, blockTitle, actionTitle).Value),
		Channel: stateValue(values, blockChannel, actionChannel).SelectedChannel,
	}

	if v := stateValue(values, blockLimitVotes, actionLimit); v.SelectedOption != nil {
		def.VoteLimit, _ = strconv.Atoi(v.SelectedOption.Value)
	}
	for _, opt := range stateValue(values, blockAdvanced, actionAdvanced).SelectedOptions {
		if opt.Value == optionAnonymous {
			def.Anonymous = true
		}
	}

	// Option blocks are read by index so the submitted order survives.
	for i := 0; i < maxOptions; i++ {
		text := strings.TrimSpace(stateValue(values, fmt.Sprintf("option-%d", i), actionOption).Value)
		if text != "" {
			def.Options = append(def.Options, text)
		}
	}

	frequency := db.FrequencyNever
	if v := stateValue(values, blockRecurring, ActionRecurringChange); v.SelectedOption != nil {
		frequency = v.SelectedOption.Value
	}
	if frequency == db.FrequencyNever {
		return def, nil
	}

	rec := &db.Recurrence{
		Frequency: frequency,
		Timezone:  stateValue(values, blockRecurringTZ, actionTimezone).Value,
		TimeOfDay: stateValue(values, blockRecurringTime, actionTime).SelectedTime,
	}
	for _, opt := range stateValue(values, blockRecurringDays, actionDays).SelectedOptions {
		rec.Days = append(rec.Days, opt.Value)
	}
	if v := stateValue(values, blockRecurringDayNumber, actionDayNumber); v.SelectedOption != nil {
		rec.DayOfMonth, _ = strconv.Atoi(v.SelectedOption.Value)
	}

	if _, err := time.LoadLocation(rec.Timezone); err != nil || rec.Timezone == "" {
		return nil, &ValidationError{
			Field:   "timezone",
			BlockID: blockRecurringTZ,
			Message: "Not a valid timezone. Use e.g. Europe/Amsterdam. " +
				"For a full list see https://en.wikipedia.org/wiki/List_of_tz_database_time_zones.",
		}
	}

	def.Recurrence = rec
	return def, nil
}

func stateValue(values map[string]map[string]slack.StateValue, blockID, actionID string) slack.StateValue {
	if block, ok := values[blockID]; ok {
		return block[actionID]
	}
	return slack.StateValue{}
}
