package slack

// SlashCommand is the form-encoded body of a slash command callback,
// reduced to the fields the handlers use.
type SlashCommand struct {
	Command   string
	Text      string
	TeamID    string
	ChannelID string
	UserID    string
	TriggerID string
}

// InteractionPayload is the decoded `payload` JSON of a block action or a
// view submission callback.
type InteractionPayload struct {
	Type      string   `json:"type"`
	TriggerID string   `json:"trigger_id"`
	User      User     `json:"user"`
	Team      Team     `json:"team"`
	Channel   Channel  `json:"channel"`
	Message   *Message `json:"message,omitempty"`
	Actions   []Action `json:"actions,omitempty"`
	View      *View    `json:"view,omitempty"`
}

// Interaction payload types.
const (
	TypeBlockActions   = "block_actions"
	TypeViewSubmission = "view_submission"
)

type User struct {
	ID string `json:"id"`
}

type Team struct {
	ID string `json:"id"`
}

type Channel struct {
	ID string `json:"id"`
}

// Message is the message a block action was clicked on.
type Message struct {
	Ts     string  `json:"ts"`
	Team   string  `json:"team"`
	Blocks []Block `json:"blocks"`
}

// Action is one triggered interactive element.
type Action struct {
	ActionID string `json:"action_id"`
	BlockID  string `json:"block_id"`
	Value    string `json:"value,omitempty"`
}

// View is a modal: sent outbound when opening or updating, received
// inbound inside block_actions and view_submission payloads.
type View struct {
	ID         string     `json:"id,omitempty"`
	TeamID     string     `json:"team_id,omitempty"`
	Type       string     `json:"type"`
	CallbackID string     `json:"callback_id"`
	Title      *Text      `json:"title,omitempty"`
	Submit     *Text      `json:"submit,omitempty"`
	Blocks     []Block    `json:"blocks"`
	State      *ViewState `json:"state,omitempty"`
}

// ViewState carries the submitted values, keyed by block id and then by
// action id.
type ViewState struct {
	Values map[string]map[string]StateValue `json:"values"`
}

// StateValue is one submitted input value; which field is set depends on
// the element type.
type StateValue struct {
	Value           string        `json:"value,omitempty"`
	SelectedOption  *StateOption  `json:"selected_option,omitempty"`
	SelectedOptions []StateOption `json:"selected_options,omitempty"`
	SelectedChannel string        `json:"selected_channel,omitempty"`
	SelectedTime    string        `json:"selected_time,omitempty"`
}

type StateOption struct {
	Value string `json:"value"`
}

// ScheduledMessage is one entry of the scheduled-message queue for a
// channel.
type ScheduledMessage struct {
	ID     string  `json:"id"`
	PostAt int64   `json:"post_at"`
	Text   string  `json:"text"`
	Blocks []Block `json:"blocks"`
}
