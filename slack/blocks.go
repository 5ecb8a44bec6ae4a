package slack

// Block is a tagged variant over Slack's layout blocks. The Type field
// selects the variant; only the fields that variant uses are populated.
// Construct blocks through the helpers below so the builders stay
// type-checked instead of dictionary-shaped.
type Block struct {
	Type      string   `json:"type"`
	BlockID   string   `json:"block_id,omitempty"`
	Text      *Text    `json:"text,omitempty"`
	Accessory *Element `json:"accessory,omitempty"`
	Label     *Text    `json:"label,omitempty"`
	Element   *Element `json:"element,omitempty"`
	Optional  bool     `json:"optional,omitempty"`
	Elements  []Text   `json:"elements,omitempty"`

	// DispatchAction makes an input block fire a block_actions payload
	// on change instead of waiting for view submission.
	DispatchAction bool `json:"dispatch_action,omitempty"`
}

// Text is a Slack text object, plain_text or mrkdwn.
type Text struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

// Element is an interactive element: a button, a select, a text input, a
// time picker or a checkbox group, again tagged by Type.
type Element struct {
	Type           string   `json:"type"`
	ActionID       string   `json:"action_id,omitempty"`
	InitialValue   string   `json:"initial_value,omitempty"`
	Multiline      bool     `json:"multiline,omitempty"`
	Placeholder    *Text    `json:"placeholder,omitempty"`
	Options        []Option `json:"options,omitempty"`
	InitialOption  *Option  `json:"initial_option,omitempty"`
	InitialChannel string   `json:"initial_channel,omitempty"`
	Text           *Text    `json:"text,omitempty"`
	Value          string   `json:"value,omitempty"`
}

// Option is one entry of a select or checkbox element.
type Option struct {
	Text  Text   `json:"text"`
	Value string `json:"value"`
}

func PlainText(s string) Text {
	return Text{Type: "plain_text", Text: s, Emoji: true}
}

func Markdown(s string) Text {
	return Text{Type: "mrkdwn", Text: s}
}

func Opt(text, value string) Option {
	return Option{Text: PlainText(text), Value: value}
}

// Section builds a section block; accessory may be nil.
func Section(blockID string, text Text, accessory *Element) Block {
	return Block{Type: "section", BlockID: blockID, Text: &text, Accessory: accessory}
}

func Divider(blockID string) Block {
	return Block{Type: "divider", BlockID: blockID}
}

func Context(elements ...Text) Block {
	return Block{Type: "context", Elements: elements}
}

// Input wraps an interactive element in a labeled input block.
func Input(blockID, label string, element Element, optional bool) Block {
	l := PlainText(label)
	return Block{Type: "input", BlockID: blockID, Label: &l, Element: &element, Optional: optional}
}

func TextInput(actionID, initialValue string, multiline bool) Element {
	return Element{Type: "plain_text_input", ActionID: actionID, InitialValue: initialValue, Multiline: multiline}
}

func ChannelSelect(actionID, initialChannel string) Element {
	return Element{Type: "channels_select", ActionID: actionID, InitialChannel: initialChannel}
}

func Checkboxes(actionID string, options []Option) Element {
	return Element{Type: "checkboxes", ActionID: actionID, Options: options}
}

func StaticSelect(actionID string, options []Option, initial *Option) Element {
	return Element{Type: "static_select", ActionID: actionID, Options: options, InitialOption: initial}
}

func MultiStaticSelect(actionID, placeholder string, options []Option) Element {
	p := PlainText(placeholder)
	return Element{Type: "multi_static_select", ActionID: actionID, Placeholder: &p, Options: options}
}

func TimePicker(actionID, placeholder string) Element {
	p := PlainText(placeholder)
	return Element{Type: "timepicker", ActionID: actionID, Placeholder: &p}
}

func Button(label, actionID, value string) *Element {
	l := PlainText(label)
	return &Element{Type: "button", ActionID: actionID, Value: value, Text: &l}
}
