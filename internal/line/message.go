package line

// Message is anything the Messaging API accepts in a reply or push.
type Message interface {
	message()
}

// TextMessage is a plain text message.
type TextMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (TextMessage) message() {}

// NewText builds a text message.
func NewText(text string) TextMessage {
	return TextMessage{Type: "text", Text: text}
}

// FlexMessage wraps a flex container with its alt text and optional
// quick-reply buttons.
type FlexMessage struct {
	Type       string      `json:"type"`
	AltText    string      `json:"altText"`
	Contents   *Bubble     `json:"contents"`
	QuickReply *QuickReply `json:"quickReply,omitempty"`
}

func (FlexMessage) message() {}

// NewFlex builds a flex message from a bubble.
func NewFlex(altText string, contents *Bubble) FlexMessage {
	return FlexMessage{Type: "flex", AltText: altText, Contents: contents}
}

// WithQuickReply attaches quick-reply actions to the message.
func (m FlexMessage) WithQuickReply(items ...QuickReplyItem) FlexMessage {
	m.QuickReply = &QuickReply{Items: items}
	return m
}

// QuickReply is the row of tappable shortcuts under a message.
type QuickReply struct {
	Items []QuickReplyItem `json:"items"`
}

// QuickReplyItem is one shortcut button.
type QuickReplyItem struct {
	Type   string        `json:"type"`
	Action MessageAction `json:"action"`
}

// MessageAction sends the given text when the button is tapped.
type MessageAction struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	Text  string `json:"text"`
}

// NewMessageAction builds a quick-reply item that sends text on tap.
// Labels are capped at 20 characters by the platform.
func NewMessageAction(label, text string) QuickReplyItem {
	if len([]rune(label)) > 20 {
		label = string([]rune(label)[:20])
	}
	return QuickReplyItem{
		Type:   "action",
		Action: MessageAction{Type: "message", Label: label, Text: text},
	}
}

// Component is any node inside a flex container.
type Component interface {
	component()
}

// Bubble is the top-level flex container.
type Bubble struct {
	Type   string     `json:"type"`
	Size   string     `json:"size,omitempty"`
	Hero   *FlexImage `json:"hero,omitempty"`
	Header *Box       `json:"header,omitempty"`
	Body   *Box       `json:"body,omitempty"`
}

// Box lays out child components vertically, horizontally or along the
// text baseline.
type Box struct {
	Type            string      `json:"type"`
	Layout          string      `json:"layout"`
	Contents        []Component `json:"contents"`
	Spacing         string      `json:"spacing,omitempty"`
	Margin          string      `json:"margin,omitempty"`
	BackgroundColor string      `json:"backgroundColor,omitempty"`
	PaddingAll      string      `json:"paddingAll,omitempty"`
}

func (*Box) component() {}

// Text is a flex text node.
type Text struct {
	Type   string `json:"type"`
	Text   string `json:"text"`
	Weight string `json:"weight,omitempty"`
	Size   string `json:"size,omitempty"`
	Color  string `json:"color,omitempty"`
	Margin string `json:"margin,omitempty"`
	Flex   int    `json:"flex,omitempty"`
	Wrap   bool   `json:"wrap,omitempty"`
}

func (*Text) component() {}

// FlexImage is a flex image node, used for bubble heroes.
type FlexImage struct {
	Type        string `json:"type"`
	URL         string `json:"url"`
	Size        string `json:"size,omitempty"`
	AspectRatio string `json:"aspectRatio,omitempty"`
	AspectMode  string `json:"aspectMode,omitempty"`
}

func (*FlexImage) component() {}

// NewBox builds a box with the given layout and contents.
func NewBox(layout string, contents ...Component) *Box {
	return &Box{Type: "box", Layout: layout, Contents: contents}
}

// NewBubble builds an empty bubble.
func NewBubble() *Bubble {
	return &Bubble{Type: "bubble"}
}
