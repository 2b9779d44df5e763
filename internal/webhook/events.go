package webhook

// Payload is the body of a Messaging API webhook delivery.
type Payload struct {
	Destination string  `json:"destination"`
	Events      []Event `json:"events"`
}

// Event is one webhook event. Only message events are handled; other
// types (follow, unfollow, join) are ignored.
type Event struct {
	Type       string  `json:"type"`
	ReplyToken string  `json:"replyToken"`
	Source     Source  `json:"source"`
	Message    Message `json:"message"`
	Timestamp  int64   `json:"timestamp"`
}

// Source identifies who sent the event.
type Source struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

// Message is the message attached to a message event.
type Message struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Text string `json:"text"`
}
