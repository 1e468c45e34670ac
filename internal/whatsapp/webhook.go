package whatsapp

import (
	"net/url"
	"strings"
)

// MessageType distinguishes the inbound message kinds the pipeline handles.
type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
)

// IncomingMessage is one parsed inbound webhook delivery.
type IncomingMessage struct {
	MessageSID string      // Twilio message identifier
	From       string      // Sender phone number, whatsapp: prefix stripped
	Body       string      // Message text (may be empty for media messages)
	Type       MessageType // text or image
	MediaURL   string      // First media URL when Type is image
	Timestamp  string      // MessageTimestamp as sent by Twilio, unparsed
}

// ParseWebhook extracts an IncomingMessage from Twilio webhook form values.
// Missing fields parse as zero values; the caller decides what it requires.
func ParseWebhook(form url.Values) IncomingMessage {
	msg := IncomingMessage{
		MessageSID: form.Get("MessageSid"),
		From:       strings.TrimPrefix(form.Get("From"), "whatsapp:"),
		Body:       form.Get("Body"),
		MediaURL:   form.Get("MediaUrl0"),
		Timestamp:  form.Get("MessageTimestamp"),
	}

	switch form.Get("MessageType") {
	case "image":
		msg.Type = MessageTypeImage
	default:
		msg.Type = MessageTypeText
	}
	// Twilio sometimes reports media without a MessageType. Media presence
	// wins over the declared type.
	if msg.MediaURL != "" {
		msg.Type = MessageTypeImage
	}
	return msg
}
