package whatsapp

import (
	"encoding/json"
	"strings"

	"pedibot/internal"
)

// WebhookPayload mirrors the Meta Cloud API webhook envelope. Only the
// fields the pipeline consumes are declared.
type WebhookPayload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Field string      `json:"field"`
	Value ChangeValue `json:"value"`
}

type ChangeValue struct {
	Contacts []Contact `json:"contacts"`
	Messages []Message `json:"messages"`
}

type Contact struct {
	WaID string `json:"wa_id"`
}

type Message struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	Text     *Text     `json:"text"`
	Document *Document `json:"document"`
}

type Text struct {
	Body string `json:"body"`
}

type Document struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
	Caption  string `json:"caption"`
}

// ParseInbound lifts the first message out of a webhook envelope. Document
// messages use the caption as the message body. Returns false for payloads
// with no consumable message (status updates, unsupported types).
func ParseInbound(raw []byte) (internal.InboundMessage, bool) {
	var payload WebhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return internal.InboundMessage{}, false
	}
	if len(payload.Entry) == 0 || len(payload.Entry[0].Changes) == 0 {
		return internal.InboundMessage{}, false
	}

	value := payload.Entry[0].Changes[0].Value
	if len(value.Contacts) == 0 || len(value.Messages) == 0 {
		return internal.InboundMessage{}, false
	}

	msg := value.Messages[0]
	out := internal.InboundMessage{
		ID:   msg.ID,
		From: value.Contacts[0].WaID,
		Raw:  json.RawMessage(raw),
	}

	switch msg.Type {
	case "text":
		if msg.Text == nil {
			return internal.InboundMessage{}, false
		}
		out.Body = strings.TrimSpace(msg.Text.Body)
	case "document":
		if msg.Document == nil {
			return internal.InboundMessage{}, false
		}
		out.Body = strings.TrimSpace(msg.Document.Caption)
		out.Document = &internal.DocumentRef{
			ID:       msg.Document.ID,
			Filename: msg.Document.Filename,
			MimeType: msg.Document.MimeType,
		}
	default:
		return internal.InboundMessage{}, false
	}

	if out.ID == "" || out.From == "" {
		return internal.InboundMessage{}, false
	}
	return out, true
}
