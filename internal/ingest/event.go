// Package ingest consumes inbound chat events. The actual chat transport
// (session management, media download, identity resolution) lives outside
// this repository; it pushes events here and answers attachment fetches.
package ingest

import (
	"context"
	"time"
)

// QuotedRef references the prior message an event replies to.
type QuotedRef struct {
	MessageID string `json:"message_id"`
	IsImage   bool   `json:"is_image"`
}

// Event is one inbound chat message, as delivered by the transport.
type Event struct {
	IsGroup        bool       `json:"is_group"`
	GroupName      string     `json:"group_name"`
	SenderName     string     `json:"sender_name"`
	SenderNumber   string     `json:"sender_number"`
	Body           string     `json:"body"`
	HasAttachment  bool       `json:"has_attachment"`
	AttachmentMime string     `json:"attachment_mime"`
	MessageID      string     `json:"message_id"`
	QuotedMessage  *QuotedRef `json:"quoted_message,omitempty"`
	Timestamp      time.Time  `json:"timestamp"`
}

// Sender returns the display identity: the push name when present,
// otherwise the number.
func (e Event) Sender() string {
	if e.SenderName != "" {
		return e.SenderName
	}
	return e.SenderNumber
}

// Fetcher retrieves attachment bytes for a message reference. Provided by
// the transport collaborator.
type Fetcher interface {
	FetchAttachment(ctx context.Context, messageID string) (content []byte, mimeType string, err error)
}
