// Package queue defines message payloads exchanged over the message broker.
package queue

// Notification is the envelope published for every outbound
// notification. Downstream consumers (in-app feed, e-mail sender) read
// Kind to decide how to render the payload, without querying the
// primary database.
type Notification struct {
	RecipientID uint64         `json:"recipient_id"`
	Kind        string         `json:"kind"`
	SentAt      string         `json:"sent_at"`
	Payload     map[string]any `json:"payload,omitempty"`
}

// Notification kinds emitted by the booking core.
const (
	KindBookingReminder  = "booking.reminder"
	KindBookingPaid      = "booking.paid"
	KindBookingCancelled = "booking.cancelled"
)
