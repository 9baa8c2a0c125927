// Package queue defines message payloads exchanged over the message broker.
package queue

// CheckoutQueueName is the durable queue checkout events are routed to.
const CheckoutQueueName = "checkout.created"

// CheckoutCreatedEvent is published once a checkout row has been persisted.
// It carries enough for downstream consumers to audit or notify without
// querying the primary database.
type CheckoutCreatedEvent struct {
	CheckoutID      uint64 `json:"checkout_id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	PhoneNumber     string `json:"phone_number"`
	Country         string `json:"country"`
	NoOfGuests      int    `json:"no_of_guests"`
	HasPaid         bool   `json:"has_paid"`
	HasPassport     bool   `json:"has_passport"`
	VerificationURL string `json:"verification_url"`
	CreatedAt       string `json:"created_at"`
}
