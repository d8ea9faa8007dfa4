package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EventOrderCreated       = "orders.created"
	EventOrderStatusUpdated = "orders.status_updated"
	EventOrderDeleted       = "orders.deleted"
	EventUserPromoted       = "users.promoted"
)

// Event is the envelope published on the events exchange. Subject is the id
// of the record the event is about: an order id or a user email.
type Event[T any] struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	Version int       `json:"version"`
	Time    time.Time `json:"time"`
	Subject string    `json:"subject"`
	Payload T         `json:"payload"`
}

type EventRaw = Event[json.RawMessage]

func NewEvent[T any](eventType, subject string, payload T) Event[T] {
	return Event[T]{
		ID:      uuid.NewString(),
		Type:    eventType,
		Version: 1,
		Time:    time.Now(),
		Subject: subject,
		Payload: payload,
	}
}

type OrderCreatedPayload struct {
	Email      string  `json:"email"`
	Status     string  `json:"status"`
	TotalPrice float64 `json:"totalPrice"`
	Items      int     `json:"items"`
}

// Email on order payloads is the owner of the order, empty when the order
// could not be read back.
type OrderStatusUpdatedPayload struct {
	Email  string `json:"email"`
	Status string `json:"status"`
}

type OrderDeletedPayload struct {
	Email string `json:"email"`
}

type UserPromotedPayload struct {
	PromotedBy string `json:"promotedBy"`
}
