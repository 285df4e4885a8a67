package domain

import (
	"errors"
	"time"
)

// InteractionType classifies a logged customer touchpoint.
type InteractionType string

const (
	InteractionCall          InteractionType = "CALL"
	InteractionEmail         InteractionType = "EMAIL"
	InteractionMeeting       InteractionType = "MEETING"
	InteractionSupportTicket InteractionType = "SUPPORT_TICKET"
)

// ParseInteractionType converts a string to an InteractionType.
func ParseInteractionType(s string) (InteractionType, error) {
	switch InteractionType(s) {
	case InteractionCall, InteractionEmail, InteractionMeeting, InteractionSupportTicket:
		return InteractionType(s), nil
	}
	return "", errors.New("invalid interaction type")
}

var ErrInteractionNotFound = errors.New("interaction not found")

// Interaction records a single customer touchpoint. Interactions never affect
// the purchase ledger; they are read by the reporting engine only.
type Interaction struct {
	ID              string          `json:"id"`
	Type            InteractionType `json:"type"`
	InteractionDate time.Time       `json:"interaction_date"`
	Notes           string          `json:"notes,omitempty"`
	CustomerID      string          `json:"customer_id"`
	PerformedByID   string          `json:"performed_by_id"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
