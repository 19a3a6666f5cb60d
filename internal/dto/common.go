package dto

import "github.com/google/uuid"

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}

// Identity is the authenticated caller as asserted by the auth provider's token.
type Identity struct {
	ID    uuid.UUID
	Email string
	Name  string
}
