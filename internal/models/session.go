package models

import (
	"time"

	"github.com/google/uuid"
)

// Session marks an authenticated browser. It carries nothing but the
// principal's name; it exists from login until logout.
type Session struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

type LoginRequest struct {
	Username string
	Password string
}
