package domain

import "time"

// Session es el contexto autenticado que guarda el servidor.
// Con UserID vacio la sesion es anonima y solo puede llevar ReturnTo.
type Session struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id,omitempty"`
	ReturnTo   string    `json:"return_to,omitempty"`
	NoExpiry   bool      `json:"no_expiry"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

func (s Session) Authenticated() bool {
	return s.UserID != ""
}
