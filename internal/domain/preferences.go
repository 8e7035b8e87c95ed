package domain

import "time"

// Preferences es opaco para el core de autenticacion; solo se carga por usuario.
type Preferences struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	DateFormat string    `json:"date_format"`
	TimeZone   string    `json:"time_zone"`
	WeekStarts int       `json:"week_starts"`
	UpdatedAt  time.Time `json:"updated_at"`
}
