package domain

import "time"

type User struct {
	ID                     string     `json:"id"`
	Login                  string     `json:"login"`
	PasswordHash           string     `json:"-"`
	IsAdmin                bool       `json:"is_admin"`
	RememberToken          *string    `json:"-"`
	RememberTokenExpiresAt *time.Time `json:"-"`
	CreatedAt              time.Time  `json:"created_at"`
}

// HasRememberToken indica si el usuario tiene token y expiracion a la vez.
// Un registro con solo uno de los dos campos se considera sin token.
func (u User) HasRememberToken() bool {
	return u.RememberToken != nil && *u.RememberToken != "" && u.RememberTokenExpiresAt != nil
}

// SetRememberToken guarda token y expiracion juntos.
func (u *User) SetRememberToken(token string, expiresAt time.Time) {
	expiresAt = expiresAt.UTC()
	u.RememberToken = &token
	u.RememberTokenExpiresAt = &expiresAt
}

// ClearRememberToken borra token y expiracion juntos.
func (u *User) ClearRememberToken() {
	u.RememberToken = nil
	u.RememberTokenExpiresAt = nil
}
