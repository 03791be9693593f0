package models

import "time"

// Session сессия пользователя. Token хранится в cookie в подписанном виде.
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	IPAddress string    `json:"ipAddress,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Expired сообщает, истекла ли сессия на момент now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// SessionWithUser сессия вместе с владельцем, как ее возвращает get-session.
type SessionWithUser struct {
	Session Session `json:"session"`
	User    User    `json:"user"`
}

// VerificationMail письмо подтверждения, поставленное в очередь на повторную отправку.
type VerificationMail struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	Attempts int    `json:"attempts"`
}
