// Package models содержит доменные модели сервиса аутентификации:
// пользователя с дополнительными полями профиля и сессию.
package models

import "time"

const (
	// RoleUser роль по умолчанию при регистрации.
	RoleUser = "user"
	// RoleAdmin роль с доступом к операциям плагина admin.
	RoleAdmin = "admin"
)

// User представляет зарегистрированного пользователя.
type User struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	EmailVerified bool       `json:"emailVerified"`
	Image         string     `json:"image,omitempty"`
	PasswordHash  string     `json:"-"`
	Role          string     `json:"role"`
	Banned        bool       `json:"banned"`
	BanReason     string     `json:"banReason,omitempty"`
	BanExpires    *time.Time `json:"banExpires,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	Profile
}

// Profile дополнительные поля пользователя. Все поля необязательные.
type Profile struct {
	Phone      string `json:"phone,omitempty"`
	RegionCity string `json:"region_city,omitempty"`
	Education  string `json:"education,omitempty"`
	Specialty  string `json:"specialty,omitempty"`
	Workplace  string `json:"workplace,omitempty"`
	JobTitle   string `json:"jobTitle,omitempty"`
}

// IsBanned сообщает, действует ли блокировка пользователя на момент now.
func (u *User) IsBanned(now time.Time) bool {
	if !u.Banned {
		return false
	}
	return u.BanExpires == nil || now.Before(*u.BanExpires)
}
