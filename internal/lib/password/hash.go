// Package password реализует хеширование и проверку паролей пользователей.
//
// GetHash создает bcrypt-хеш пароля для хранения в таблице users.
// CompareHash сравнивает сохраненный хеш с введенным паролем.
package password

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MinLength минимальная длина пароля в символах.
	MinLength = 8
	// MaxLength максимальная длина пароля в байтах, ограничена bcrypt.
	MaxLength = 72
)

var (
	// ErrTooShort пароль короче MinLength.
	ErrTooShort = errors.New("password too short")
	// ErrTooLong пароль длиннее MaxLength.
	ErrTooLong = errors.New("password too long")
	// ErrMismatch пароль не совпадает с хешем.
	ErrMismatch = errors.New("password mismatch")
)

// CheckLength проверяет длину пароля до хеширования.
func CheckLength(password string) error {
	if utf8.RuneCountInString(password) < MinLength {
		return ErrTooShort
	}
	if len(password) > MaxLength {
		return ErrTooLong
	}
	return nil
}

// GetHash принимает пароль пользователя и возвращает его bcrypt‑хэш.
func GetHash(password string) (string, error) {
	const op = "password.GetHash"
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashedPassword), nil
}

// CompareHash сравнивает bcrypt‑хэш с введённым паролем.
//
// Возвращает nil при совпадении, ErrMismatch при несовпадении.
func CompareHash(originalHash, externalPassword string) error {
	const op = "password.CompareHash"
	err := bcrypt.CompareHashAndPassword([]byte(originalHash), []byte(externalPassword))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return fmt.Errorf("%s: %w", op, ErrMismatch)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
