package auth

import (
	"errors"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

//go:generate mockgen -source=hash.go -destination=mock_hash.go -package=auth

type HashServiceInterface interface {
	HashPassword(password string) (string, error)
	ComparePassword(hashedPassword, password string) bool
}

var ErrWeakPassword = errors.New("password must be 8-20 characters with an uppercase letter, a lowercase letter, a digit and a special character")

type HashService struct{}

func (b *HashService) HashPassword(password string) (string, error) {
	if err := checkStrength(password); err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (b *HashService) ComparePassword(hashedPassword, password string) bool {
	if hashedPassword == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

func checkStrength(password string) error {
	n := len([]rune(password))
	if n < 8 || n > 20 {
		return ErrWeakPassword
	}
	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	if !upper || !lower || !digit || !special {
		return ErrWeakPassword
	}
	return nil
}
