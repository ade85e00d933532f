package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"tours/entity"
)

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hashed), nil
}

func CheckPassword(hashed, candidate string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(candidate))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return entity.ErrInvalidCredentials
	}
	return err
}
