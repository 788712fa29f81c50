package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidPIN = errors.New("PIN must be exactly 4 digits")

const bcryptCost = 12

// ValidPIN reports whether pin is four ASCII digits.
func ValidPIN(pin string) bool {
	if len(pin) != 4 {
		return false
	}
	for _, c := range pin {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// HashPIN hashes a sign-in PIN using bcrypt
func HashPIN(pin string) (string, error) {
	if !ValidPIN(pin) {
		return "", ErrInvalidPIN
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcryptCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// CheckPIN compares a PIN with its hash
func CheckPIN(pin, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin))
	return err == nil
}
