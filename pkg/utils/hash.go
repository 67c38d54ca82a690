package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt silently truncates input at 72 bytes; reject longer passwords
// instead of hashing a prefix.
const maxPasswordBytes = 72

// ErrPasswordTooLong is returned for passwords beyond bcrypt's input limit.
var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// HashPassword hashes a plain password using bcrypt.
func HashPassword(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword compares plain password with hashed password.
func CheckPassword(plain, hashed string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
	return err == nil
}
