package session

import (
	"errors"
	"unicode/utf8"
)

const (
	minNameLen   = 2
	maxNameLen   = 50
	mobileDigits = 10
)

var (
	// ErrInvalidName rejects names outside 2..50 characters.
	ErrInvalidName = errors.New("name must be between 2 and 50 characters")
	// ErrInvalidMobile rejects anything but a 10-digit number.
	ErrInvalidMobile = errors.New("mobile must be a 10-digit number")
)

// ValidateName checks a trimmed display name.
func ValidateName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < minNameLen || n > maxNameLen {
		return ErrInvalidName
	}
	return nil
}

// ValidateMobile checks for exactly ten ASCII digits.
func ValidateMobile(mobile string) error {
	if len(mobile) != mobileDigits {
		return ErrInvalidMobile
	}
	for _, r := range mobile {
		if r < '0' || r > '9' {
			return ErrInvalidMobile
		}
	}
	return nil
}
