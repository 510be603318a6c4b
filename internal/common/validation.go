package common

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	emailRegex = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	phoneRegex = regexp.MustCompile(`^\d{11}$`)
)

const (
	MaxListingNameLength        = 100
	MaxListingDescriptionLength = 200
	MaxListingTags              = 5
)

func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return NewValidationError("name", "name is required")
	}
	if utf8.RuneCountInString(name) > 100 {
		return NewValidationError("name", "name must be at most 100 characters")
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < 6 {
		return NewValidationError("password", "password must be at least 6 characters long")
	}
	if len(password) > 100 {
		return NewValidationError("password", "password is too long")
	}
	return nil
}

func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return NewValidationError("email", "email is required")
	}
	if !emailRegex.MatchString(email) {
		return NewValidationError("email", "invalid email format")
	}
	return nil
}

// ValidatePhone expects the number as entered with its country prefix, e.g.
// "+923001234567". The "+" and a one-digit country code are dropped and the
// rest must be exactly 11 digits.
func ValidatePhone(phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return NewValidationError("phone", "phone is required")
	}
	national := strings.TrimPrefix(phone, "+")
	if len(national) > 0 {
		national = national[1:]
	}
	if !phoneRegex.MatchString(national) {
		return NewValidationError("phone", "phone must have 11 digits after the country code")
	}
	return nil
}

func ValidateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return NewValidationError("rating", "rating must be between 1 and 5")
	}
	return nil
}

// NormalizeEmail lower-cases and trims an address before lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateListing checks the fields a seller can edit on a listing. tags is
// returned de-duplicated in first-seen order.
func ValidateListing(name, description string, price float64, tags []string) ([]string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewValidationError("name", "name is required")
	}
	if utf8.RuneCountInString(name) > MaxListingNameLength {
		return nil, NewValidationError("name", "name must be at most 100 characters")
	}
	if utf8.RuneCountInString(description) > MaxListingDescriptionLength {
		return nil, NewValidationError("description", "description must be at most 200 characters")
	}
	if price < 0 {
		return nil, NewValidationError("price", "price cannot be negative")
	}

	seen := make(map[string]bool, len(tags))
	unique := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[strings.ToLower(tag)] {
			continue
		}
		seen[strings.ToLower(tag)] = true
		unique = append(unique, tag)
	}
	if len(unique) > MaxListingTags {
		return nil, NewValidationError("tags", "a listing can have at most 5 tags")
	}
	return unique, nil
}
