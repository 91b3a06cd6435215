// Package validation holds the input rules for usernames, passwords and images.
package validation

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	minPasswordLength = 6
	maxPasswordBytes  = 72 // bcrypt limit
	minUsernameLength = 3
	maxUsernameLength = 30
)

var usernameRegex = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9_-]*[A-Za-z0-9])?$`)

var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
}

// ValidatePassword requires at least 6 characters, at most 72 bytes, and at
// least one letter and one digit.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	if len(password) > maxPasswordBytes {
		return fmt.Errorf("password must be at most %d bytes", maxPasswordBytes)
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsSpace(r):
			return errors.New("password must not contain whitespace")
		}
	}
	if !hasLetter || !hasDigit {
		return errors.New("password must contain at least one letter and one digit")
	}
	return nil
}

// ValidateUsername allows 3 to 30 ASCII letters, digits, '_' and '-', not
// starting or ending with a separator.
func ValidateUsername(username string) error {
	if strings.TrimSpace(username) == "" {
		return errors.New("username is required")
	}
	if len(username) < minUsernameLength || len(username) > maxUsernameLength {
		return fmt.Errorf("username must be between %d and %d characters", minUsernameLength, maxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return errors.New("username may contain only letters, digits, '_' and '-'")
	}
	return nil
}

// ValidateImageURL accepts http(s) URLs whose path ends in .jpg, .jpeg or .png.
func ValidateImageURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return errors.New("image URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.New("image must be an absolute http or https URL")
	}
	if _, ok := imageExtensions[strings.ToLower(path.Ext(u.Path))]; !ok {
		return errors.New("image must be a .jpg, .jpeg or .png file")
	}
	return nil
}
