package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	MinPasswordLength    = 6
	MaxTitleLength       = 200
	MaxDescriptionLength = 500
)

// ErrInvalid is wrapped by every validation failure
var ErrInvalid = errors.New("invalid input")

// emailRegex is deliberately loose: something@something.something
var emailRegex = regexp.MustCompile(`\S+@\S+\.\S+`)

// Error describes one rejected field with a message fit for the user
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *Error) Unwrap() error {
	return ErrInvalid
}

func invalid(field, message string) error {
	return &Error{Field: field, Message: message}
}

// ValidateEmail checks an email is present and well-formed
func ValidateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return invalid("email", "Email is required")
	}
	if !emailRegex.MatchString(email) {
		return invalid("email", "Invalid email format")
	}
	return nil
}

// ValidatePassword checks a password is present and long enough
func ValidatePassword(password string) error {
	if strings.TrimSpace(password) == "" {
		return invalid("password", "Password is required")
	}
	if len(password) < MinPasswordLength {
		return invalid("password", fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	}
	return nil
}

// ValidateName checks a display name is present
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return invalid("name", "Full name is required")
	}
	return nil
}

// ValidateCredentials validates a login form in field order
func ValidateCredentials(email, password string) error {
	if err := ValidateEmail(email); err != nil {
		return err
	}
	return ValidatePassword(password)
}

// ValidateRegistration validates a registration form in field order
func ValidateRegistration(name, email, password, confirmPassword string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := ValidateCredentials(email, password); err != nil {
		return err
	}
	if password != confirmPassword {
		return invalid("confirm_password", "Passwords do not match")
	}
	return nil
}

// ValidateTaskTitle checks a task title is present and of reasonable length
func ValidateTaskTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return invalid("title", "Task title is required")
	}
	if len(title) > MaxTitleLength {
		return invalid("title", fmt.Sprintf("Task title must be %d characters or less", MaxTitleLength))
	}
	return nil
}

// ValidateDescription validates an optional task description
func ValidateDescription(description string) error {
	if len(description) > MaxDescriptionLength {
		return invalid("description", fmt.Sprintf("Description must be %d characters or less", MaxDescriptionLength))
	}
	return nil
}

// ValidateTaskID rejects empty or path-like task IDs before they reach a URL
func ValidateTaskID(id string) error {
	if strings.TrimSpace(id) == "" {
		return invalid("id", "Task ID is required")
	}
	if strings.Contains(id, "/") || strings.Contains(id, "..") {
		return invalid("id", "Task ID cannot contain slashes or '..'")
	}
	return nil
}
