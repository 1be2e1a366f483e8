package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"nauczsie/internal/models"
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	languageRegex = regexp.MustCompile(`^[a-z]{2,3}(-[A-Za-z]{2,4})?$`)
	usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)
)

const (
	maxNameLength     = 100
	maxAPIKeyLength   = 512
	minUsernameLength = 3
	maxUsernameLength = 50
	minPasswordLength = 8
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidateUsername checks a backend account name
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ValidationError{Field: "username", Message: "username is required"}
	}
	if len(username) < minUsernameLength || len(username) > maxUsernameLength {
		return ValidationError{Field: "username", Message: fmt.Sprintf("username must be %d to %d characters", minUsernameLength, maxUsernameLength)}
	}
	if !usernameRegex.MatchString(username) {
		return ValidationError{Field: "username", Message: "username may only contain letters, digits, dots, dashes and underscores"}
	}
	return nil
}

// ValidatePassword checks if a password meets requirements
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	if len(password) < minPasswordLength {
		return ValidationError{Field: "password", Message: fmt.Sprintf("password must be at least %d characters", minPasswordLength)}
	}
	return nil
}

// ValidateLanguagePair checks that both languages are codes like "pl" or
// "pt-BR" and that they differ
func ValidateLanguagePair(pair models.LanguagePair) error {
	if pair.NativeLanguage == "" {
		return ValidationError{Field: "native_lang", Message: "native language is required"}
	}
	if pair.TargetLanguage == "" {
		return ValidationError{Field: "target_lang", Message: "target language is required"}
	}
	if !languageRegex.MatchString(pair.NativeLanguage) {
		return ValidationError{Field: "native_lang", Message: "invalid language code"}
	}
	if !languageRegex.MatchString(pair.TargetLanguage) {
		return ValidationError{Field: "target_lang", Message: "invalid language code"}
	}
	if strings.EqualFold(pair.NativeLanguage, pair.TargetLanguage) {
		return ValidationError{Field: "target_lang", Message: "native and target language must differ"}
	}
	return nil
}

// ValidateName checks a category or tense name
func ValidateName(field, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: field, Message: field + " is required"}
	}
	if len(name) > maxNameLength {
		return ValidationError{Field: field, Message: fmt.Sprintf("%s must be at most %d characters", field, maxNameLength)}
	}
	return nil
}

// ValidateAPIKey checks an OpenAI key before it is stored. An empty key
// is valid and clears the stored one.
func ValidateAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if len(key) > maxAPIKeyLength {
		return ValidationError{Field: "api_key", Message: "API key is too long"}
	}
	if strings.ContainsFunc(key, unicode.IsSpace) {
		return ValidationError{Field: "api_key", Message: "API key must not contain spaces"}
	}
	return nil
}
