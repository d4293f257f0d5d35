package apiutil

import (
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"unicode/utf8"
)

// RequiredString trims value and checks it is present and at most maxLen runes.
func RequiredString(field, value string, maxLen int) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", FieldError{Field: field, Reason: "is required"}
	}
	return OptionalString(field, value, maxLen)
}

// OptionalString trims value and enforces maxLen runes when set.
func OptionalString(field, value string, maxLen int) (string, error) {
	value = strings.TrimSpace(value)
	if maxLen > 0 && utf8.RuneCountInString(value) > maxLen {
		return "", FieldError{Field: field, Reason: "must be " + strconv.Itoa(maxLen) + " characters or fewer"}
	}
	return value, nil
}

// ParseEmail validates a bare address and returns it trimmed and lower-cased.
func ParseEmail(field, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", FieldError{Field: field, Reason: "is required"}
	}
	if len(raw) > 254 {
		return "", FieldError{Field: field, Reason: "is too long"}
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw || addr.Name != "" {
		return "", FieldError{Field: field, Reason: "must be a valid email address"}
	}
	at := strings.LastIndex(addr.Address, "@")
	if at <= 0 || !strings.Contains(addr.Address[at+1:], ".") {
		return "", FieldError{Field: field, Reason: "must be a valid email address"}
	}
	return strings.ToLower(addr.Address), nil
}

// IntQuery reads a positive integer query parameter, returning def when it
// is absent and clamping it to max.
func IntQuery(r *http.Request, key string, def, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, FieldError{Field: key, Reason: "must be a positive integer"}
	}
	if max > 0 && value > max {
		value = max
	}
	return value, nil
}
