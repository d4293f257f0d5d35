package apiutil

import "strings"

// Site describes the club for outbound messages and form defaults.
type Site struct {
	ClubName    string
	BaseURL     string
	ClubInbox   string
	PhoneRegion string
}

// URL joins path onto the public base URL.
func (s Site) URL(path string) string {
	base := strings.TrimSuffix(s.BaseURL, "/")
	if base == "" {
		return ""
	}
	return base + "/" + strings.TrimPrefix(path, "/")
}
