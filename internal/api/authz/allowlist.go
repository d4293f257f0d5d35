package authz

import "strings"

// DefaultAdminEmail is honored when no admin emails are configured.
const DefaultAdminEmail = "admin@clubhouse.org"

// AllowList holds the admin subject ids and emails. It is built once at
// startup and never modified afterwards.
type AllowList struct {
	subjectIDs map[string]struct{}
	emails     map[string]struct{}
}

// NewAllowList builds an AllowList from comma-separated configuration values.
// Emails are normalized; subject ids are opaque and matched exactly. An empty
// email list falls back to DefaultAdminEmail.
func NewAllowList(emailsCSV, subjectIDsCSV string) *AllowList {
	emails := splitList(emailsCSV)
	if len(emails) == 0 {
		emails = []string{DefaultAdminEmail}
	}

	list := &AllowList{
		subjectIDs: make(map[string]struct{}),
		emails:     make(map[string]struct{}, len(emails)),
	}
	for _, email := range emails {
		if normalized := NormalizeEmail(email); normalized != "" {
			list.emails[normalized] = struct{}{}
		}
	}
	for _, id := range splitList(subjectIDsCSV) {
		list.subjectIDs[id] = struct{}{}
	}
	return list
}

// HasSubjectID reports whether id is an admin subject id.
func (l *AllowList) HasSubjectID(id string) bool {
	if l == nil || id == "" {
		return false
	}
	_, ok := l.subjectIDs[id]
	return ok
}

// HasEmail reports whether email, once normalized, is an admin email.
func (l *AllowList) HasEmail(email string) bool {
	if l == nil {
		return false
	}
	normalized := NormalizeEmail(email)
	if normalized == "" {
		return false
	}
	_, ok := l.emails[normalized]
	return ok
}

// Size returns the number of subject ids and emails, for startup logging.
func (l *AllowList) Size() (subjectIDs, emails int) {
	if l == nil {
		return 0, 0
	}
	return len(l.subjectIDs), len(l.emails)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
