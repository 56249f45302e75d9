package logger

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// secretKeys are field names whose values never reach the log.
var secretKeys = []string{"token", "authorization", "api_key", "secret"}

// RedactEmail masks the local part of an address, keeping the first two
// characters: "john.doe@example.com" becomes "jo***@example.com". Local
// parts of two characters or fewer are masked entirely.
func RedactEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(domain, "@") {
		return "***@***"
	}
	if len(local) > 2 {
		return local[:2] + "***@" + domain
	}
	return "***@" + domain
}

func redactPIIValue(key, val string) string {
	key = strings.ToLower(key)
	for _, k := range secretKeys {
		if strings.Contains(key, k) {
			return "[redacted]"
		}
	}
	if strings.Contains(key, "email") || key == "to" || key == "reply_to" {
		return RedactEmail(val)
	}
	return emailPattern.ReplaceAllStringFunc(val, RedactEmail)
}
