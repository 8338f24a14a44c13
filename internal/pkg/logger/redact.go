package logger

import (
	"regexp"
	"strings"
)

// secretKeyHints marks field names whose values must never be logged in
// full: API keys, tokens, passwords, DSNs with embedded credentials.
var secretKeyHints = []string{"key", "token", "secret", "password", "credential"}

var dsnCredentials = regexp.MustCompile(`://([^:/@]+):([^@]+)@`)

// RedactValue masks sensitive values before they reach the log stream.
// Secret-looking fields keep a short prefix for correlation; connection
// strings get their password stripped.
func RedactValue(key, val string) string {
	lower := strings.ToLower(key)
	for _, hint := range secretKeyHints {
		if strings.Contains(lower, hint) {
			return RedactSecret(val)
		}
	}
	if strings.Contains(lower, "url") || strings.Contains(lower, "dsn") {
		return dsnCredentials.ReplaceAllString(val, "://$1:***@")
	}
	return val
}

// RedactSecret masks a secret, keeping the first four characters so
// operators can tell which credential was in play.
// "sk-abcdef123456" → "sk-a***"
func RedactSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "***"
	}
	return s[:4] + "***"
}
