package logging

import "regexp"

// RedactedValue is the replacement for sensitive values.
const RedactedValue = "[REDACTED]"

// The login token travels as the t query parameter and shows up verbatim in
// transport errors.
var tokenParam = regexp.MustCompile(`([?&]t=)[^&\s"']+`)

// Redact replaces login tokens embedded in URLs within s.
func Redact(s string) string {
	return tokenParam.ReplaceAllString(s, "${1}"+RedactedValue)
}
