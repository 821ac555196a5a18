package utils

import "strings"

// NormalizeBaseURL canonicalizes an API base URL: surrounding whitespace and
// trailing slashes are removed and a missing scheme defaults to https. An
// empty value stays empty so callers can substitute their own default.
func NormalizeBaseURL(raw string) string {
	v := strings.TrimSpace(raw)
	v = strings.TrimRight(v, "/")
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "http://") && !strings.HasPrefix(v, "https://") {
		v = "https://" + v
	}
	return v
}
