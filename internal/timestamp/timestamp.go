package timestamp

import (
	"regexp"
	"strings"
	"time"
)

// Canonical is the storage timestamp layout: ISO-8601, UTC, second
// precision, Z-suffixed. Sort order on the string equals time order.
const Canonical = "2006-01-02T15:04:05Z"

var canonicalRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(Z|[+-]\d{2}:?\d{2})$`)

// Layouts accepted from upstream feeds, tried in order.
var knownLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// Normalize converts heterogeneous date/time strings into the canonical
// representation. It is total: input that matches no known layout is
// returned unchanged, so the result is only guaranteed canonical when
// IsCanonical reports true.
func Normalize(raw string) string {
	if hasTimezoneMarker(raw) {
		return raw
	}

	if len(raw) == 10 {
		if _, err := time.Parse("2006-01-02", raw); err == nil {
			return raw + "T00:00:00Z"
		}
	}

	for _, layout := range knownLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(Canonical)
		}
	}

	return raw
}

// IsCanonical reports whether s matches the canonical timestamp shape.
func IsCanonical(s string) bool {
	return canonicalRe.MatchString(s)
}

// hasTimezoneMarker detects an already-zoned timestamp: a 'T' separator
// plus either a Z suffix, a '+HH:MM' offset, or a '-HH:MM' offset after
// the time part (the date dashes before 'T' do not count).
func hasTimezoneMarker(raw string) bool {
	idx := strings.IndexByte(raw, 'T')
	if idx < 0 {
		return false
	}
	rest := raw[idx+1:]
	if strings.HasSuffix(raw, "Z") {
		return true
	}
	return strings.ContainsAny(rest, "+") || strings.Contains(rest, "-")
}
