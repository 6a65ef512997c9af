package response

import "time"

// FormatTime renders an instant as the API's timestamp string: RFC 3339 in
// UTC, regardless of the zone the value was produced in.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
