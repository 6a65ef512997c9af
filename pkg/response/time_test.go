package response

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatTime(t *testing.T) {
	// a non-UTC wall clock must be converted, not relabeled
	loc := time.FixedZone("EST", -5*3600)
	ts := time.Date(2026, 3, 1, 20, 30, 0, 0, loc)
	assert.Equal(t, "2026-03-02T01:30:00Z", FormatTime(ts))

	utc := time.Date(2026, 3, 1, 20, 30, 0, 0, time.UTC)
	assert.Equal(t, "2026-03-01T20:30:00Z", FormatTime(utc))
}
