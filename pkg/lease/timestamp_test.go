package lease

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestParseTimeFormats(t *testing.T) {
	want := time.Date(2026, 8, 29, 10, 30, 15, 0, time.UTC)

	tests := []struct {
		name  string
		value string
	}{
		{"RFC3339 micro", "2026-08-29T10:30:15.000000Z"},
		{"RFC3339", "2026-08-29T10:30:15Z"},
		{"RFC3339 with offset", "2026-08-29T12:30:15+02:00"},
		{"naive with microseconds assumed UTC", "2026-08-29T10:30:15.000000"},
		{"naive assumed UTC", "2026-08-29T10:30:15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTime(tt.value)
			require.NoError(t, err)
			assert.True(t, got.Equal(want), "parsed %v, want %v", got, want)
		})
	}
}

func TestParseTimeEmptyMeansUnset(t *testing.T) {
	got := ParseTime("", zaptest.NewLogger(t).Sugar())
	assert.True(t, got.IsZero())
}

func TestParseTimeMalformedFallsBackToNow(t *testing.T) {
	log := zaptest.NewLogger(t).Sugar()

	before := time.Now().UTC()
	got := ParseTime("not-a-timestamp", log)
	after := time.Now().UTC()

	assert.False(t, got.IsZero())
	assert.False(t, got.Before(before))
	assert.False(t, got.After(after))
}

func TestFormatTimeRoundTrip(t *testing.T) {
	in := time.Date(2026, 8, 29, 10, 30, 15, 123456000, time.UTC)

	out, err := parseTime(FormatTime(in))
	require.NoError(t, err)
	assert.True(t, out.Equal(in))
}

func TestFormatTimeZeroIsEmpty(t *testing.T) {
	assert.Equal(t, "", FormatTime(time.Time{}))
}
