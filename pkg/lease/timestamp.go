package lease

import (
	"time"

	"go.uber.org/zap"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// timeFormats are the layouts the Kubernetes API server has been observed to
// serialize lease timestamps with, most specific first. The final entries
// cover naive date-times with no offset, which are assumed to be UTC.
var timeFormats = []string{
	metav1.RFC3339Micro,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000000",
	"2006-01-02T15:04:05",
}

// parseTime parses a serialized timestamp, trying each known layout in turn.
func parseTime(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range timeFormats {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// ParseTime parses a serialized lease timestamp. An empty value means the
// field was never set and yields the zero time. A malformed value is logged
// and falls back to the current time: the loop staying alive matters more
// than perfect clock fidelity, and "assume now" keeps an unparseable lease
// looking live rather than instantly expired.
func ParseTime(value string, log *zap.SugaredLogger) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := parseTime(value)
	if err != nil {
		log.Warnw("Could not parse lease timestamp, assuming now", "value", value, "error", err)
		return time.Now().UTC()
	}
	return t
}

// FormatTime serializes a timestamp the way the API server does. The zero
// time serializes to the empty string (field unset).
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(metav1.RFC3339Micro)
}
