package event

import (
	"fmt"
	"time"
)

// WireLayout is the single date-time format used for every timestamp on
// the wire. Second granularity, always UTC.
const WireLayout = "2006-01-02T15:04:05"

// WireTime is a timestamp that serializes through WireLayout.
type WireTime struct {
	time.Time
}

// At converts a time to its wire representation, truncating to seconds
// and normalizing to UTC.
func At(t time.Time) WireTime {
	return WireTime{t.UTC().Truncate(time.Second)}
}

// MarshalJSON implements json.Marshaler.
func (t WireTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.UTC().Format(WireLayout) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *WireTime) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("wire time %s: not a JSON string", s)
	}
	parsed, err := time.ParseInLocation(WireLayout, s[1:len(s)-1], time.UTC)
	if err != nil {
		return fmt.Errorf("wire time: %w", err)
	}
	t.Time = parsed
	return nil
}
