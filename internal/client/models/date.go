package models

import (
	"encoding/json"
	"strings"
	"time"
)

// dateLayout is the wire format the backend accepts for expiry dates.
const dateLayout = "2006-01-02"

// Date is a calendar date without a time component.
//
// The backend is inconsistent about expiry dates: it accepts "2006-01-02"
// on upload but echoes full RFC3339 timestamps on reads. Date accepts both
// on unmarshal and always marshals the date-only form, so the inconsistency
// stops at the API boundary.
type Date struct {
	time.Time
}

// ParseDate parses a "YYYY-MM-DD" string. An empty string yields the zero
// Date (no expiry).
func ParseDate(s string) (Date, error) {
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// String returns the date in "YYYY-MM-DD" form, or "" for the zero Date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	// RFC3339 timestamps carry the date before the 'T'.
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		s = s[:i]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return err
	}
	*d = Date{Time: t}
	return nil
}
