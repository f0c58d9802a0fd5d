package timeutil

import (
	"strconv"
	"time"
)

// Time is a time.Time that accepts two JSON encodings: an RFC3339 string or
// an integer count of Unix seconds. It always marshals as RFC3339.
type Time time.Time

func (t *Time) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" || s == "{}" {
		return nil
	}
	if s[0] == '"' {
		tt, err := time.Parse(`"`+time.RFC3339+`"`, s)
		if err != nil {
			return err
		}
		*t = Time(tt)
		return nil
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*t = Time(time.Unix(i, 0).UTC())
	return nil
}

func (t Time) MarshalJSON() ([]byte, error) {
	return time.Time(t).MarshalJSON()
}

func (t Time) Time() time.Time {
	return time.Time(t)
}

// Equal reports whether both values represent the same instant.
func (t Time) Equal(u Time) bool {
	return time.Time(t).Equal(time.Time(u))
}

func (t Time) IsZero() bool {
	return time.Time(t).IsZero()
}
