package span

import "github.com/clinpipe/clinpipe/errors"

// TimeSpan is a time interval in seconds inside an audio document.
type TimeSpan struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// NewTimeSpan validates boundaries: non-negative, start strictly before end.
func NewTimeSpan(start, end float64) (TimeSpan, error) {
	if start < 0 || end <= start {
		return TimeSpan{}, errors.NewInvalidSpan("time interval [%g,%g) is empty or negative", start, end)
	}
	return TimeSpan{Start: start, End: end}, nil
}

// Duration is the interval length in seconds.
func (t TimeSpan) Duration() float64 { return t.End - t.Start }

// Overlaps reports whether two intervals intersect.
func (t TimeSpan) Overlaps(other TimeSpan) bool {
	return t.Start < other.End && other.Start < t.End
}
