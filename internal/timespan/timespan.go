package timespan

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidTimespan is returned when a string does not follow the "<n> <unit>" form.
var ErrInvalidTimespan = errors.New("timespan must look like \"<integer> <unit>\"")

// Unit is the calendar unit of a Timespan.
type Unit string

const (
	Minutes Unit = "minutes"
	Hours   Unit = "hours"
	Days    Unit = "days"
	Weeks   Unit = "weeks"
	Months  Unit = "months"
	Years   Unit = "years"
)

const (
	minutesPerDay = 24 * 60
	hoursPerDay   = 24
)

var units = map[string]Unit{
	"minute":  Minutes,
	"minutes": Minutes,
	"hour":    Hours,
	"hours":   Hours,
	"day":     Days,
	"days":    Days,
	"week":    Weeks,
	"weeks":   Weeks,
	"month":   Months,
	"months":  Months,
	"year":    Years,
	"years":   Years,
}

// Timespan is an amount of calendar units, e.g. "7 days".
type Timespan struct {
	Value int  `json:"value"`
	Unit  Unit `json:"unit"`
}

// Parse reads the "<integer> <unit>" text form. Singular units are accepted.
func Parse(s string) (Timespan, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return Timespan{}, fmt.Errorf("%w: %q", ErrInvalidTimespan, s)
	}

	value, err := strconv.Atoi(fields[0])
	if err != nil || value < 0 {
		return Timespan{}, fmt.Errorf("%w: invalid amount %q", ErrInvalidTimespan, fields[0])
	}

	unit, ok := units[strings.ToLower(fields[1])]
	if !ok {
		return Timespan{}, fmt.Errorf("%w: unknown unit %q", ErrInvalidTimespan, fields[1])
	}

	return Timespan{Value: value, Unit: unit}, nil
}

// String returns the canonical text form.
func (t Timespan) String() string {
	return strconv.Itoa(t.Value) + " " + string(t.Unit)
}

// IsZero reports whether the span has no length. Share settings use this for "never".
func (t Timespan) IsZero() bool {
	return t.Value == 0
}

// AddTo adds the span to from. Months and years follow the calendar. Whole
// days are added through the calendar so spans longer than a time.Duration
// still land in the right place.
func (t Timespan) AddTo(from time.Time) time.Time {
	switch t.Unit {
	case Minutes:
		days, rest := t.Value/minutesPerDay, t.Value%minutesPerDay
		return from.AddDate(0, 0, days).Add(time.Duration(rest) * time.Minute)
	case Hours:
		days, rest := t.Value/hoursPerDay, t.Value%hoursPerDay
		return from.AddDate(0, 0, days).Add(time.Duration(rest) * time.Hour)
	case Days:
		return from.AddDate(0, 0, t.Value)
	case Weeks:
		return from.AddDate(0, 0, t.Value*7)
	case Months:
		return from.AddDate(0, t.Value, 0)
	case Years:
		return from.AddDate(t.Value, 0, 0)
	default:
		return from
	}
}

// Duration approximates the span as a fixed duration (30-day months, 365-day
// years). Spans beyond the range of time.Duration saturate at its bounds.
func (t Timespan) Duration() time.Duration {
	var unit time.Duration
	switch t.Unit {
	case Minutes:
		unit = time.Minute
	case Hours:
		unit = time.Hour
	case Days:
		unit = 24 * time.Hour
	case Weeks:
		unit = 7 * 24 * time.Hour
	case Months:
		unit = 30 * 24 * time.Hour
	case Years:
		unit = 365 * 24 * time.Hour
	default:
		return 0
	}

	limit := int64(math.MaxInt64 / unit)
	switch n := int64(t.Value); {
	case n > limit:
		return math.MaxInt64
	case n < -limit:
		return math.MinInt64
	default:
		return time.Duration(n) * unit
	}
}
