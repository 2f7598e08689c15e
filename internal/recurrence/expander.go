// Package recurrence expands a base booking interval into the concrete
// occurrence intervals described by a recurrence rule.
package recurrence

import (
	"errors"
	"time"

	"github.com/channasilva/crms-server/internal/interval"
)

// Frequency represents supported recurrence intervals.
type Frequency string

const (
	// FrequencyDaily translates the base interval by one day per step.
	FrequencyDaily Frequency = "daily"
	// FrequencyWeekly translates the base interval by seven days per step.
	FrequencyWeekly Frequency = "weekly"
	// FrequencyMonthly translates the base interval by one calendar month per
	// step, clamping to the target month's last day when needed.
	FrequencyMonthly Frequency = "monthly"
)

// MaxOccurrences bounds a single expansion. A rule whose Until would produce
// more occurrences than this fails with ErrRecurrenceTooLong.
const MaxOccurrences = 366

var (
	// ErrInvalidFrequency indicates the rule frequency is not supported.
	ErrInvalidFrequency = errors.New("recurrence: invalid frequency")
	// ErrUntilBeforeStart indicates the rule ends before the base interval begins.
	ErrUntilBeforeStart = errors.New("recurrence: until must be after the base start")
	// ErrRecurrenceTooLong indicates the rule expands past MaxOccurrences.
	ErrRecurrenceTooLong = errors.New("recurrence: rule expands to too many occurrences")
)

// Rule describes a recurrence configuration for a booking request.
// Occurrences are generated while the translated start does not exceed Until.
type Rule struct {
	Frequency Frequency
	Until     time.Time
}

// Validate checks the rule against the base interval start.
func (r Rule) Validate(baseStart time.Time) error {
	switch r.Frequency {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
	default:
		return ErrInvalidFrequency
	}
	if !r.Until.After(baseStart) {
		return ErrUntilBeforeStart
	}
	return nil
}

// Expand materializes the occurrence intervals for the base interval under
// the given rule. Element 0 is always the base interval itself. A nil rule
// yields exactly the base interval.
//
// Monthly steps translate from the base start rather than the previous
// occurrence, so a rule anchored on the 31st lands on the 31st again in
// longer months instead of drifting to whatever day the clamped February
// occurrence fell on.
func Expand(base interval.Interval, rule *Rule) ([]interval.Interval, error) {
	if err := base.Validate(); err != nil {
		return nil, err
	}
	if rule == nil {
		return []interval.Interval{base}, nil
	}
	if err := rule.Validate(base.Start); err != nil {
		return nil, err
	}

	occurrences := make([]interval.Interval, 0, 8)
	for step := 0; ; step++ {
		start := translate(base.Start, rule.Frequency, step)
		if start.After(rule.Until) {
			break
		}
		if len(occurrences) == MaxOccurrences {
			return nil, ErrRecurrenceTooLong
		}
		occurrences = append(occurrences, base.Shift(start))
	}
	return occurrences, nil
}

func translate(start time.Time, freq Frequency, steps int) time.Time {
	switch freq {
	case FrequencyDaily:
		return start.AddDate(0, 0, steps)
	case FrequencyWeekly:
		return start.AddDate(0, 0, 7*steps)
	case FrequencyMonthly:
		return addMonthsClamped(start, steps)
	default:
		return start
	}
}

// addMonthsClamped adds months preserving the day of month where the target
// month allows it, clamping to that month's last day otherwise. Plain
// time.AddDate would normalize Jan 31 + 1 month into March.
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	target := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(target.Year(), target.Month(), t.Location()); day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	// Day zero of the following month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
