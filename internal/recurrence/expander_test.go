package recurrence

import (
	"errors"
	"testing"
	"time"

	"github.com/channasilva/crms-server/internal/interval"
)

func base(t *testing.T, year int, month time.Month, day, hour int) interval.Interval {
	t.Helper()
	start := time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
	return interval.Interval{Start: start, End: start.Add(time.Hour)}
}

func TestExpandNilRuleYieldsBase(t *testing.T) {
	t.Parallel()

	iv := base(t, 2024, time.January, 1, 10)
	got, err := Expand(iv, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || !got[0].Start.Equal(iv.Start) || !got[0].End.Equal(iv.End) {
		t.Fatalf("expected exactly the base interval, got %v", got)
	}
}

func TestExpandWeekly(t *testing.T) {
	t.Parallel()

	iv := base(t, 2024, time.January, 1, 10)
	rule := &Rule{Frequency: FrequencyWeekly, Until: time.Date(2024, time.January, 22, 0, 0, 0, 0, time.UTC)}

	got, err := Expand(iv, rule)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 occurrences (Jan 1, 8, 15), got %d", len(got))
	}

	// Until that includes the Jan 22 start instant yields the fourth occurrence.
	rule.Until = time.Date(2024, time.January, 22, 10, 0, 0, 0, time.UTC)
	got, err = Expand(iv, rule)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 occurrences, got %d", len(got))
	}
	wantDays := []int{1, 8, 15, 22}
	for i, occ := range got {
		if occ.Start.Day() != wantDays[i] {
			t.Fatalf("occurrence %d starts on day %d, want %d", i, occ.Start.Day(), wantDays[i])
		}
		if occ.Duration() != time.Hour {
			t.Fatalf("occurrence %d lost the base duration", i)
		}
	}
}

func TestExpandStartsAreNonDecreasing(t *testing.T) {
	t.Parallel()

	iv := base(t, 2024, time.March, 15, 9)
	rule := &Rule{Frequency: FrequencyDaily, Until: iv.Start.AddDate(0, 0, 30)}

	got, err := Expand(iv, rule)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 31 {
		t.Fatalf("expected 31 daily occurrences, got %d", len(got))
	}
	if !got[0].Start.Equal(iv.Start) {
		t.Fatalf("expected element 0 to equal the base interval")
	}
	for i := 1; i < len(got); i++ {
		if got[i].Start.Before(got[i-1].Start) {
			t.Fatalf("occurrence starts decreased at index %d", i)
		}
	}
}

func TestExpandMonthlyClampsToShortMonths(t *testing.T) {
	t.Parallel()

	iv := base(t, 2024, time.January, 31, 14)
	rule := &Rule{Frequency: FrequencyMonthly, Until: time.Date(2024, time.April, 30, 23, 0, 0, 0, time.UTC)}

	got, err := Expand(iv, rule)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 occurrences, got %d", len(got))
	}

	// 2024 is a leap year: February clamps to the 29th, not March.
	feb := got[1].Start
	if feb.Month() != time.February || feb.Day() != 29 {
		t.Fatalf("expected February occurrence on the 29th, got %v", feb)
	}
	// March has 31 days again; the anchor day is restored rather than drifting.
	mar := got[2].Start
	if mar.Month() != time.March || mar.Day() != 31 {
		t.Fatalf("expected March occurrence on the 31st, got %v", mar)
	}
	apr := got[3].Start
	if apr.Month() != time.April || apr.Day() != 30 {
		t.Fatalf("expected April occurrence clamped to the 30th, got %v", apr)
	}
}

func TestExpandMonthlyClampNonLeapYear(t *testing.T) {
	t.Parallel()

	iv := base(t, 2023, time.January, 31, 9)
	rule := &Rule{Frequency: FrequencyMonthly, Until: time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC)}

	got, err := Expand(iv, rule)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 occurrences, got %d", len(got))
	}
	feb := got[1].Start
	if feb.Month() != time.February || feb.Day() != 28 {
		t.Fatalf("expected February occurrence clamped to the 28th, got %v", feb)
	}
}

func TestExpandCapsAtMaxOccurrences(t *testing.T) {
	t.Parallel()

	iv := base(t, 2024, time.January, 1, 10)
	rule := &Rule{Frequency: FrequencyDaily, Until: iv.Start.AddDate(10, 0, 0)}

	if _, err := Expand(iv, rule); !errors.Is(err, ErrRecurrenceTooLong) {
		t.Fatalf("expected ErrRecurrenceTooLong, got %v", err)
	}

	// Exactly at the ceiling is allowed.
	rule.Until = iv.Start.AddDate(0, 0, MaxOccurrences-1)
	got, err := Expand(iv, rule)
	if err != nil {
		t.Fatalf("unexpected error at the cap boundary: %v", err)
	}
	if len(got) != MaxOccurrences {
		t.Fatalf("expected %d occurrences, got %d", MaxOccurrences, len(got))
	}
}

func TestExpandRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	iv := base(t, 2024, time.January, 1, 10)

	if _, err := Expand(interval.Interval{Start: iv.End, End: iv.Start}, nil); !errors.Is(err, interval.ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval, got %v", err)
	}
	if _, err := Expand(iv, &Rule{Frequency: "hourly", Until: iv.Start.AddDate(0, 0, 7)}); !errors.Is(err, ErrInvalidFrequency) {
		t.Fatalf("expected ErrInvalidFrequency, got %v", err)
	}
	if _, err := Expand(iv, &Rule{Frequency: FrequencyWeekly, Until: iv.Start}); !errors.Is(err, ErrUntilBeforeStart) {
		t.Fatalf("expected ErrUntilBeforeStart, got %v", err)
	}
}
