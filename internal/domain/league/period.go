package league

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidCadence   = errors.New("invalid cadence")
	ErrPeriodOutOfRange = errors.New("period index out of range")
)

const (
	dailyPeriodDuration  = 24 * time.Hour
	weeklyPeriodDuration = 7 * 24 * time.Hour
	dailySeasonLength    = 7
	weeklySeasonLength   = 4
)

func PeriodDuration(c Cadence) (time.Duration, error) {
	switch c {
	case CadenceDaily:
		return dailyPeriodDuration, nil
	case CadenceWeekly:
		return weeklyPeriodDuration, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidCadence, c)
	}
}

// SeasonLength is the number of periods in a season for c.
func SeasonLength(c Cadence) (int, error) {
	switch c {
	case CadenceDaily:
		return dailySeasonLength, nil
	case CadenceWeekly:
		return weeklySeasonLength, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidCadence, c)
	}
}

// PeriodIndex maps now onto the league calendar, clamped to [0, SeasonLength-1].
func PeriodIndex(l League, now time.Time) (int, error) {
	duration, err := PeriodDuration(l.Cadence)
	if err != nil {
		return 0, err
	}
	length, err := SeasonLength(l.Cadence)
	if err != nil {
		return 0, err
	}

	elapsed := now.Sub(l.StartAt)
	if elapsed <= 0 {
		return 0, nil
	}

	index := int(elapsed / duration)
	if index > length-1 {
		index = length - 1
	}
	return index, nil
}

// PeriodBounds returns the half-open window [start, end) of period index.
func PeriodBounds(l League, index int) (time.Time, time.Time, error) {
	duration, err := PeriodDuration(l.Cadence)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	length, err := SeasonLength(l.Cadence)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if index < 0 || index >= length {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %d not in [0,%d)", ErrPeriodOutOfRange, index, length)
	}

	start := l.StartAt.Add(time.Duration(index) * duration)
	return start, start.Add(duration), nil
}

// SeasonEnd is the end of the cadence calendar, cut short by a stored EndAt that comes earlier.
func SeasonEnd(l League) (time.Time, error) {
	duration, err := PeriodDuration(l.Cadence)
	if err != nil {
		return time.Time{}, err
	}
	length, err := SeasonLength(l.Cadence)
	if err != nil {
		return time.Time{}, err
	}
	end := l.StartAt.Add(time.Duration(length) * duration)
	if !l.EndAt.IsZero() && l.EndAt.Before(end) {
		end = l.EndAt
	}
	return end, nil
}

// InSeason reports whether now falls inside [StartAt, SeasonEnd).
func InSeason(l League, now time.Time) (bool, error) {
	end, err := SeasonEnd(l)
	if err != nil {
		return false, err
	}
	return !now.Before(l.StartAt) && now.Before(end), nil
}
