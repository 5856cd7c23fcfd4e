// Package datemath implements the calendar arithmetic for annual MM-DD
// recurrence: days until the next occurrence, the next absolute trigger
// instant for a reminder, and year-agnostic display formatting.
//
// All math is local wall-clock; the location of the reference instant is
// authoritative. A day-of-month that does not exist in the target year is
// clamped to the last day of that month, so Feb 29 falls on Feb 28 in
// non-leap years and stays on Feb 29 in leap years.
package datemath

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tartampluch/remind-day/internal/config"
)

const hoursPerDay = 24

// ParseMonthDay splits a canonical MM-DD string into its numeric parts.
// It validates the month range and the day against the longest form of the
// month (Feb admits 29), rejecting impossible dates like 02-30 or 04-31.
func ParseMonthDay(birthDate string) (time.Month, int, error) {
	parts := strings.SplitN(birthDate, "-", 2)
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, 0, errors.New(config.ErrBirthDateFormat)
	}

	m, err := strconv.Atoi(parts[0])
	if err != nil || m < 1 || m > 12 {
		return 0, 0, errors.New(config.ErrBirthDateFormat)
	}
	d, err := strconv.Atoi(parts[1])
	if err != nil || d < 1 || d > maxDaysIn(time.Month(m)) {
		return 0, 0, errors.New(config.ErrBirthDateFormat)
	}

	return time.Month(m), d, nil
}

// ParseTimeOfDay splits a canonical HH:MM string into hour and minute.
func ParseTimeOfDay(timeOfDay string) (int, int, error) {
	t, err := time.Parse(config.TimeOfDayLayout, timeOfDay)
	if err != nil {
		return 0, 0, errors.New(config.ErrTimeFormat)
	}
	return t.Hour(), t.Minute(), nil
}

// DaysUntilNext returns the number of whole days until the next occurrence
// of birthDate relative to now. The result is 0 when the occurrence is
// today, at least 1 otherwise, and never negative.
func DaysUntilNext(birthDate string, now time.Time) (int, error) {
	month, day, err := ParseMonthDay(birthDate)
	if err != nil {
		return 0, err
	}

	loc := now.Location()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	occ := occurrenceIn(now.Year(), month, day, loc)
	if occ.Before(todayStart) {
		occ = occurrenceIn(now.Year()+1, month, day, loc)
	}

	days := int(math.Ceil(occ.Sub(now).Hours() / hoursPerDay))
	if days < 0 {
		// Occurrence is today: the midnight anchor is behind "now" by less
		// than a day, and ceil of that small negative fraction is zero.
		days = 0
	}
	return days, nil
}

// NextTrigger returns the next instant at which a reminder for birthDate
// should fire, given the configured time of day. An instant at or before
// now rolls over to the following year.
func NextTrigger(birthDate, timeOfDay string, now time.Time) (time.Time, error) {
	month, day, err := ParseMonthDay(birthDate)
	if err != nil {
		return time.Time{}, err
	}
	hour, minute, err := ParseTimeOfDay(timeOfDay)
	if err != nil {
		return time.Time{}, err
	}

	loc := now.Location()
	trigger := triggerIn(now.Year(), month, day, hour, minute, loc)
	if !trigger.After(now) {
		trigger = triggerIn(now.Year()+1, month, day, hour, minute, loc)
	}
	return trigger, nil
}

// NextTriggerAfter is NextTrigger with pre-parsed components. It backs the
// yearly notification schedule, which re-evaluates the clamp every year.
func NextTriggerAfter(month time.Month, day, hour, minute int, now time.Time) time.Time {
	loc := now.Location()
	trigger := triggerIn(now.Year(), month, day, hour, minute, loc)
	if !trigger.After(now) {
		trigger = triggerIn(now.Year()+1, month, day, hour, minute, loc)
	}
	return trigger
}

// OccurrenceIn returns the concrete calendar date of birthDate in the given
// year, with the day clamp applied.
func OccurrenceIn(year int, month time.Month, day int, loc *time.Location) time.Time {
	return occurrenceIn(year, month, day, loc)
}

// FormatDisplay renders MM-DD as a long month name plus day, year-agnostic
// ("03-14" -> "March 14").
func FormatDisplay(birthDate string) (string, error) {
	month, day, err := ParseMonthDay(birthDate)
	if err != nil {
		return "", err
	}
	// The reference year is a leap year so Feb 29 formats as-is.
	d := time.Date(config.DefaultLeapYear, month, day, 0, 0, 0, 0, time.UTC)
	return d.Format(config.DisplayLayout), nil
}

// MonthDayOf renders a time as the canonical MM-DD recurrence key.
func MonthDayOf(t time.Time) string {
	return t.Format(config.MonthDayLayout)
}

// IsLeapYear reports whether the year has a Feb 29.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func occurrenceIn(year int, month time.Month, day int, loc *time.Location) time.Time {
	day = clampDay(year, month, day)
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

func triggerIn(year int, month time.Month, day, hour, minute int, loc *time.Location) time.Time {
	day = clampDay(year, month, day)
	return time.Date(year, month, day, hour, minute, 0, 0, loc)
}

// clampDay pins the day to the last existing day of month in year.
// Without this, time.Date would normalize Feb 29 into March 1.
func clampDay(year int, month time.Month, day int) int {
	if last := daysIn(year, month); day > last {
		return last
	}
	return day
}

// daysIn returns the number of days of month in year.
func daysIn(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this month.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// maxDaysIn returns the longest possible form of month (Feb = 29).
func maxDaysIn(month time.Month) int {
	return daysIn(config.DefaultLeapYear, month)
}
