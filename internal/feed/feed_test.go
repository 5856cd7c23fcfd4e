package feed_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tartampluch/remind-day/internal/feed"
	"github.com/tartampluch/remind-day/internal/store"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func newBuilder() *feed.Builder {
	return &feed.Builder{
		Clock: fixedClock{now: time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC)},
	}
}

func TestBuild_ThreeYearsPerRecord(t *testing.T) {
	b := newBuilder()

	ics, today, err := b.Build(context.Background(), []store.Birthday{
		{ID: 1, Name: "Alice", BirthDate: "03-14"},
	})
	require.NoError(t, err)
	assert.Zero(t, today)

	out := string(ics)
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "X-WR-CALNAME:Birthdays")
	assert.Contains(t, out, "SUMMARY:Birthday: Alice")

	// Previous, current and next year are all present.
	assert.Contains(t, out, "20240314")
	assert.Contains(t, out, "20250314")
	assert.Contains(t, out, "20260314")
	assert.Equal(t, 3, strings.Count(out, "BEGIN:VEVENT"))
}

func TestBuild_CountsToday(t *testing.T) {
	b := newBuilder()

	_, today, err := b.Build(context.Background(), []store.Birthday{
		{ID: 1, Name: "Alice", BirthDate: "06-15"},
		{ID: 2, Name: "Bob", BirthDate: "06-15"},
		{ID: 3, Name: "Carol", BirthDate: "12-25"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, today)
}

func TestBuild_LeapDayClampsPerYear(t *testing.T) {
	b := newBuilder()

	ics, _, err := b.Build(context.Background(), []store.Birthday{
		{ID: 1, Name: "Leap", BirthDate: "02-29"},
	})
	require.NoError(t, err)

	out := string(ics)
	// 2024 is a leap year; 2025 and 2026 clamp to Feb 28.
	assert.Contains(t, out, "20240229")
	assert.Contains(t, out, "20250228")
	assert.Contains(t, out, "20260228")
}

func TestBuild_AlarmAndDescription(t *testing.T) {
	b := newBuilder()
	b.ReminderTrigger = "-PT15M"

	ics, _, err := b.Build(context.Background(), []store.Birthday{
		{ID: 1, Name: "Alice", BirthDate: "03-14", Note: "Loves pie"},
	})
	require.NoError(t, err)

	out := string(ics)
	assert.Contains(t, out, "BEGIN:VALARM")
	assert.Contains(t, out, "ACTION:DISPLAY")
	assert.Contains(t, out, "TRIGGER:-PT15M")
	assert.Contains(t, out, "DESCRIPTION:Loves pie")
}

func TestBuild_LocalizedSummary(t *testing.T) {
	b := newBuilder()
	b.FormatSummary = func(name string) string { return "Anniversaire de " + name }

	ics, _, err := b.Build(context.Background(), []store.Birthday{
		{ID: 1, Name: "Alice", BirthDate: "03-14"},
	})
	require.NoError(t, err)
	assert.Contains(t, string(ics), "SUMMARY:Anniversaire de Alice")
}

func TestBuild_EmptyCollectionYieldsStub(t *testing.T) {
	b := newBuilder()

	ics, today, err := b.Build(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, today)

	out := string(ics)
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "END:VCALENDAR")
	assert.NotContains(t, out, "BEGIN:VEVENT")
}

func TestBuild_SkipsUnparseableDates(t *testing.T) {
	b := newBuilder()

	ics, _, err := b.Build(context.Background(), []store.Birthday{
		{ID: 1, Name: "Broken", BirthDate: "not-a-date"},
		{ID: 2, Name: "Alice", BirthDate: "03-14"},
	})
	require.NoError(t, err)

	out := string(ics)
	assert.NotContains(t, out, "Broken")
	assert.Contains(t, out, "Alice")
}

func TestBuild_StableUIDs(t *testing.T) {
	b := newBuilder()
	records := []store.Birthday{{ID: 1, Name: "Alice", BirthDate: "03-14"}}

	first, _, err := b.Build(context.Background(), records)
	require.NoError(t, err)
	second, _, err := b.Build(context.Background(), records)
	require.NoError(t, err)

	// DTSTAMP aside, the UID lines must not drift between rebuilds.
	assert.Equal(t, uidLines(string(first)), uidLines(string(second)))
	assert.Len(t, uidLines(string(first)), 3)
}

func TestBuild_CancelledContext(t *testing.T) {
	b := newBuilder()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := b.Build(ctx, []store.Birthday{{ID: 1, Name: "Alice", BirthDate: "03-14"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func uidLines(ics string) []string {
	var out []string
	for _, line := range strings.Split(ics, "\r\n") {
		if strings.HasPrefix(line, "UID:") {
			out = append(out, line)
		}
	}
	return out
}
