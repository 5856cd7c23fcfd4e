package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type captureSender struct {
	mu   sync.Mutex
	sent []Request
}

func (s *captureSender) Send(_ context.Context, req Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, req)
	return nil
}

func testClock() fixedClock {
	return fixedClock{now: time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC)}
}

func TestCronRegistrar_ScheduleYearly(t *testing.T) {
	r := NewCronRegistrar(testClock(), &captureSender{})

	id, err := r.Schedule(context.Background(), Request{
		Title:      "Birthday Reminder",
		Body:       "Today is Alice's birthday!",
		BirthdayID: 1,
	}, Trigger{
		At:         time.Date(2025, time.July, 1, 9, 0, 0, 0, time.UTC),
		Recurrence: "07-01",
		Yearly:     true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	regs, err := r.List(context.Background())
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, id, regs[0].ID)
	assert.Equal(t, int64(1), regs[0].BirthdayID)
	assert.True(t, regs[0].Yearly)
	assert.Equal(t, time.Date(2025, time.July, 1, 9, 0, 0, 0, time.UTC), regs[0].NextFire)
}

func TestCronRegistrar_LeapDayClampsPerYear(t *testing.T) {
	sched := yearlySchedule{month: time.February, day: 29, hour: 9, minute: 0}

	// 2025 and 2026 have no Feb 29, so the reminder lands on Feb 28.
	next := sched.Next(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, time.February, 28, 9, 0, 0, 0, time.UTC), next)

	next = sched.Next(next)
	assert.Equal(t, time.Date(2026, time.February, 28, 9, 0, 0, 0, time.UTC), next)

	// 2028 is a leap year: the reminder moves back to the real date.
	next = sched.Next(time.Date(2027, time.March, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2028, time.February, 29, 9, 0, 0, 0, time.UTC), next)
}

func TestCronRegistrar_YearlyRollsOverAtExactInstant(t *testing.T) {
	sched := yearlySchedule{month: time.January, day: 1, hour: 0, minute: 0}

	// One second past the trigger means the next fire is a year out.
	next := sched.Next(time.Date(2025, time.January, 1, 0, 0, 1, 0, time.UTC))
	assert.Equal(t, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), next)
}

func TestCronRegistrar_OneShotNeverRepeats(t *testing.T) {
	at := time.Date(2025, time.June, 16, 9, 0, 0, 0, time.UTC)
	sched := oneShotSchedule{at: at}

	assert.Equal(t, at, sched.Next(testClock().Now()))
	assert.True(t, sched.Next(at).IsZero(), "A passed one-shot must not reschedule")
}

func TestCronRegistrar_ScheduleRejectsEmptyTrigger(t *testing.T) {
	r := NewCronRegistrar(testClock(), &captureSender{})

	_, err := r.Schedule(context.Background(), Request{Title: "x"}, Trigger{})
	assert.Error(t, err)

	_, err = r.Schedule(context.Background(), Request{Title: "x"}, Trigger{Yearly: true})
	assert.Error(t, err)
}

func TestCronRegistrar_ScheduleRejectsBadRecurrence(t *testing.T) {
	r := NewCronRegistrar(testClock(), &captureSender{})

	_, err := r.Schedule(context.Background(), Request{Title: "x"}, Trigger{
		At:         time.Date(2025, time.July, 1, 9, 0, 0, 0, time.UTC),
		Recurrence: "13-01",
		Yearly:     true,
	})
	assert.Error(t, err)
}

func TestCronRegistrar_CancelIsIdempotent(t *testing.T) {
	r := NewCronRegistrar(testClock(), &captureSender{})
	ctx := context.Background()

	id, err := r.Schedule(ctx, Request{Title: "x", BirthdayID: 7}, Trigger{
		At:         time.Date(2025, time.July, 1, 9, 0, 0, 0, time.UTC),
		Recurrence: "07-01",
		Yearly:     true,
	})
	require.NoError(t, err)

	require.NoError(t, r.Cancel(ctx, id))

	regs, err := r.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, regs)

	// Cancelling again, or cancelling garbage, stays silent.
	assert.NoError(t, r.Cancel(ctx, id))
	assert.NoError(t, r.Cancel(ctx, "no-such-registration"))
}

func TestCronRegistrar_CancelAll(t *testing.T) {
	r := NewCronRegistrar(testClock(), &captureSender{})
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		_, err := r.Schedule(ctx, Request{Title: "x", BirthdayID: i}, Trigger{
			At:         time.Date(2025, time.July, 1, 9, 0, 0, 0, time.UTC),
			Recurrence: "07-01",
			Yearly:     true,
		})
		require.NoError(t, err)
	}

	require.NoError(t, r.CancelAll(ctx))

	regs, err := r.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, regs)
}

func TestCronRegistrar_ListSortedByNextFire(t *testing.T) {
	r := NewCronRegistrar(testClock(), &captureSender{})
	ctx := context.Background()

	later, err := r.Schedule(ctx, Request{Title: "later", BirthdayID: 1}, Trigger{
		At:         time.Date(2025, time.December, 25, 9, 0, 0, 0, time.UTC),
		Recurrence: "12-25",
		Yearly:     true,
	})
	require.NoError(t, err)

	sooner, err := r.Schedule(ctx, Request{Title: "sooner", BirthdayID: 2}, Trigger{
		At:         time.Date(2025, time.July, 1, 9, 0, 0, 0, time.UTC),
		Recurrence: "07-01",
		Yearly:     true,
	})
	require.NoError(t, err)

	regs, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, regs, 2)
	assert.Equal(t, sooner, regs[0].ID)
	assert.Equal(t, later, regs[1].ID)
}

func TestCronRegistrar_FireDropsOneShot(t *testing.T) {
	sender := &captureSender{}
	r := NewCronRegistrar(testClock(), sender)
	ctx := context.Background()

	id, err := r.Schedule(ctx, Request{Title: "once", BirthdayID: 9}, Trigger{
		At: time.Date(2025, time.June, 16, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	r.fire(id)

	sender.mu.Lock()
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "once", sender.sent[0].Title)
	sender.mu.Unlock()

	regs, err := r.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, regs, "One-shot registrations disappear after firing")
}
