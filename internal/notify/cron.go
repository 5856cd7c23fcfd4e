package notify

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/tartampluch/remind-day/internal/config"
	"github.com/tartampluch/remind-day/internal/datemath"
)

// CronRegistrar implements Registrar on an in-process cron runner. Each
// registration is a cron entry with a custom schedule: yearly triggers
// re-evaluate the day clamp every year, so a Feb 29 recurrence fires on
// Feb 28 in non-leap years and moves back to Feb 29 when one comes.
type CronRegistrar struct {
	clock  datemath.Clock
	sender Sender
	runner *cron.Cron

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	cronID cron.EntryID
	req    Request
	trig   Trigger
	sched  cron.Schedule
}

// NewCronRegistrar builds a registrar that delivers through sender.
// Call Start before registrations are expected to fire.
func NewCronRegistrar(clock datemath.Clock, sender Sender) *CronRegistrar {
	return &CronRegistrar{
		clock:   clock,
		sender:  sender,
		runner:  cron.New(),
		entries: make(map[string]*entry),
	}
}

// Start launches the runner goroutine.
func (r *CronRegistrar) Start() {
	r.runner.Start()
}

// Stop halts the runner and waits for in-flight deliveries to finish.
func (r *CronRegistrar) Stop() {
	<-r.runner.Stop().Done()
}

func (r *CronRegistrar) Schedule(_ context.Context, req Request, trig Trigger) (string, error) {
	sched, err := scheduleFor(trig)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()

	cronID := r.runner.Schedule(sched, cron.FuncJob(func() { r.fire(id) }))
	r.entries[id] = &entry{cronID: cronID, req: req, trig: trig, sched: sched}

	slog.Debug(config.MsgSchedOK,
		config.LogKeyComponent, config.CompNotify,
		config.LogKeyRegID, id,
		config.LogKeyRecordID, req.BirthdayID,
		config.LogKeyTrigger, sched.Next(r.clock.Now()),
	)
	return id, nil
}

func (r *CronRegistrar) Cancel(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return nil
	}
	r.runner.Remove(e.cronID)
	delete(r.entries, id)

	slog.Debug(config.MsgSchedCancelled,
		config.LogKeyComponent, config.CompNotify,
		config.LogKeyRegID, id,
	)
	return nil
}

func (r *CronRegistrar) CancelAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, e := range r.entries {
		r.runner.Remove(e.cronID)
		delete(r.entries, id)
	}

	slog.Debug(config.MsgSchedAllClear,
		config.LogKeyComponent, config.CompNotify,
	)
	return nil
}

func (r *CronRegistrar) List(_ context.Context) ([]Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	out := make([]Registration, 0, len(r.entries))
	for id, e := range r.entries {
		out = append(out, Registration{
			ID:         id,
			Title:      e.req.Title,
			BirthdayID: e.req.BirthdayID,
			NextFire:   e.sched.Next(now),
			Yearly:     e.trig.Yearly,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].NextFire.Equal(out[j].NextFire) {
			return out[i].NextFire.Before(out[j].NextFire)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// fire delivers one due notification. One-shot registrations are dropped
// after delivery; yearly ones stay registered.
func (r *CronRegistrar) fire(id string) {
	r.mu.Lock()
	e, ok := r.entries[id]
	if ok && !e.trig.Yearly {
		r.runner.Remove(e.cronID)
		delete(r.entries, id)
	}
	r.mu.Unlock()
	if !ok {
		return
	}

	if err := r.sender.Send(context.Background(), e.req); err != nil {
		slog.Error(config.MsgSchedFireFail,
			config.LogKeyComponent, config.CompNotify,
			config.LogKeyRegID, id,
			config.LogKeyRecordID, e.req.BirthdayID,
			config.LogKeyError, err,
		)
	}
}

// scheduleFor maps a Trigger onto a cron.Schedule.
func scheduleFor(trig Trigger) (cron.Schedule, error) {
	if trig.Yearly {
		month, day := time.Month(0), 0
		if trig.Recurrence != "" {
			m, d, err := datemath.ParseMonthDay(trig.Recurrence)
			if err != nil {
				return nil, err
			}
			month, day = m, d
		} else if !trig.At.IsZero() {
			month, day = trig.At.Month(), trig.At.Day()
		} else {
			return nil, errors.New(config.ErrScheduleFailed)
		}
		return yearlySchedule{
			month:  month,
			day:    day,
			hour:   trig.At.Hour(),
			minute: trig.At.Minute(),
		}, nil
	}

	if trig.At.IsZero() {
		return nil, errors.New(config.ErrScheduleFailed)
	}
	return oneShotSchedule{at: trig.At}, nil
}

// yearlySchedule fires once a year on a month/day at a fixed local time,
// clamping the day to the last day of the month in years where it does
// not exist.
type yearlySchedule struct {
	month  time.Month
	day    int
	hour   int
	minute int
}

func (s yearlySchedule) Next(t time.Time) time.Time {
	return datemath.NextTriggerAfter(s.month, s.day, s.hour, s.minute, t)
}

// oneShotSchedule fires exactly once. After the instant passes it returns
// the zero time, which the runner treats as "never".
type oneShotSchedule struct {
	at time.Time
}

func (s oneShotSchedule) Next(t time.Time) time.Time {
	if s.at.After(t) {
		return s.at
	}
	return time.Time{}
}
