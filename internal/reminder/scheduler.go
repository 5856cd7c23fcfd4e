// Package reminder turns birthday records into notification registrations.
// Each record owns at most one registration; (re)scheduling cancels the
// stale one first so edits never leave duplicates behind.
package reminder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tartampluch/remind-day/internal/config"
	"github.com/tartampluch/remind-day/internal/datemath"
	"github.com/tartampluch/remind-day/internal/notify"
	"github.com/tartampluch/remind-day/internal/store"
)

// Messages provides the localized notification content.
type Messages interface {
	Title() string
	Body(name string) string
}

// fallbackMessages is used when no translator is wired.
type fallbackMessages struct{}

func (fallbackMessages) Title() string { return config.FallbackNotifTitle }

func (fallbackMessages) Body(name string) string {
	return fmt.Sprintf(config.FallbackNotifBody, name)
}

// Scheduler coordinates the registrar and the persisted registration map.
type Scheduler struct {
	clock     datemath.Clock
	registrar notify.Registrar
	regs      store.RegistrationMap
	msgs      Messages
}

// NewScheduler wires a scheduler. A nil msgs falls back to the built-in
// English notification text.
func NewScheduler(clock datemath.Clock, registrar notify.Registrar, regs store.RegistrationMap, msgs Messages) *Scheduler {
	if msgs == nil {
		msgs = fallbackMessages{}
	}
	return &Scheduler{clock: clock, registrar: registrar, regs: regs, msgs: msgs}
}

// Schedule (re)schedules the yearly reminder for one record and returns
// the new registration id. Any previously recorded registration for the
// record is cancelled first. Failures surface as errors; nothing is
// swallowed.
func (s *Scheduler) Schedule(ctx context.Context, b store.Birthday) (string, error) {
	trigger, err := datemath.NextTrigger(b.BirthDate, b.NotificationTime, s.clock.Now())
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrScheduleFailed, err)
	}

	stale, err := s.regs.Registration(ctx, b.ID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrScheduleFailed, err)
	}
	if stale != "" {
		if err := s.registrar.Cancel(ctx, stale); err != nil {
			return "", fmt.Errorf("%s: %w", config.ErrScheduleFailed, err)
		}
		slog.Debug(config.MsgSchedReplaced,
			config.LogKeyComponent, config.CompReminder,
			config.LogKeyRecordID, b.ID,
			config.LogKeyRegID, stale,
		)
	}

	regID, err := s.registrar.Schedule(ctx,
		notify.Request{
			Title:      s.msgs.Title(),
			Body:       s.msgs.Body(b.Name),
			BirthdayID: b.ID,
		},
		notify.Trigger{
			At:         trigger,
			Recurrence: b.BirthDate,
			Yearly:     true,
		},
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrScheduleFailed, err)
	}

	if err := s.regs.SetRegistration(ctx, b.ID, regID); err != nil {
		// The registration exists but its mapping did not persist. Drop it
		// rather than leak an untracked reminder.
		_ = s.registrar.Cancel(ctx, regID)
		return "", fmt.Errorf("%s: %w", config.ErrScheduleFailed, err)
	}

	slog.Info(config.MsgSchedOK,
		config.LogKeyComponent, config.CompReminder,
		config.LogKeyRecordID, b.ID,
		config.LogKeyName, b.Name,
		config.LogKeyRegID, regID,
		config.LogKeyTrigger, trigger,
	)
	return regID, nil
}

// CancelFor removes the reminder owned by a record, if any. Cancelling a
// record without a reminder is a no-op.
func (s *Scheduler) CancelFor(ctx context.Context, birthdayID int64) error {
	regID, err := s.regs.Registration(ctx, birthdayID)
	if err != nil {
		return err
	}
	if regID == "" {
		return nil
	}
	if err := s.registrar.Cancel(ctx, regID); err != nil {
		return err
	}
	return s.regs.ClearRegistration(ctx, birthdayID)
}

// CancelAll removes every registration the app owns.
func (s *Scheduler) CancelAll(ctx context.Context) error {
	return s.registrar.CancelAll(ctx)
}

// ListScheduled returns the live registrations, soonest first.
func (s *Scheduler) ListScheduled(ctx context.Context) ([]notify.Registration, error) {
	return s.registrar.List(ctx)
}

// RescheduleAll re-anchors the reminders of every given record, typically
// at startup so triggers that fired or drifted while the app was down get
// fresh next-occurrence instants. It keeps going past individual failures
// and reports how many records scheduled cleanly.
func (s *Scheduler) RescheduleAll(ctx context.Context, records []store.Birthday) (scheduled, failed int) {
	for _, b := range records {
		if _, err := s.Schedule(ctx, b); err != nil {
			failed++
			slog.Warn(config.MsgImportSchedFail,
				config.LogKeyComponent, config.CompReminder,
				config.LogKeyRecordID, b.ID,
				config.LogKeyName, b.Name,
				config.LogKeyError, err,
			)
			continue
		}
		scheduled++
	}

	slog.Info(config.MsgSchedReconciled,
		config.LogKeyComponent, config.CompReminder,
		config.LogKeyRegistered, scheduled,
		config.LogKeyFailed, failed,
	)
	return scheduled, failed
}
