// Package notify models the local notification mechanism: yearly-repeating
// registrations that fire a message at a wall-clock instant. The concrete
// implementation runs on an in-process cron runner; the Registrar interface
// keeps callers testable and the delivery channel swappable.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/tartampluch/remind-day/internal/config"
)

// Request is the content of a notification.
type Request struct {
	Title string
	Body  string

	// BirthdayID is the payload identifying the record the notification
	// belongs to.
	BirthdayID int64
}

// Trigger describes when a notification fires.
type Trigger struct {
	// At is the anchor instant of the first delivery (local wall clock).
	At time.Time

	// Recurrence optionally carries the MM-DD key for yearly triggers so
	// the schedule can re-clamp leap days per target year. When empty,
	// the month and day of At are used.
	Recurrence string

	// Yearly repeats the notification every year at the recurrence date.
	Yearly bool
}

// Registration is the read-only view of a scheduled notification.
type Registration struct {
	ID         string
	Title      string
	BirthdayID int64
	NextFire   time.Time
	Yearly     bool
}

// Registrar is the scheduling contract of the notification mechanism.
type Registrar interface {
	// Schedule registers a notification and returns its opaque id.
	Schedule(ctx context.Context, req Request, trig Trigger) (string, error)

	// Cancel removes one registration. Cancelling an unknown or
	// already-cancelled id is not an error.
	Cancel(ctx context.Context, id string) error

	// CancelAll removes every registration this app owns.
	CancelAll(ctx context.Context) error

	// List returns the current registrations, for display counts.
	List(ctx context.Context) ([]Registration, error)
}

// Sender delivers a due notification to the user.
type Sender interface {
	Send(ctx context.Context, req Request) error
}

// LogSender delivers notifications to the structured log. It is the
// default sink for headless runs.
type LogSender struct{}

// Send implements Sender.
func (LogSender) Send(_ context.Context, req Request) error {
	slog.Info(config.MsgSchedFireSent,
		config.LogKeyComponent, config.CompNotify,
		config.LogKeyRecordID, req.BirthdayID,
		config.LogKeyName, req.Title,
		config.LogKeyValue, req.Body,
	)
	return nil
}
