// Package store persists birthday records and the reminder registration
// map. The SQLite implementation mirrors the app's historical schema; the
// memory implementation backs tests and ephemeral runs.
package store

import (
	"context"
	"errors"

	"github.com/tartampluch/remind-day/internal/config"
)

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = errors.New(config.ErrRecordNotFound)

// Birthday is the central persisted entity. BirthDate is a year-less
// MM-DD recurrence key; NotificationTime is a local HH:MM time of day.
type Birthday struct {
	ID               int64
	Name             string
	BirthDate        string
	Note             string
	NotificationTime string
}

// Store is the record persistence contract.
type Store interface {
	// Create inserts a record and returns the assigned id.
	Create(ctx context.Context, name, birthDate, note, notificationTime string) (int64, error)

	// Get returns one record by id, or ErrNotFound.
	Get(ctx context.Context, id int64) (Birthday, error)

	// GetAll returns every record ordered ascending by BirthDate
	// (lexicographic MM-DD, which approximates calendar order).
	GetAll(ctx context.Context) ([]Birthday, error)

	// GetForDate returns the records whose BirthDate equals the given
	// MM-DD key (the "today" query).
	GetForDate(ctx context.Context, monthDay string) ([]Birthday, error)

	// Update rewrites all mutable fields of a record and reports the
	// number of affected rows.
	Update(ctx context.Context, id int64, name, birthDate, note, notificationTime string) (int64, error)

	// Delete removes a record and reports the number of affected rows.
	Delete(ctx context.Context, id int64) (int64, error)
}

// RegistrationMap persists the record-id to notification-registration-id
// mapping so edits and deletes can cancel stale registrations.
type RegistrationMap interface {
	// SetRegistration records (or replaces) the registration owned by a record.
	SetRegistration(ctx context.Context, birthdayID int64, registrationID string) error

	// Registration returns the registration id owned by a record, or ""
	// when none is recorded.
	Registration(ctx context.Context, birthdayID int64) (string, error)

	// ClearRegistration forgets the mapping for a record. Clearing an
	// unknown record is not an error.
	ClearRegistration(ctx context.Context, birthdayID int64) error
}

// FullStore is the union used by the application wiring.
type FullStore interface {
	Store
	RegistrationMap
}
