package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/tartampluch/remind-day/internal/config"
)

const (
	driverName = "sqlite"

	// The birthdays table keeps the historical column names so existing
	// databases open unchanged; reminders is the registration side table.
	schemaSQL = `
CREATE TABLE IF NOT EXISTS birthdays (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	birthDate TEXT NOT NULL,
	note TEXT,
	notificationTime TEXT DEFAULT '09:00'
);
CREATE TABLE IF NOT EXISTS reminders (
	birthday_id INTEGER PRIMARY KEY,
	registration_id TEXT NOT NULL
);`

	insertSQL     = `INSERT INTO birthdays (name, birthDate, note, notificationTime) VALUES (?, ?, ?, ?)`
	selectOneSQL  = `SELECT id, name, birthDate, note, notificationTime FROM birthdays WHERE id = ?`
	selectAllSQL  = `SELECT id, name, birthDate, note, notificationTime FROM birthdays ORDER BY birthDate ASC`
	selectDateSQL = `SELECT id, name, birthDate, note, notificationTime FROM birthdays WHERE birthDate = ?`
	updateSQL     = `UPDATE birthdays SET name = ?, birthDate = ?, note = ?, notificationTime = ? WHERE id = ?`
	deleteSQL     = `DELETE FROM birthdays WHERE id = ?`

	setRegSQL   = `INSERT INTO reminders (birthday_id, registration_id) VALUES (?, ?) ON CONFLICT(birthday_id) DO UPDATE SET registration_id = excluded.registration_id`
	getRegSQL   = `SELECT registration_id FROM reminders WHERE birthday_id = ?`
	clearRegSQL = `DELETE FROM reminders WHERE birthday_id = ?`
)

// SQLiteStore implements FullStore on a local SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if necessary) the database at path and
// applies the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrStoreOpen, err)
	}

	// One writer at a time; the app is a single logical actor and the
	// pure-Go driver serializes poorly across connections.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", config.ErrStoreMigrate, err)
	}

	slog.Debug("Database ready",
		config.LogKeyComponent, config.CompStore,
		config.LogKeyPath, path,
	)
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Create(ctx context.Context, name, birthDate, note, notificationTime string) (int64, error) {
	if notificationTime == "" {
		notificationTime = config.DefaultNotificationTime
	}
	res, err := s.db.ExecContext(ctx, insertSQL, name, birthDate, note, notificationTime)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) Get(ctx context.Context, id int64) (Birthday, error) {
	var b Birthday
	var note sql.NullString
	err := s.db.QueryRowContext(ctx, selectOneSQL, id).
		Scan(&b.ID, &b.Name, &b.BirthDate, &note, &b.NotificationTime)
	if errors.Is(err, sql.ErrNoRows) {
		return Birthday{}, ErrNotFound
	}
	if err != nil {
		return Birthday{}, err
	}
	b.Note = note.String
	return b, nil
}

func (s *SQLiteStore) GetAll(ctx context.Context) ([]Birthday, error) {
	return s.query(ctx, selectAllSQL)
}

func (s *SQLiteStore) GetForDate(ctx context.Context, monthDay string) ([]Birthday, error) {
	return s.query(ctx, selectDateSQL, monthDay)
}

func (s *SQLiteStore) Update(ctx context.Context, id int64, name, birthDate, note, notificationTime string) (int64, error) {
	res, err := s.db.ExecContext(ctx, updateSQL, name, birthDate, note, notificationTime, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) Delete(ctx context.Context, id int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, deleteSQL, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) SetRegistration(ctx context.Context, birthdayID int64, registrationID string) error {
	_, err := s.db.ExecContext(ctx, setRegSQL, birthdayID, registrationID)
	return err
}

func (s *SQLiteStore) Registration(ctx context.Context, birthdayID int64) (string, error) {
	var regID string
	err := s.db.QueryRowContext(ctx, getRegSQL, birthdayID).Scan(&regID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return regID, nil
}

func (s *SQLiteStore) ClearRegistration(ctx context.Context, birthdayID int64) error {
	_, err := s.db.ExecContext(ctx, clearRegSQL, birthdayID)
	return err
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]Birthday, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Birthday
	for rows.Next() {
		var b Birthday
		var note sql.NullString
		if err := rows.Scan(&b.ID, &b.Name, &b.BirthDate, &note, &b.NotificationTime); err != nil {
			return nil, err
		}
		b.Note = note.String
		out = append(out, b)
	}
	return out, rows.Err()
}
