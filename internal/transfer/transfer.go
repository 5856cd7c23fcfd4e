// Package transfer implements bulk data movement: CSV export of the whole
// collection, and CSV/vCard import with per-row validation, persistence
// and reminder scheduling.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tartampluch/remind-day/internal/config"
	"github.com/tartampluch/remind-day/internal/csvcodec"
	"github.com/tartampluch/remind-day/internal/datemath"
	"github.com/tartampluch/remind-day/internal/store"
	"github.com/tartampluch/remind-day/internal/vcf"
)

// File-level import/export failures.
var (
	ErrNoData      = errors.New(config.ErrNoData)
	ErrNoValidRows = errors.New(config.ErrNoValidRows)
)

// Scheduler is the slice of the reminder layer the service needs.
type Scheduler interface {
	Schedule(ctx context.Context, b store.Birthday) (string, error)
}

// Outcome summarizes an import run. Imported counts persisted records;
// Failed counts rows rejected by validation or the store. A record whose
// reminder could not be scheduled stays persisted and is counted under
// ScheduleFailures instead.
type Outcome struct {
	Imported         int
	Failed           int
	ScheduleFailures int
	Diagnostics      []csvcodec.Diagnostic
}

// Errors renders the diagnostics in their user-facing "row N: reason" form.
func (o Outcome) Errors() []string {
	out := make([]string, 0, len(o.Diagnostics))
	for _, d := range o.Diagnostics {
		out = append(out, d.String())
	}
	return out
}

// Service wires the store, the reminder scheduler and the clock for bulk
// operations. Fetcher is only needed for remote vCard imports.
type Service struct {
	Store     store.Store
	Scheduler Scheduler
	Clock     datemath.Clock
	Fetcher   vcf.Fetcher
}

// ExportAll writes every record to a date-stamped CSV file in dir and
// returns the full path. An empty collection returns ErrNoData and writes
// nothing.
func (s *Service) ExportAll(ctx context.Context, dir string) (string, error) {
	records, err := s.Store.GetAll(ctx)
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		slog.Info(config.MsgExportEmpty,
			config.LogKeyComponent, config.CompTransfer,
		)
		return "", ErrNoData
	}

	rows := make([]csvcodec.Record, 0, len(records))
	for _, b := range records {
		rows = append(rows, csvcodec.Record{
			Name:             b.Name,
			BirthDate:        b.BirthDate,
			Note:             b.Note,
			NotificationTime: b.NotificationTime,
		})
	}

	name := fmt.Sprintf(config.FormatExportFileName,
		s.Clock.Now().Format(config.ExportDateLayout))
	path := filepath.Join(dir, name)

	if err := os.WriteFile(path, csvcodec.Encode(rows), config.FilePermUserRW); err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrExportWrite, err)
	}

	slog.Info(config.MsgExportDone,
		config.LogKeyComponent, config.CompTransfer,
		config.LogKeyPath, path,
		config.LogKeyCount, len(rows),
	)
	return path, nil
}

// ImportCSV parses a CSV blob and persists every valid row, scheduling a
// reminder for each persisted record. Row-level problems accumulate in the
// outcome; only file-level problems (empty file, missing columns, not a
// single valid row) surface as errors.
func (s *Service) ImportCSV(ctx context.Context, content string) (Outcome, error) {
	slog.Info(config.MsgImportStarted,
		config.LogKeyComponent, config.CompTransfer,
	)

	candidates, diagnostics, err := csvcodec.Decode(content)
	if err != nil {
		return Outcome{}, err
	}

	outcome := Outcome{
		Failed:      len(diagnostics),
		Diagnostics: diagnostics,
	}
	for _, d := range diagnostics {
		slog.Warn(config.MsgImportRowSkipped,
			config.LogKeyComponent, config.CompTransfer,
			config.LogKeyRow, d.Row,
			config.LogKeyError, d.Message,
		)
	}

	if len(candidates) == 0 {
		return outcome, ErrNoValidRows
	}

	for _, cand := range candidates {
		if err := s.importOne(ctx, cand, &outcome); err != nil {
			return outcome, err
		}
	}

	slog.Info(config.MsgImportDone,
		config.LogKeyComponent, config.CompTransfer,
		config.LogKeyImported, outcome.Imported,
		config.LogKeyFailed, outcome.Failed,
		config.LogKeySkipped, outcome.ScheduleFailures,
	)
	return outcome, nil
}

// ImportFile reads a local CSV file and imports its content.
func (s *Service) ImportFile(ctx context.Context, path string) (Outcome, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Outcome{}, err
	}
	return s.ImportCSV(ctx, string(content))
}

// ImportContacts persists vCard contacts the same way CSV rows import:
// each contact becomes a record plus a scheduled reminder. Contacts are
// numbered from 1 for diagnostics.
func (s *Service) ImportContacts(ctx context.Context, contacts []vcf.Contact) (Outcome, error) {
	if len(contacts) == 0 {
		return Outcome{}, ErrNoValidRows
	}

	var outcome Outcome
	for i, c := range contacts {
		cand := csvcodec.Candidate{
			Record: csvcodec.Record{
				Name:             c.Name,
				BirthDate:        c.BirthDate,
				Note:             c.Note,
				NotificationTime: config.DefaultNotificationTime,
			},
			Row: i + 1,
		}
		if err := s.importOne(ctx, cand, &outcome); err != nil {
			return outcome, err
		}
	}

	slog.Info(config.MsgImportDone,
		config.LogKeyComponent, config.CompTransfer,
		config.LogKeyImported, outcome.Imported,
		config.LogKeyFailed, outcome.Failed,
		config.LogKeySkipped, outcome.ScheduleFailures,
	)
	return outcome, nil
}

// ImportVCardFile parses a local .vcf file and imports its contacts.
func (s *Service) ImportVCardFile(ctx context.Context, path string) (Outcome, error) {
	contacts, err := vcf.ParseFile(ctx, path)
	if err != nil {
		return Outcome{}, err
	}
	return s.ImportContacts(ctx, contacts)
}

// ImportVCardURL downloads a remote vCard export and imports its contacts.
func (s *Service) ImportVCardURL(ctx context.Context, url, user, pass string) (Outcome, error) {
	if s.Fetcher == nil {
		return Outcome{}, errors.New(config.ErrFetcherMissing)
	}
	rc, err := s.Fetcher.Fetch(ctx, url, user, pass)
	if err != nil {
		return Outcome{}, err
	}
	defer func() { _ = rc.Close() }()

	contacts, err := vcf.ParseStream(ctx, rc)
	if err != nil {
		return Outcome{}, err
	}
	return s.ImportContacts(ctx, contacts)
}

// importOne persists a single candidate and schedules its reminder,
// isolating per-item failures from the rest of the batch. A context-level
// failure aborts the batch; everything else is accounted and skipped.
func (s *Service) importOne(ctx context.Context, cand csvcodec.Candidate, outcome *Outcome) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	id, err := s.Store.Create(ctx, cand.Name, cand.BirthDate, cand.Note, cand.NotificationTime)
	if err != nil {
		outcome.Failed++
		outcome.Diagnostics = append(outcome.Diagnostics, csvcodec.Diagnostic{
			Row:     cand.Row,
			Code:    csvcodec.CodeStoreFailure,
			Message: config.DiagStoreFailure,
		})
		slog.Error(config.MsgImportRowFailed,
			config.LogKeyComponent, config.CompTransfer,
			config.LogKeyRow, cand.Row,
			config.LogKeyName, cand.Name,
			config.LogKeyError, err,
		)
		return nil
	}
	outcome.Imported++

	_, err = s.Scheduler.Schedule(ctx, store.Birthday{
		ID:               id,
		Name:             cand.Name,
		BirthDate:        cand.BirthDate,
		Note:             cand.Note,
		NotificationTime: cand.NotificationTime,
	})
	if err != nil {
		// The record stays; only the reminder is missing.
		outcome.ScheduleFailures++
		slog.Warn(config.MsgImportSchedFail,
			config.LogKeyComponent, config.CompTransfer,
			config.LogKeyRecordID, id,
			config.LogKeyName, cand.Name,
			config.LogKeyError, err,
		)
	}
	return nil
}
