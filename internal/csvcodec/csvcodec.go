// Package csvcodec serializes birthday records to the delimited export
// format and decodes text blobs back into validated import candidates.
//
// The format is RFC-4180-like: a fixed header line, comma separation, and
// fields quoted only when they contain a comma, a double quote or a
// newline (internal quotes doubled). Decoding is tolerant per row: invalid
// rows are skipped and reported as diagnostics, never aborting the file.
package csvcodec

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tartampluch/remind-day/internal/config"
	"github.com/tartampluch/remind-day/internal/datemath"
)

// File-level decode failures. Either one means no rows were processed.
var (
	ErrEmptyFile      = errors.New(config.ErrCSVEmptyFile)
	ErrMissingColumns = errors.New(config.ErrCSVMissingCols)
)

var (
	birthDateRe = regexp.MustCompile(config.PatternBirthDate)
	timeRe      = regexp.MustCompile(config.PatternNotificationTime)
)

// Record is the field tuple the codec understands. It is deliberately
// independent of the persistence layer; callers map their own types.
type Record struct {
	Name             string
	BirthDate        string
	Note             string
	NotificationTime string
}

// Candidate is a parsed-but-not-yet-persisted record produced during
// import, tagged with its 1-based source row for error accounting.
type Candidate struct {
	Record
	Row int
}

// Code identifies why a row was rejected.
type Code string

const (
	CodeInsufficientColumns Code = "insufficient_columns"
	CodeMissingName         Code = "missing_name"
	CodeInvalidBirthDate    Code = "invalid_birth_date"
	CodeInvalidTime         Code = "invalid_time"
	CodeStoreFailure        Code = "store_failure"
)

// Diagnostic is a structured, row-numbered description of a rejected row.
type Diagnostic struct {
	Row     int
	Code    Code
	Message string
}

// String renders the diagnostic in the user-facing "row N: reason" form.
func (d Diagnostic) String() string {
	return fmt.Sprintf(config.FormatDiagnostic, d.Row, d.Message)
}

// Encode renders records as CSV with the fixed header. The output ends
// with a trailing newline.
func Encode(records []Record) []byte {
	var b strings.Builder
	b.WriteString(config.CSVHeader)
	b.WriteByte('\n')

	for _, r := range records {
		b.WriteString(escapeField(r.Name))
		b.WriteByte(byte(config.CSVSeparator))
		b.WriteString(escapeField(r.BirthDate))
		b.WriteByte(byte(config.CSVSeparator))
		b.WriteString(escapeField(r.Note))
		b.WriteByte(byte(config.CSVSeparator))
		b.WriteString(escapeField(r.NotificationTime))
		b.WriteByte('\n')
	}

	return []byte(b.String())
}

// Decode parses a CSV blob into valid candidates plus ordered per-row
// diagnostics for skipped rows. The returned error is one of the
// file-level sentinels; row-level problems never make Decode fail.
func Decode(content string) ([]Candidate, []Diagnostic, error) {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) < 2 {
		return nil, nil, ErrEmptyFile
	}

	header := strings.ToLower(strings.TrimSuffix(lines[0], "\r"))
	if !strings.Contains(header, config.CSVHeaderMarkName) ||
		!strings.Contains(header, config.CSVHeaderMarkBDate) {
		return nil, nil, ErrMissingColumns
	}

	var (
		candidates  []Candidate
		diagnostics []Diagnostic
	)

	for i := 1; i < len(lines); i++ {
		rowNum := i + 1 // 1-based over file lines, header included
		raw := strings.TrimSuffix(lines[i], "\r")
		if strings.TrimSpace(raw) == "" {
			continue
		}

		// A row whose quotes have not closed continues on the next
		// physical line (embedded newline inside a quoted field).
		for oddQuotes(raw) && i+1 < len(lines) {
			i++
			raw += "\n" + strings.TrimSuffix(lines[i], "\r")
		}

		fields := splitRow(raw)
		if len(fields) < config.CSVMinColumns {
			diagnostics = append(diagnostics, Diagnostic{
				Row:     rowNum,
				Code:    CodeInsufficientColumns,
				Message: config.DiagInsufficientColumns,
			})
			continue
		}

		cand := Candidate{Row: rowNum}
		cand.Name = strings.TrimSpace(fields[0])
		cand.BirthDate = strings.TrimSpace(fields[1])
		if len(fields) > 2 {
			cand.Note = strings.TrimSpace(fields[2])
		}
		if len(fields) > 3 {
			cand.NotificationTime = strings.TrimSpace(fields[3])
		}
		if cand.NotificationTime == "" {
			cand.NotificationTime = config.DefaultNotificationTime
		}

		if d, ok := validate(cand); !ok {
			diagnostics = append(diagnostics, d)
			continue
		}

		candidates = append(candidates, cand)
	}

	return candidates, diagnostics, nil
}

// validate applies the per-row rules in their reporting order.
func validate(c Candidate) (Diagnostic, bool) {
	if c.Name == "" {
		return Diagnostic{Row: c.Row, Code: CodeMissingName, Message: config.DiagMissingName}, false
	}
	if !ValidBirthDate(c.BirthDate) {
		return Diagnostic{Row: c.Row, Code: CodeInvalidBirthDate, Message: config.DiagInvalidBirthDate}, false
	}
	if !timeRe.MatchString(c.NotificationTime) {
		return Diagnostic{Row: c.Row, Code: CodeInvalidTime, Message: config.DiagInvalidTime}, false
	}
	return Diagnostic{}, true
}

// ValidBirthDate reports whether the value is a canonical MM-DD with a day
// that exists in that month (Feb admits 29, never 30).
func ValidBirthDate(value string) bool {
	if !birthDateRe.MatchString(value) {
		return false
	}
	_, _, err := datemath.ParseMonthDay(value)
	return err == nil
}

// ValidNotificationTime reports whether the value is a canonical HH:MM.
func ValidNotificationTime(value string) bool {
	return timeRe.MatchString(value)
}

// splitRow performs quote-aware comma splitting: a quote toggles the
// in-quotes state, a doubled quote inside quotes decodes to one literal
// quote, and a comma outside quotes ends the field.
func splitRow(row string) []string {
	var (
		fields   []string
		current  strings.Builder
		inQuotes bool
	)

	for i := 0; i < len(row); i++ {
		ch := row[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(row) && row[i+1] == '"' {
				current.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case ch == byte(config.CSVSeparator) && !inQuotes:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteByte(ch)
		}
	}

	fields = append(fields, current.String())
	return fields
}

// oddQuotes reports whether the text leaves a quoted field open.
// Doubled escape quotes contribute two, so parity is preserved.
func oddQuotes(s string) bool {
	return strings.Count(s, `"`)%2 == 1
}

// escapeField quotes a field only when required by its content.
func escapeField(field string) string {
	if !strings.ContainsAny(field, ",\"\n") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}
