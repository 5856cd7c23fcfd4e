// Package vcf extracts birthday contacts from vCard streams, local files
// or remote CardDAV/WebDAV exports. Cards without a parseable BDAY are
// skipped, not fatal: address books are messy and one bad card must not
// sink an import.
package vcf

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/emersion/go-vcard"

	"github.com/tartampluch/remind-day/internal/config"
)

// Contact is one importable birthday extracted from a vCard.
type Contact struct {
	Name      string
	BirthDate string // canonical MM-DD recurrence key
	Note      string
}

// ParseStream decodes a vCard stream into contacts. Malformed cards and
// cards without a usable BDAY are logged and skipped.
func ParseStream(ctx context.Context, r io.Reader) ([]Contact, error) {
	decoder := vcard.NewDecoder(r)
	var contacts []Contact

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		card, err := decoder.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			slog.Warn(config.MsgSkippedCard,
				config.LogKeyComponent, config.CompFetcher,
				config.LogKeyError, err,
			)
			continue
		}

		bday := card.Get(config.VCardBDAY)
		if bday == nil || bday.Value == "" {
			continue
		}

		birthDate, err := parseDate(bday.Value)
		if err != nil {
			slog.Debug(config.MsgSkippedDate,
				config.LogKeyComponent, config.CompFetcher,
				config.LogKeyValue, bday.Value,
			)
			continue
		}

		// Name strategy: FN (formatted) > N (structured) > fallback.
		name := config.FallbackName
		if fn := card.Get(config.VCardFN); fn != nil && fn.Value != "" {
			name = fn.Value
		} else if n := card.Get(config.VCardN); n != nil && n.Value != "" {
			name = n.Value
		}

		var note string
		if p := card.Get(config.VCardNOTE); p != nil {
			note = p.Value
		}

		contacts = append(contacts, Contact{
			Name:      name,
			BirthDate: birthDate,
			Note:      note,
		})
	}

	return contacts, nil
}

// ParseFile reads a local .vcf file.
func ParseFile(ctx context.Context, path string) ([]Contact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return ParseStream(ctx, f)
}

// parseDate accepts the date shapes seen in real address books. Full dates
// reduce to their month and day; the year is discarded because the app
// tracks recurrences only.
func parseDate(value string) (string, error) {
	formatsWithYear := []string{
		config.DateFormatFullDash,
		config.DateFormatFullBasic,
		config.DateFormatRFC3339,
		config.DateFormatFullT,
	}
	for _, f := range formatsWithYear {
		if t, err := time.Parse(f, value); err == nil {
			return t.Format(config.MonthDayLayout), nil
		}
	}

	// Truncated year-less dates are vCard 4.0 specific (--MM-DD, --MMDD).
	formatsWithoutYear := []string{config.DateFormatNoYearD, config.DateFormatNoYearB}
	for _, f := range formatsWithoutYear {
		if t, err := time.Parse(f, value); err == nil {
			return t.Format(config.MonthDayLayout), nil
		}
	}

	return "", errors.New(config.ErrDateParse)
}
