// Package feed renders the birthday collection as an iCalendar document
// suitable for calendar-app subscriptions. Every record expands to events
// in the previous, current and next year so scrolling a calendar never
// shows a gap, and each event can carry a display alarm.
package feed

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"time"

	"github.com/emersion/go-ical"

	"github.com/tartampluch/remind-day/internal/config"
	"github.com/tartampluch/remind-day/internal/datemath"
	"github.com/tartampluch/remind-day/internal/store"
)

// Builder turns records into an ICS byte stream.
type Builder struct {
	Clock datemath.Clock

	// ReminderTrigger, when non-empty, attaches a DISPLAY alarm with this
	// ISO 8601 trigger (e.g. "-PT15M") to every event.
	ReminderTrigger string

	// FormatSummary localizes the event title. Nil falls back to the
	// built-in English form.
	FormatSummary func(name string) string
}

// Build renders all records. It returns the ICS bytes and the number of
// records whose birthday falls on the current day. Records with an
// unparseable date are skipped with a log entry.
func (b *Builder) Build(ctx context.Context, records []store.Birthday) ([]byte, int, error) {
	start := time.Now()
	now := b.Clock.Now()

	cal := ical.NewCalendar()
	cal.Props.SetText(config.PropVersion, config.ICalVersion)
	cal.Props.SetText(config.PropProdid, config.ICalProdid)
	cal.Props.SetText(config.PropXWRCalName, config.ICalCalName)
	cal.Props.SetText(config.PropCalScale, config.ICalScale)
	cal.Props.SetText(config.PropMethod, config.ICalMethod)

	// RFC 7986 refresh hint for subscribing clients.
	refreshProp := ical.NewProp(config.PropRefresh)
	refreshProp.SetDuration(config.DefaultICalRefresh)
	cal.Props.Set(refreshProp)

	// Logic runs on local wall-clock dates; only the stamp is UTC.
	dtStampProp := ical.NewProp(config.PropDTStamp)
	dtStampProp.SetDateTime(now.UTC())

	today := 0
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		month, day, err := datemath.ParseMonthDay(rec.BirthDate)
		if err != nil {
			slog.Warn(config.MsgSkippedDate,
				config.LogKeyComponent, config.CompFeed,
				config.LogKeyRecordID, rec.ID,
				config.LogKeyValue, rec.BirthDate,
			)
			continue
		}

		events, isToday := b.createEvents(rec, month, day, now)
		if isToday {
			today++
			slog.Info(config.MsgBdayToday,
				config.LogKeyComponent, config.CompFeed,
				config.LogKeyName, rec.Name,
				config.LogKeyBirthDate, rec.BirthDate,
			)
		}
		for _, e := range events {
			e.Props.Set(dtStampProp)
			cal.Children = append(cal.Children, e.Component)
		}
	}

	if len(cal.Children) == 0 {
		// A valid empty VCALENDAR keeps clients from flagging the feed.
		slog.Debug(config.MsgFeedUpdated,
			config.LogKeyComponent, config.CompFeed,
			config.LogKeyTotal, len(records),
			config.LogKeyToday, 0,
		)
		return []byte(config.StubVCalendar), 0, nil
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", config.ErrICalEncode, err)
	}

	slog.Info(config.MsgFeedUpdated,
		config.LogKeyComponent, config.CompFeed,
		config.LogKeyTotal, len(records),
		config.LogKeyToday, today,
		config.LogKeyDuration, time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), today, nil
}

// createEvents expands one record into its three yearly events. The day
// clamp applies per target year, so a Feb 29 record lands on Feb 28 in
// non-leap years.
func (b *Builder) createEvents(rec store.Birthday, month time.Month, day int, now time.Time) ([]*ical.Event, bool) {
	currentYear := now.Year()
	targetYears := []int{currentYear - 1, currentYear, currentYear + 1}
	loc := now.Location()

	summary := fmt.Sprintf(config.FallbackSummary, rec.Name)
	if b.FormatSummary != nil {
		summary = b.FormatSummary(rec.Name)
	}

	uidBase := uidFor(rec)
	todayYear, todayMonth, todayDay := now.Date()

	var events []*ical.Event
	isToday := false

	for _, y := range targetYears {
		event := ical.NewEvent()
		event.Props.SetText(config.PropUID, fmt.Sprintf(config.FormatUID, uidBase, y, config.ICalDomain))
		event.Props.SetText(config.PropSummary, summary)
		if rec.Note != "" {
			event.Props.SetText(config.PropDescription, rec.Note)
		}

		eventDate := datemath.OccurrenceIn(y, month, day, loc)
		if y == todayYear && eventDate.Month() == todayMonth && eventDate.Day() == todayDay {
			isToday = true
		}

		dtStartProp := ical.NewProp(config.PropDTStart)
		dtStartProp.SetDate(eventDate)
		event.Props.Set(dtStartProp)

		if b.ReminderTrigger != "" {
			addAlarm(event, b.ReminderTrigger, summary)
		}

		events = append(events, event)
	}
	return events, isToday
}

// addAlarm appends a DISPLAY alarm (notification) to the event.
func addAlarm(event *ical.Event, trigger, description string) {
	alarm := ical.NewComponent(config.ICalComponent)
	alarm.Props.SetText(config.PropAction, config.ICalAction)
	alarm.Props.SetText(config.PropDescription, description)

	// Set the trigger manually to avoid a VALUE=TEXT param.
	triggerProp := ical.NewProp(config.PropTrigger)
	triggerProp.Value = trigger
	alarm.Props.Set(triggerProp)

	event.Children = append(event.Children, alarm)
}

// uidFor derives a deterministic UID base from the record identity, stable
// across rebuilds as long as the record keeps its id and date.
func uidFor(rec store.Birthday) string {
	input := fmt.Sprintf(config.FormatHashInput, rec.ID, rec.BirthDate, config.UIDSalt)
	hash := sha256.Sum256([]byte(input))
	return fmt.Sprintf("%x", hash[:config.UIDHashLength])
}
