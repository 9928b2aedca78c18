package service

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"literacy-hub/backend/internal/model"
)

const (
	icsMaxFileSize     = 5 * 1024 * 1024
	icsProductID       = "-//Literacy Hub//Remedial Sessions//EN"
	icsDefaultDuration = time.Hour
)

// ErrICSInvalid the upload is not a parseable iCalendar file.
var ErrICSInvalid = errors.New("invalid iCalendar file")

// icsEvent a VEVENT reduced to what a remedial session needs.
type icsEvent struct {
	UID         string
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
}

// parseICS reads every VEVENT. Events without a summary or start are reported
// in skipped with a reason.
func parseICS(reader io.Reader, loc *time.Location) ([]icsEvent, []string, error) {
	cal, err := ics.ParseCalendar(io.LimitReader(reader, icsMaxFileSize))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrICSInvalid, err)
	}

	var events []icsEvent
	var skipped []string
	for i, comp := range cal.Events() {
		evt, reason := parseVEvent(comp, loc)
		if reason != "" {
			skipped = append(skipped, fmt.Sprintf("event %d: %s", i+1, reason))
			continue
		}
		events = append(events, evt)
	}
	return events, skipped, nil
}

func parseVEvent(evt *ics.VEvent, loc *time.Location) (icsEvent, string) {
	summary := propertyValue(evt, ics.ComponentPropertySummary)
	if summary == "" {
		return icsEvent{}, "missing SUMMARY"
	}

	start, err := parseICSDateTime(evt, ics.ComponentPropertyDtStart, loc)
	if err != nil {
		return icsEvent{}, "missing or invalid DTSTART"
	}
	end, err := parseICSDateTime(evt, ics.ComponentPropertyDtEnd, loc)
	if err != nil {
		end = start.Add(icsDefaultDuration)
		if d := propertyValue(evt, ics.ComponentProperty(ics.PropertyDuration)); d != "" {
			if dur, err := parseICSDuration(d); err == nil && dur > 0 {
				end = start.Add(dur)
			}
		}
	}
	if !end.After(start) {
		return icsEvent{}, "DTEND is not after DTSTART"
	}

	return icsEvent{
		UID:         propertyValue(evt, ics.ComponentPropertyUniqueId),
		Summary:     summary,
		Description: propertyValue(evt, ics.ComponentPropertyDescription),
		Location:    propertyValue(evt, ics.ComponentPropertyLocation),
		Start:       start,
		End:         end,
	}, ""
}

func propertyValue(evt *ics.VEvent, name ics.ComponentProperty) string {
	prop := evt.GetProperty(name)
	if prop == nil {
		return ""
	}
	return strings.TrimSpace(prop.Value)
}

// parseICSDateTime reads UTC, floating and TZID-qualified date-times as well
// as all-day dates. Floating times are taken in loc.
func parseICSDateTime(evt *ics.VEvent, name ics.ComponentProperty, loc *time.Location) (time.Time, error) {
	prop := evt.GetProperty(name)
	if prop == nil {
		return time.Time{}, fmt.Errorf("missing property %s", name)
	}
	val := strings.TrimSpace(prop.Value)

	tz := loc
	for k, v := range prop.ICalParameters {
		if strings.EqualFold(k, "TZID") && len(v) > 0 {
			if l, err := time.LoadLocation(v[0]); err == nil {
				tz = l
			}
		}
	}

	if t, err := time.Parse("20060102T150405Z", val); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range []string{"20060102T150405", "20060102T1504", "20060102"} {
		if t, err := time.ParseInLocation(layout, val, tz); err == nil {
			return t.In(loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", val)
}

var icsDurationRe = regexp.MustCompile(`^([+-])?P(?:(\d+)W)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// parseICSDuration parses RFC 5545 durations such as PT1H30M or P1D.
func parseICSDuration(s string) (time.Duration, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	m := icsDurationRe.FindStringSubmatch(s)
	if m == nil || strings.HasSuffix(s, "P") || strings.HasSuffix(s, "T") {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	units := []time.Duration{7 * 24 * time.Hour, 24 * time.Hour, time.Hour, time.Minute, time.Second}
	var d time.Duration
	for i, unit := range units {
		if m[i+2] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+2])
		if err != nil {
			return 0, err
		}
		d += time.Duration(n) * unit
	}
	if m[1] == "-" {
		d = -d
	}
	return d, nil
}

// buildICS serialises sessions as a PUBLISH calendar.
func buildICS(sessions []model.RemedialSession, stamp time.Time) []byte {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(icsProductID)
	cal.SetName("Remedial sessions")

	for i := range sessions {
		s := &sessions[i]
		evt := cal.AddEvent(s.SessionID + "@literacy-hub")
		evt.SetDtStampTime(stamp)
		evt.SetStartAt(s.StartsAt)
		evt.SetEndAt(s.EndsAt)
		evt.SetSummary(s.Title)
		if s.Description != "" {
			evt.SetDescription(s.Description)
		}
		if s.Location != "" {
			evt.SetLocation(s.Location)
		}
		if s.Teacher != nil {
			evt.SetOrganizer("mailto:"+s.Teacher.Email, ics.WithCN(s.Teacher.FullName()))
		}
	}
	return []byte(cal.Serialize())
}
