package ics

import (
	"fmt"
	"strings"
	"time"
)

const (
	localDateLayout   = "20060102"
	utcDateTimeLayout = "20060102T1504"
)

// Layouts carrying their own zone designator.
var zonedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04Z07:00",
}

// Layouts read as wall clock time in the builder's location.
var localLayouts = []string{
	"2006-1-2T15:04:05",
	"2006-1-2T15:04",
	"2006-1-2 15:04:05",
	"2006-1-2 15:04",
	"2006-1-2",
	"2006/1/2 15:04:05",
	"2006/1/2 15:04",
	"2006/1/2",
	"1-2-2006 15:04:05",
	"1-2-2006 15:04",
	"1-2-2006",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
}

// isDateTime reports whether s should be treated as a date-time rather than
// a bare date: it contains an uppercase T or a space anywhere.
func isDateTime(s string) bool {
	return strings.ContainsAny(s, "T ")
}

// parseMoment reads a loosely ISO-8601 date or date-time. Values without a
// zone designator are taken as wall clock time in loc.
func parseMoment(field, s string, loc *time.Location) (time.Time, error) {
	v := strings.TrimSpace(s)
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %s %q", ErrInvalidDate, field, s)
}

// formatLocalDate renders the calendar date of t in loc as YYYYMMDD.
func formatLocalDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(localDateLayout)
}

// formatUTCDateTime renders t as YYYYMMDDTHHMMSSZ in UTC. Seconds are
// written as 00 unless withSeconds is set.
func formatUTCDateTime(t time.Time, withSeconds bool) string {
	u := t.UTC()
	ss := "00"
	if withSeconds {
		ss = fmt.Sprintf("%02d", u.Second())
	}
	return u.Format(utcDateTimeLayout) + ss + "Z"
}

// addDays moves the calendar date of t in loc by n days, landing on
// midnight. Month and year rollover is left to time.Date normalisation.
func addDays(t time.Time, n int, loc *time.Location) time.Time {
	l := t.In(loc)
	return time.Date(l.Year(), l.Month(), l.Day()+n, 0, 0, 0, 0, loc)
}

func (b *Builder) formatDTStart(start string, now time.Time) (string, error) {
	if start == "" {
		return "DTSTART;VALUE=DATE:" + formatLocalDate(now, b.location), nil
	}
	t, err := parseMoment("start", start, b.location)
	if err != nil {
		return "", err
	}
	if isDateTime(start) {
		return "DTSTART:" + formatUTCDateTime(t, false), nil
	}
	return "DTSTART;VALUE=DATE:" + formatLocalDate(t, b.location), nil
}

func (b *Builder) formatDTEnd(start, end string, now time.Time) (string, error) {
	if start == "" {
		return "DTEND;VALUE=DATE:" + formatLocalDate(addDays(now, 1, b.location), b.location), nil
	}
	startIsDateTime := isDateTime(start)

	if end != "" {
		t, err := parseMoment("end", end, b.location)
		if err != nil {
			return "", err
		}
		if !startIsDateTime {
			return "DTEND;VALUE=DATE:" + formatLocalDate(t, b.location), nil
		}
		return "DTEND:" + formatUTCDateTime(t, true), nil
	}

	t, err := parseMoment("start", start, b.location)
	if err != nil {
		return "", err
	}
	if !startIsDateTime {
		return "DTEND;VALUE=DATE:" + formatLocalDate(addDays(t, 1, b.location), b.location), nil
	}
	return "DTEND:" + formatUTCDateTime(t, true), nil
}
