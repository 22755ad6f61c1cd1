// Package ics renders event attribute records as iCalendar (RFC 5545)
// documents containing a single VEVENT.
//
// Output is textually exact: properties appear in a fixed order, lines are
// joined with CRLF and optional properties that cannot be represented are
// left out rather than reported.
package ics

import (
	"strings"
	"time"

	"icsgen/internal/models"

	"github.com/google/uuid"
)

const (
	// DefaultFilename is the base name used when writing documents.
	DefaultFilename = "event"
	// ProductID identifies the generator in the PRODID property.
	ProductID = "-//Adam Gibbons//agibbons.com//ICS: iCalendar Generator"

	lineDelimiter = "\r\n"
)

var header = []string{
	"BEGIN:VCALENDAR",
	"VERSION:2.0",
	"CALSCALE:GREGORIAN",
	"PRODID:" + ProductID,
}

// Builder turns EventAttributes into calendar text. It holds no mutable
// state; a Builder is safe for concurrent use as long as its clock and UID
// generator are.
type Builder struct {
	filename    string
	now         func() time.Time
	generateUID func() string
	location    *time.Location
}

// Option configures a Builder.
type Option func(*Builder)

// WithFilename sets the base name used by WriteFile. Empty keeps the default.
func WithFilename(name string) Option {
	return func(b *Builder) {
		if name != "" {
			b.filename = name
		}
	}
}

// WithClock replaces time.Now as the source of DTSTAMP and defaulted dates.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		if now != nil {
			b.now = now
		}
	}
}

// WithUIDGenerator replaces the UUID generator used when no uid is given.
func WithUIDGenerator(generate func() string) Option {
	return func(b *Builder) {
		if generate != nil {
			b.generateUID = generate
		}
	}
}

// WithLocation sets the zone for bare dates and date-times without a zone
// designator. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(b *Builder) {
		if loc != nil {
			b.location = loc
		}
	}
}

// New creates a Builder.
func New(opts ...Option) *Builder {
	b := &Builder{
		filename:    DefaultFilename,
		now:         time.Now,
		generateUID: GenerateUID,
		location:    time.Local,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Filename returns the configured base name, without extension.
func (b *Builder) Filename() string {
	return b.filename
}

// Build renders attrs as a calendar document. A nil or zero record yields
// the default document: header, generated UID, DTSTAMP and a one day
// DTSTART/DTEND starting today.
//
// The only error is ErrInvalidDate, for start or end text that cannot be
// read as a date.
func (b *Builder) Build(attrs *models.EventAttributes) (string, error) {
	if attrs.IsZero() {
		return b.buildDefault()
	}
	now := b.now()

	dtstart, err := b.formatDTStart(attrs.Start, now)
	if err != nil {
		return "", err
	}
	dtend, err := b.formatDTEnd(attrs.Start, attrs.End, now)
	if err != nil {
		return "", err
	}

	lines := append([]string{}, header...)
	lines = append(lines,
		"BEGIN:VEVENT",
		formatUID(attrs.UID, b.generateUID),
		"DTSTAMP:"+formatUTCDateTime(now, true),
		dtstart,
		dtend,
		formatProperty("SUMMARY", attrs.Title),
		formatProperty("DESCRIPTION", attrs.Description),
		formatProperty("LOCATION", attrs.Location),
		formatProperty("URL", attrs.URL),
		formatStatus(attrs.Status),
		formatGeo(attrs.Geo),
	)
	lines = append(lines, formatAttendees(attrs.Attendees)...)
	lines = append(lines, formatOrganizer(attrs.Organizer), formatCategories(attrs.Categories))
	lines = append(lines, formatAttachments(attrs.Attachments)...)
	lines = append(lines, "END:VEVENT", "END:VCALENDAR")

	return strings.Join(compact(lines), lineDelimiter), nil
}

func (b *Builder) buildDefault() (string, error) {
	now := b.now()
	dtstart, err := b.formatDTStart("", now)
	if err != nil {
		return "", err
	}
	dtend, err := b.formatDTEnd("", "", now)
	if err != nil {
		return "", err
	}

	lines := append([]string{}, header...)
	lines = append(lines,
		"BEGIN:VEVENT",
		formatUID("", b.generateUID),
		"DTSTAMP:"+formatUTCDateTime(now, true),
		dtstart,
		dtend,
		"END:VEVENT",
		"END:VCALENDAR",
	)
	return strings.Join(lines, lineDelimiter), nil
}

// compact drops empty entries, keeping order.
func compact(lines []string) []string {
	out := lines[:0]
	for _, l := range lines {
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

// GenerateUID returns a time-based (version 1) UUID, falling back to a
// random one when the node clock is unavailable.
func GenerateUID() string {
	id, err := uuid.NewUUID()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
