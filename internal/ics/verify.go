package ics

import (
	"fmt"
	"strings"

	"github.com/emersion/go-ical"
)

// Verify decodes doc and checks that it is a calendar holding exactly one
// event with UID, DTSTAMP and DTSTART.
func Verify(doc string) (*ical.Calendar, error) {
	if !strings.HasSuffix(doc, lineDelimiter) {
		doc += lineDelimiter
	}
	cal, err := ical.NewDecoder(strings.NewReader(doc)).Decode()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	events := cal.Events()
	if len(events) != 1 {
		return nil, fmt.Errorf("%w: expected 1 VEVENT, found %d", ErrInvalidDocument, len(events))
	}
	for _, name := range []string{ical.PropUID, ical.PropDateTimeStamp, ical.PropDateTimeStart} {
		if events[0].Props.Get(name) == nil {
			return nil, fmt.Errorf("%w: VEVENT has no %s", ErrInvalidDocument, name)
		}
	}
	return cal, nil
}
