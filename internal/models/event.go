package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// EventAttributes describes a single calendar event to be rendered.
// Every field is optional; zero values mean "not given".
type EventAttributes struct {
	UID         string     `json:"uid,omitempty"`
	Start       string     `json:"start,omitempty"` // date or date-time text, e.g. "1985-09-25" or "2017-09-25T02:30:00Z"
	End         string     `json:"end,omitempty"`
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	URL         string     `json:"url,omitempty"`
	Status      string     `json:"status,omitempty"` // TENTATIVE, CONFIRMED or CANCELLED, any case
	Geo         *Geo       `json:"geo,omitempty"`
	Organizer   *Person    `json:"organizer,omitempty"`
	Attendees   []Attendee `json:"attendees,omitempty"`
	Categories  []string   `json:"categories,omitempty"`
	Attachments []string   `json:"attachments,omitempty"`
}

// IsZero reports whether no attribute has been set.
func (a *EventAttributes) IsZero() bool {
	if a == nil {
		return true
	}
	return a.UID == "" && a.Start == "" && a.End == "" &&
		a.Title == "" && a.Description == "" && a.Location == "" && a.URL == "" &&
		a.Status == "" && a.Geo == nil && a.Organizer == nil &&
		len(a.Attendees) == 0 && len(a.Categories) == 0 && len(a.Attachments) == 0
}

// Geo is a latitude/longitude pair.
type Geo struct {
	Lat Coordinate `json:"lat"`
	Lon Coordinate `json:"lon"`
}

// Coordinate is a decimal degree value. When decoded from JSON it accepts
// either a number or a numeric string; anything else decodes to 0.
type Coordinate float64

// UnmarshalJSON decodes a number or numeric string into c.
func (c *Coordinate) UnmarshalJSON(b []byte) error {
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		*c = Coordinate(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			*c = Coordinate(f)
			return nil
		}
	}
	*c = 0
	return nil
}

// Person is a named calendar user, used for the organizer.
type Person struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Attendee is an invited participant. RSVP is accepted but not rendered.
type Attendee struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	RSVP  *bool  `json:"rsvp,omitempty"`
}

// Event is an attribute record together with where it came from.
type Event struct {
	ID         string // Identifier in the source calendar
	Source     string // e.g. "google-primary"
	Attributes EventAttributes
}
