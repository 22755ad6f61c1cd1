package google

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"icsgen/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"
)

func TestToAttributes_TimedEvent(t *testing.T) {
	item := &calendar.Event{
		Id:          "g-1",
		ICalUID:     "g-1@google.com",
		Summary:     "Standup",
		Description: "Daily sync",
		Location:    "Room 4",
		HtmlLink:    "https://calendar.google.com/event?eid=g-1",
		Status:      "confirmed",
		Start:       &calendar.EventDateTime{DateTime: "2025-06-02T09:00:00+02:00"},
		End:         &calendar.EventDateTime{DateTime: "2025-06-02T09:15:00+02:00"},
		Organizer:   &calendar.EventOrganizer{DisplayName: "Lead", Email: "lead@example.com"},
		Attendees: []*calendar.EventAttendee{
			{DisplayName: "Ana", Email: "ana@example.com", ResponseStatus: "accepted"},
			{DisplayName: "Bo", Email: "bo@example.com", ResponseStatus: "needsAction"},
			{Email: "nameless@example.com"},
		},
		Attachments: []*calendar.EventAttachment{{FileUrl: "https://drive.google.com/a"}, {Title: "no url"}},
	}

	attrs := toAttributes(item)

	yes, no := true, false
	want := models.EventAttributes{
		UID:         "g-1@google.com",
		Title:       "Standup",
		Description: "Daily sync",
		Location:    "Room 4",
		URL:         "https://calendar.google.com/event?eid=g-1",
		Status:      "confirmed",
		Start:       "2025-06-02T09:00:00+02:00",
		End:         "2025-06-02T09:15:00+02:00",
		Organizer:   &models.Person{Name: "Lead", Email: "lead@example.com"},
		Attendees: []models.Attendee{
			{Name: "Ana", Email: "ana@example.com", RSVP: &no},
			{Name: "Bo", Email: "bo@example.com", RSVP: &yes},
			{Email: "nameless@example.com"},
		},
		Attachments: []string{"https://drive.google.com/a"},
	}
	assert.Equal(t, want, attrs)
}

func TestToAttributes_AllDayEvent(t *testing.T) {
	attrs := toAttributes(&calendar.Event{
		Summary: "Holiday",
		Start:   &calendar.EventDateTime{Date: "2025-12-25"},
		End:     &calendar.EventDateTime{Date: "2025-12-26"},
	})
	assert.Equal(t, "2025-12-25", attrs.Start)
	assert.Equal(t, "2025-12-26", attrs.End)
	assert.Nil(t, attrs.Organizer)
}

func TestToEvents_SkipsEventsWithoutStart(t *testing.T) {
	events := toEvents([]*calendar.Event{
		{Id: "a", Start: &calendar.EventDateTime{Date: "2025-01-01"}},
		{Id: "b"},
		nil,
	}, "google-primary")

	require.Len(t, events, 1)
	assert.Equal(t, "a", events[0].ID)
	assert.Equal(t, "google-primary", events[0].Source)
}

func TestTokenAccounts(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"token-work.json", "token-personal.json", "credentials.json", "token-notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "token-dir.json"), 0755))

	accounts, err := TokenAccounts(dir)
	require.NoError(t, err)
	sort.Strings(accounts)
	assert.Equal(t, []string{"personal", "work"}, accounts)
	assert.Equal(t, "token-work.json", TokenFile("work"))
}

func TestOAuthConfig_FromClientCredentials(t *testing.T) {
	config, err := OAuthConfig("id", "secret")
	require.NoError(t, err)
	assert.Equal(t, "id", config.ClientID)
	assert.Equal(t, redirectURL, config.RedirectURL)
	assert.Equal(t, []string{calendar.CalendarReadonlyScope}, config.Scopes)
}
