package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"icsgen/internal/models"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const (
	credentialsFile = "credentials.json"
	redirectURL     = "urn:ietf:wg:oauth:2.0:oob"
	tokenPrefix     = "token-"
	tokenSuffix     = ".json"
)

// CalendarClient reads events from the Google Calendar API.
type CalendarClient struct {
	service *calendar.Service
	logger  *slog.Logger
	account string
}

// NewClient creates a Google Calendar client for one authenticated account.
// The account's token is read from token-<account>.json in the working
// directory; run the auth command to create it.
func NewClient(ctx context.Context, logger *slog.Logger, clientID, clientSecret, account string) (*CalendarClient, error) {
	config, err := OAuthConfig(clientID, clientSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to get OAuth config: %w", err)
	}

	token, err := tokenFromFile(TokenFile(account))
	if err != nil {
		return nil, fmt.Errorf("could not load token for account %s: %w. Please run the 'auth' command first", account, err)
	}

	service, err := calendar.NewService(ctx, option.WithHTTPClient(config.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return &CalendarClient{service: service, logger: logger, account: account}, nil
}

// UpcomingEvents fetches events starting within the next days from calendarID.
func (c *CalendarClient) UpcomingEvents(ctx context.Context, calendarID string, days int) ([]*models.Event, error) {
	c.logger.Debug("Fetching upcoming events", "account", c.account, "calendarID", calendarID, "days", days)
	now := time.Now().UTC()

	events, err := c.service.Events.List(calendarID).
		ShowDeleted(false).
		SingleEvents(true).
		TimeMin(now.Format(time.RFC3339)).
		TimeMax(now.AddDate(0, 0, days).Format(time.RFC3339)).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve events: %w", err)
	}

	c.logger.Info("Fetched events from Google Calendar", "count", len(events.Items), "calendarID", calendarID)
	return toEvents(events.Items, "google-"+calendarID), nil
}

func toEvents(items []*calendar.Event, source string) []*models.Event {
	events := make([]*models.Event, 0, len(items))
	for _, item := range items {
		if item == nil || item.Start == nil {
			continue
		}
		events = append(events, &models.Event{
			ID:         item.Id,
			Source:     source,
			Attributes: toAttributes(item),
		})
	}
	return events
}

// toAttributes maps a Google event onto an attribute record. All-day events
// carry bare dates, timed events RFC 3339 date-times.
func toAttributes(item *calendar.Event) models.EventAttributes {
	attrs := models.EventAttributes{
		UID:         item.ICalUID,
		Title:       item.Summary,
		Description: item.Description,
		Location:    item.Location,
		URL:         item.HtmlLink,
		Status:      item.Status,
		Start:       eventTime(item.Start),
		End:         eventTime(item.End),
	}

	if item.Organizer != nil {
		attrs.Organizer = &models.Person{Name: item.Organizer.DisplayName, Email: item.Organizer.Email}
	}
	for _, a := range item.Attendees {
		if a == nil {
			continue
		}
		attendee := models.Attendee{Name: a.DisplayName, Email: a.Email}
		if a.ResponseStatus != "" {
			rsvp := a.ResponseStatus == "needsAction"
			attendee.RSVP = &rsvp
		}
		attrs.Attendees = append(attrs.Attendees, attendee)
	}
	for _, a := range item.Attachments {
		if a != nil && a.FileUrl != "" {
			attrs.Attachments = append(attrs.Attachments, a.FileUrl)
		}
	}
	return attrs
}

func eventTime(t *calendar.EventDateTime) string {
	if t == nil {
		return ""
	}
	if t.DateTime != "" {
		return t.DateTime
	}
	return t.Date
}

// OAuthConfig returns the desktop-flow OAuth2 config. Explicit client
// credentials win over a local credentials.json file.
func OAuthConfig(clientID, clientSecret string) (*oauth2.Config, error) {
	if clientID != "" && clientSecret != "" {
		return &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{calendar.CalendarReadonlyScope},
			Endpoint:     google.Endpoint,
		}, nil
	}

	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return nil, fmt.Errorf("credentials.json not found. Please provide GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET or place credentials.json in the working directory")
		}
		return nil, fmt.Errorf("unable to read client secret file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, calendar.CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	config.RedirectURL = redirectURL
	return config, nil
}

// TokenFromWeb exchanges an authorization code for a token.
func TokenFromWeb(ctx context.Context, config *oauth2.Config, authCode string) (*oauth2.Token, error) {
	return config.Exchange(ctx, authCode)
}

// TokenFile is the file holding the token of account.
func TokenFile(account string) string {
	return tokenPrefix + account + tokenSuffix
}

// SaveToken writes token to path as JSON.
func SaveToken(path string, token *oauth2.Token) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create token file: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

// TokenAccounts lists the accounts that have a token file in dir.
func TokenAccounts(dir string) ([]string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var accounts []string
	for _, file := range files {
		name := filepath.Base(file.Name())
		if file.IsDir() || !strings.HasPrefix(name, tokenPrefix) || !strings.HasSuffix(name, tokenSuffix) {
			continue
		}
		accounts = append(accounts, strings.TrimSuffix(strings.TrimPrefix(name, tokenPrefix), tokenSuffix))
	}
	return accounts, nil
}
