// Package publisher uploads generated calendar documents to a CalDAV server.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"

	"icsgen/internal/ics"

	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
)

const (
	// ICloudEndpoint is used when no endpoint is configured.
	ICloudEndpoint = "https://caldav.icloud.com/"
	userAgent      = "icsgen/1.0"
)

// authTransport adds basic auth and a User-Agent to every request.
type authTransport struct {
	Username  string
	Password  string
	Transport http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.SetBasicAuth(t.Username, t.Password)
	req.Header.Set("User-Agent", userAgent)
	return t.Transport.RoundTrip(req)
}

// Client PUTs .ics documents into one calendar collection.
type Client struct {
	webdavClient *webdav.Client
	logger       *slog.Logger
	endpoint     string
	calendarPath string
}

// NewClient connects to endpoint and locates the calendar whose display
// name is calendarName.
func NewClient(ctx context.Context, logger *slog.Logger, endpoint, username, password, calendarName string) (*Client, error) {
	if endpoint == "" {
		endpoint = ICloudEndpoint
	}
	httpClient := &http.Client{Transport: &authTransport{
		Username:  username,
		Password:  password,
		Transport: http.DefaultTransport,
	}}

	c, err := newClient(httpClient, logger, endpoint)
	if err != nil {
		return nil, err
	}
	caldavClient, err := caldav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}

	logger.Info("Finding CalDAV calendar", "endpoint", endpoint, "calendarName", calendarName)
	calendarPath, err := findCalendar(ctx, caldavClient, calendarName)
	if err != nil {
		return nil, fmt.Errorf("could not find calendar '%s': %w", calendarName, err)
	}
	c.calendarPath = calendarPath
	logger.Info("Found CalDAV calendar", "path", calendarPath)

	return c, nil
}

func newClient(httpClient webdav.HTTPClient, logger *slog.Logger, endpoint string) (*Client, error) {
	webdavClient, err := webdav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create webdav client: %w", err)
	}
	return &Client{webdavClient: webdavClient, logger: logger, endpoint: endpoint}, nil
}

// Deliver checks doc and stores it as <name>.ics in the calendar.
func (c *Client) Deliver(ctx context.Context, name, doc string) error {
	if _, err := ics.Verify(doc); err != nil {
		return fmt.Errorf("refusing to publish %s: %w", name, err)
	}

	objectPath := path.Join(c.calendarPath, ics.SetFileExtension(name))
	c.logger.Debug("Publishing calendar object", "path", objectPath)

	writer, err := c.webdavClient.Create(ctx, objectPath)
	if err != nil {
		return fmt.Errorf("failed to create event on CalDAV server: %w", err)
	}
	if _, err := writer.Write([]byte(doc)); err != nil {
		writer.Close()
		return fmt.Errorf("failed to upload event: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to upload event: %w", err)
	}

	c.logger.Info("Published calendar object", "path", objectPath)
	return nil
}

func findCalendar(ctx context.Context, client *caldav.Client, name string) (string, error) {
	principalPath, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find principal path: %w", err)
	}

	homeSetPath, err := client.FindCalendarHomeSet(ctx, principalPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendar home set: %w", err)
	}

	calendars, err := client.FindCalendars(ctx, homeSetPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}

	for _, cal := range calendars {
		if cal.Name == name {
			return cal.Path, nil
		}
	}
	return "", fmt.Errorf("no calendar found with name '%s'", name)
}
