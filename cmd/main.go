package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"icsgen/internal/exporter"
	"icsgen/internal/google"
	"icsgen/internal/ics"
	"icsgen/internal/models"
	"icsgen/internal/publisher"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		setupLogger(os.Getenv("LOG_LEVEL")).Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "icsgen",
		Usage: "Generate iCalendar (.ics) event files.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Value: "info", EnvVars: []string{"LOG_LEVEL"}, Usage: "debug, info, warn or error"},
			&cli.StringFlag{Name: "timezone", EnvVars: []string{"PRIMARY_TIMEZONE"}, Usage: "Zone for bare dates and zone-less times (default: local)"},
		},
		Commands: []*cli.Command{
			buildCommand(),
			validateCommand(),
			authCommand(),
			exportCommand(),
		},
	}
}

func buildCommand() *cli.Command {
	return &cli.Command{
		Name:  "build",
		Usage: "Render event attributes (JSON) as an iCalendar document.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "in", Value: "-", Usage: "JSON attributes file, - for stdin"},
			&cli.StringFlag{Name: "out", Usage: "Directory to write <filename>.ics into; prints to stdout when empty"},
			&cli.StringFlag{Name: "filename", Value: ics.DefaultFilename, EnvVars: []string{"ICS_FILENAME"}, Usage: "Base name of the written file"},
		},
		Action: func(c *cli.Context) error {
			logger := setupLogger(c.String("log-level"))

			builder, err := newBuilder(c, ics.WithFilename(c.String("filename")))
			if err != nil {
				return err
			}

			attrs, err := readAttributes(c.String("in"), c.App.Reader)
			if err != nil {
				return err
			}

			if dir := c.String("out"); dir != "" {
				path, err := builder.WriteFile(dir, attrs)
				if err != nil {
					return err
				}
				logger.Info("Wrote calendar file.", "path", path)
				return nil
			}

			doc, err := builder.Build(attrs)
			if err != nil {
				return fmt.Errorf("failed to build event: %w", err)
			}
			_, err = fmt.Fprint(c.App.Writer, doc)
			return err
		},
	}
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Check that a file is a single-event iCalendar document.",
		ArgsUsage: "FILE",
		Action: func(c *cli.Context) error {
			logger := setupLogger(c.String("log-level"))
			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one file argument")
			}

			data, err := os.ReadFile(c.Args().First())
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}
			cal, err := ics.Verify(string(data))
			if err != nil {
				return err
			}

			event := cal.Events()[0]
			attrs := []any{"file", c.Args().First(), "uid", event.Props.Get("UID").Value}
			if p := event.Props.Get("SUMMARY"); p != nil {
				attrs = append(attrs, "summary", p.Value)
			}
			attrs = append(attrs, "start", event.Props.Get("DTSTART").Value)
			logger.Info("Calendar document is valid.", attrs...)
			return nil
		},
	}
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with a Google account to get an API token.",
		Flags: googleFlags(),
		Action: func(c *cli.Context) error {
			logger := setupLogger(c.String("log-level"))
			logger.Info("Starting Google authentication flow.")

			config, err := google.OAuthConfig(c.String("google-client-id"), c.String("google-client-secret"))
			if err != nil {
				return fmt.Errorf("failed to get google oauth config: %w", err)
			}

			authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
			fmt.Fprintf(c.App.Writer, "Go to the following link in your browser then type the "+
				"authorization code: \n%v\n", authURL)

			fmt.Fprint(c.App.Writer, "Enter Authorization Code: ")
			reader := bufio.NewReader(c.App.Reader)
			authCode, _ := reader.ReadString('\n')
			authCode = strings.TrimSpace(authCode)

			token, err := google.TokenFromWeb(c.Context, config, authCode)
			if err != nil {
				return fmt.Errorf("unable to retrieve token from web: %w", err)
			}

			fmt.Fprint(c.App.Writer, "Enter a name for this account (e.g., 'personal', 'work'): ")
			account, _ := reader.ReadString('\n')
			tokenFile := google.TokenFile(strings.TrimSpace(account))

			if err := google.SaveToken(tokenFile, token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			logger.Info("Successfully authenticated and saved token.", "file", tokenFile)
			return nil
		},
	}
}

func exportCommand() *cli.Command {
	flags := append(googleFlags(),
		&cli.StringFlag{Name: "calendars", EnvVars: []string{"GOOGLE_CALENDAR_IDS"}, Usage: "Comma separated Google calendar IDs"},
		&cli.IntFlag{Name: "days", Value: 7, Usage: "Export events starting within this many days"},
		&cli.StringFlag{Name: "out", Usage: "Directory to write .ics files into"},
		&cli.BoolFlag{Name: "publish", Usage: "Upload documents to the CalDAV calendar"},
		&cli.StringFlag{Name: "caldav-endpoint", Value: publisher.ICloudEndpoint, EnvVars: []string{"CALDAV_ENDPOINT"}},
		&cli.StringFlag{Name: "caldav-username", EnvVars: []string{"CALDAV_USERNAME", "ICLOUD_USERNAME"}},
		&cli.StringFlag{Name: "caldav-password", EnvVars: []string{"CALDAV_PASSWORD", "ICLOUD_APP_SPECIFIC_PASSWORD"}},
		&cli.StringFlag{Name: "caldav-calendar", EnvVars: []string{"CALDAV_CALENDAR_NAME", "ICLOUD_CALENDAR_NAME"}},
		&cli.StringFlag{Name: "state", Value: exporter.DefaultStateFile, Usage: "File remembering exported events"},
		&cli.BoolFlag{Name: "dry-run", Usage: "Log what would be exported without writing anything."},
		&cli.IntFlag{Name: "watch", Usage: "Run an export every N seconds."},
	)

	return &cli.Command{
		Name:  "export",
		Usage: "Export upcoming Google Calendar events as .ics files or to a CalDAV calendar.",
		Flags: flags,
		Action: func(c *cli.Context) error {
			logger := setupLogger(c.String("log-level"))

			if c.IsSet("watch") && c.Int("watch") <= 0 {
				return fmt.Errorf("--watch must be a positive number of seconds, got %d", c.Int("watch"))
			}

			if c.Bool("dry-run") {
				logger.Info("Performing a dry run. No changes will be made.")
			}

			calendarIDs := splitList(c.String("calendars"))
			if len(calendarIDs) == 0 {
				return fmt.Errorf("no calendars given, set --calendars or GOOGLE_CALENDAR_IDS")
			}

			accounts, err := google.TokenAccounts(".")
			if err != nil {
				return fmt.Errorf("could not find any google accounts, did you run auth command? %w", err)
			}
			if len(accounts) == 0 {
				return fmt.Errorf("no google accounts found. Run the 'auth' command first")
			}

			var sources []exporter.Source
			for _, acc := range accounts {
				client, err := google.NewClient(c.Context, logger, c.String("google-client-id"), c.String("google-client-secret"), acc)
				if err != nil {
					return fmt.Errorf("failed to create google client for account %s: %w", acc, err)
				}
				sources = append(sources, client)
			}
			logger.Info("Initialized Google clients for all accounts.", "count", len(sources))

			var sinks []exporter.Sink
			if dir := c.String("out"); dir != "" {
				sinks = append(sinks, exporter.DirSink{Dir: dir})
			}
			if c.Bool("publish") {
				client, err := publisher.NewClient(c.Context, logger, c.String("caldav-endpoint"),
					c.String("caldav-username"), c.String("caldav-password"), c.String("caldav-calendar"))
				if err != nil {
					return fmt.Errorf("failed to create caldav client: %w", err)
				}
				sinks = append(sinks, client)
			}
			if len(sinks) == 0 {
				return fmt.Errorf("nothing to export to, set --out and/or --publish")
			}

			builder, err := newBuilder(c)
			if err != nil {
				return err
			}

			e, err := exporter.New(logger, builder, sources, calendarIDs, sinks, c.String("state"), c.Bool("dry-run"))
			if err != nil {
				return fmt.Errorf("failed to create exporter: %w", err)
			}

			if !c.IsSet("watch") {
				logger.Info("Running a single export cycle.")
				return e.Run(c.Context, c.Int("days"))
			}

			interval := time.Duration(c.Int("watch")) * time.Second
			logger.Info("Starting watcher.", "interval", interval)
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				if err := e.Run(c.Context, c.Int("days")); err != nil {
					logger.Error("Export cycle failed", "error", err)
				}
				select {
				case <-c.Context.Done():
					return c.Context.Err()
				case <-ticker.C:
				}
			}
		},
	}
}

func googleFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "google-client-id", EnvVars: []string{"GOOGLE_CLIENT_ID"}},
		&cli.StringFlag{Name: "google-client-secret", EnvVars: []string{"GOOGLE_CLIENT_SECRET"}},
	}
}

func newBuilder(c *cli.Context, opts ...ics.Option) (*ics.Builder, error) {
	if tz := c.String("timezone"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone '%s': %w", tz, err)
		}
		opts = append(opts, ics.WithLocation(loc))
	}
	return ics.New(opts...), nil
}

// readAttributes decodes JSON attributes from path, or from stdin for "-".
// Blank input yields nil, which builds the default document.
func readAttributes(path string, stdin io.Reader) (*models.EventAttributes, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read attributes: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, nil
	}

	attrs := &models.EventAttributes{}
	if err := json.Unmarshal(data, attrs); err != nil {
		return nil, fmt.Errorf("failed to parse attributes: %w", err)
	}
	return attrs, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      logLevel,
		TimeFormat: time.RFC1123Z,
	}))
}
