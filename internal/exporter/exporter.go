// Package exporter turns events from remote calendars into .ics documents
// and hands them to one or more sinks.
package exporter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"icsgen/internal/ics"
	"icsgen/internal/models"
)

// DefaultStateFile is where exported event IDs are remembered.
const DefaultStateFile = "export-state.json"

// State maps a source event ID to the UID it was exported under.
type State map[string]string

// Source yields upcoming events of a calendar.
type Source interface {
	UpcomingEvents(ctx context.Context, calendarID string, days int) ([]*models.Event, error)
}

// Sink receives a rendered document named after its UID.
type Sink interface {
	Deliver(ctx context.Context, name, doc string) error
}

// DirSink writes documents into a directory as <name>.ics.
type DirSink struct {
	Dir string
}

// Deliver writes doc to <Dir>/<name>.ics, creating Dir if needed.
func (s DirSink) Deliver(_ context.Context, name, doc string) error {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	_, err := ics.WriteDocument(filepath.Join(s.Dir, name), doc)
	return err
}

// Exporter pulls events from its sources and delivers them to its sinks.
type Exporter struct {
	logger      *slog.Logger
	builder     *ics.Builder
	sources     []Source
	calendarIDs []string
	sinks       []Sink
	statePath   string
	state       State
	claimed     map[string]string // UID -> event ID owning it
	dryRun      bool
}

// New creates an Exporter, loading previously exported IDs from statePath.
func New(logger *slog.Logger, builder *ics.Builder, sources []Source, calendarIDs []string, sinks []Sink, statePath string, dryRun bool) (*Exporter, error) {
	if statePath == "" {
		statePath = DefaultStateFile
	}
	state, err := loadState(statePath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load export state: %w", err)
		}
		logger.Info("No export state file found, starting fresh.", "file", statePath)
		state = make(State)
	}

	return &Exporter{
		logger:      logger,
		builder:     builder,
		sources:     sources,
		calendarIDs: calendarIDs,
		sinks:       sinks,
		statePath:   statePath,
		state:       state,
		claimed:     claimedUIDs(state),
		dryRun:      dryRun,
	}, nil
}

// Run performs one export cycle over events starting in the next days.
func (e *Exporter) Run(ctx context.Context, days int) error {
	e.logger.Info("Starting export cycle.", "days", days)

	events := e.fetchAll(ctx, days)
	e.logger.Info("Fetched events.", "count", len(events))

	exported := 0
	for _, event := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		ok, err := e.export(ctx, event)
		if err != nil {
			e.logger.Error("Failed to export event", "title", event.Attributes.Title, "id", event.ID, "error", err)
			continue
		}
		if ok {
			exported++
		}
	}

	if !e.dryRun {
		if err := e.saveState(); err != nil {
			return fmt.Errorf("failed to save export state: %w", err)
		}
	}

	e.logger.Info("Export cycle finished.", "exported", exported)
	return nil
}

func (e *Exporter) fetchAll(ctx context.Context, days int) []*models.Event {
	var all []*models.Event
	for _, source := range e.sources {
		for _, calID := range e.calendarIDs {
			events, err := source.UpcomingEvents(ctx, calID, days)
			if err != nil {
				e.logger.Error("Could not fetch events for a calendar", "calendarID", calID, "error", err)
				continue
			}
			all = append(all, events...)
		}
	}
	return all
}

// export reports whether event was delivered in this call.
func (e *Exporter) export(ctx context.Context, event *models.Event) (bool, error) {
	if uid, exists := e.state[event.ID]; exists {
		e.logger.Debug("Event already exported, skipping.", "title", event.Attributes.Title, "uid", uid)
		return false, nil
	}

	attrs := event.Attributes
	if attrs.UID == "" {
		e.logger.Warn("Event has no UID, generating a new one.", "title", attrs.Title, "id", event.ID)
		attrs.UID = ics.GenerateUID()
	}
	if owner, taken := e.claimed[attrs.UID]; taken && owner != event.ID {
		// Instances of a recurring event share one iCalendar UID.
		uid := instanceUID(event.ID, attrs.UID)
		e.logger.Debug("UID already exported for another event, using instance UID.", "uid", attrs.UID, "instanceUID", uid, "id", event.ID)
		attrs.UID = uid
	}

	doc, err := e.builder.Build(&attrs)
	if err != nil {
		return false, fmt.Errorf("failed to build document: %w", err)
	}

	if e.dryRun {
		e.logger.Info("[DRY RUN] Would export event", "title", attrs.Title, "uid", attrs.UID, "start", attrs.Start)
		return false, nil
	}

	for _, sink := range e.sinks {
		if err := sink.Deliver(ctx, attrs.UID, doc); err != nil {
			return false, fmt.Errorf("failed to deliver document: %w", err)
		}
	}

	e.state[event.ID] = attrs.UID
	e.claimed[attrs.UID] = event.ID
	e.logger.Info("Exported event.", "title", attrs.Title, "uid", attrs.UID, "source", event.Source)
	return true, nil
}

// instanceUID derives a UID from the source event ID, keeping the domain
// part of uid: ("abc_20260102", "abc@google.com") -> "abc_20260102@google.com".
func instanceUID(id, uid string) string {
	if at := strings.LastIndex(uid, "@"); at >= 0 {
		return id + uid[at:]
	}
	return id + "-" + uid
}

func claimedUIDs(state State) map[string]string {
	claimed := make(map[string]string, len(state))
	for id, uid := range state {
		claimed[uid] = id
	}
	return claimed
}

func loadState(path string) (State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	if state == nil {
		state = make(State)
	}
	return state, nil
}

func (e *Exporter) saveState() error {
	data, err := json.MarshalIndent(e.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal export state: %w", err)
	}
	return os.WriteFile(e.statePath, data, 0644)
}
