// Package project saves and reloads the host state the autopilot depends on:
// parameter values, modulation objects and snapshots.
//
// A reload recreates every oscillator, binding and snapshot with a new
// identity. Labels and parameter addresses survive. Listeners are told
// whether a change was a save (references still valid) or a load or new
// project (references must be dropped).
package project

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-autopilot/internal/modulation"
	"github.com/nerrad567/gray-logic-autopilot/internal/show"
	"github.com/nerrad567/gray-logic-autopilot/internal/snapshot"
)

// ErrNoProject is returned by Load when the store holds no saved project.
var ErrNoProject = errors.New("project: nothing saved")

// EventKind distinguishes project lifecycle events.
type EventKind string

const (
	EventNew    EventKind = "new"
	EventSaved  EventKind = "saved"
	EventLoaded EventKind = "loaded"
)

// Event is delivered to listeners after a lifecycle change completes.
type Event struct {
	Kind EventKind
	At   time.Time
}

// Listener is notified of project lifecycle events.
type Listener interface {
	ProjectChanged(ev Event)
}

// Logger defines the logging interface used by the project.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Store persists project documents.
type Store interface {
	SaveDocument(ctx context.Context, doc *Document) error

	// LoadDocument returns ErrNoProject when nothing has been saved.
	LoadDocument(ctx context.Context) (*Document, error)
}

// Project ties the graph and its engines to a store.
//
// Thread Safety: not safe for concurrent use.
type Project struct {
	graph     *show.Graph
	mods      *modulation.Engine
	snaps     *snapshot.Engine
	store     Store
	listeners []Listener
	logger    Logger
}

// New creates a project over the given graph, engines and store.
func New(graph *show.Graph, mods *modulation.Engine, snaps *snapshot.Engine, store Store) *Project {
	return &Project{
		graph:  graph,
		mods:   mods,
		snaps:  snaps,
		store:  store,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the project.
func (p *Project) SetLogger(logger Logger) {
	p.logger = logger
}

// AddListener registers a listener for lifecycle events.
func (p *Project) AddListener(l Listener) {
	p.listeners = append(p.listeners, l)
}

func (p *Project) notify(kind EventKind) {
	ev := Event{Kind: kind, At: time.Now().UTC()}
	for _, l := range p.listeners {
		l.ProjectChanged(ev)
	}
}

// Save writes the current state and the given settings to the store.
func (p *Project) Save(ctx context.Context, settings map[string]string) error {
	doc := Capture(p.graph, p.mods, p.snaps)
	doc.Settings = settings
	if err := p.store.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("saving project: %w", err)
	}
	p.logger.Info("project saved",
		"parameters", len(doc.Parameters),
		"oscillators", len(doc.Oscillators),
		"snapshots", len(doc.Snapshots),
	)
	p.notify(EventSaved)
	return nil
}

// Load replaces the engines' contents and the graph's values with the saved
// document and returns its settings.
func (p *Project) Load(ctx context.Context) (map[string]string, error) {
	doc, err := p.store.LoadDocument(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading project: %w", err)
	}
	skipped := Apply(doc, p.graph, p.mods, p.snaps)
	if skipped > 0 {
		p.logger.Warn("project entries no longer match the graph", "skipped", skipped)
	}
	p.logger.Info("project loaded",
		"oscillators", len(doc.Oscillators),
		"snapshots", len(doc.Snapshots),
	)
	p.notify(EventLoaded)
	return doc.Settings, nil
}

// Reset clears every modulation object and snapshot, keeping the graph.
func (p *Project) Reset() {
	p.mods.Clear()
	p.snaps.Clear()
	p.logger.Info("new project")
	p.notify(EventNew)
}
