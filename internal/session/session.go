package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-autopilot/internal/autopilot"
	"github.com/nerrad567/gray-logic-autopilot/internal/modulation"
	"github.com/nerrad567/gray-logic-autopilot/internal/project"
	"github.com/nerrad567/gray-logic-autopilot/internal/show"
)

// EnabledSetting is the project setting holding the autopilot toggle.
const EnabledSetting = "autopilot.enabled"

// StateChannel is the broadcast channel name for autopilot state changes.
const StateChannel = "autopilot.state"

// Broadcaster receives every state change. The WebSocket hub and the MQTT
// control surface both implement it.
type Broadcaster interface {
	Broadcast(channel string, payload any)
}

// Logger is the logging interface used by the session.
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

// Deps are the collaborators a Session serialises access to.
type Deps struct {
	Graph      *show.Graph
	Modulation *modulation.Engine
	Autopilot  *autopilot.Autopilot
	Project    *project.Project

	// Autosave saves the project after every toggle and reset.
	Autosave bool
	Logger   Logger
}

// Session owns the show graph, the engines and the controller, and is the
// only entry point the API, MQTT control and tick loop use.
//
// Thread Safety: all methods are safe for concurrent use.
type Session struct {
	mu       sync.Mutex
	graph    *show.Graph
	mods     *modulation.Engine
	ap       *autopilot.Autopilot
	proj     *project.Project
	autosave bool
	logger   Logger

	bmu          sync.RWMutex
	broadcasters []Broadcaster
}

// New creates a session and registers the controller as a project listener.
func New(deps Deps) (*Session, error) {
	switch {
	case deps.Graph == nil:
		return nil, fmt.Errorf("%w: graph", ErrMissingDependency)
	case deps.Modulation == nil:
		return nil, fmt.Errorf("%w: modulation engine", ErrMissingDependency)
	case deps.Autopilot == nil:
		return nil, fmt.Errorf("%w: autopilot", ErrMissingDependency)
	case deps.Project == nil:
		return nil, fmt.Errorf("%w: project", ErrMissingDependency)
	}
	logger := deps.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	deps.Project.AddListener(deps.Autopilot)

	return &Session{
		graph:    deps.Graph,
		mods:     deps.Modulation,
		ap:       deps.Autopilot,
		proj:     deps.Project,
		autosave: deps.Autosave,
		logger:   logger,
	}, nil
}

// AddBroadcaster registers b to receive state changes.
func (s *Session) AddBroadcaster(b Broadcaster) {
	s.bmu.Lock()
	defer s.bmu.Unlock()
	s.broadcasters = append(s.broadcasters, b)
}

// Status returns the controller's current status.
func (s *Session) Status() autopilot.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ap.Status()
}

// SetEnabled toggles the autopilot.
//
// Parameters:
//   - ctx: Context for the autosave, if enabled
//   - on: The requested state
//
// Returns:
//   - autopilot.Status: The status after the transition
//   - error: nil on success, or the autosave error; the transition itself
//     has already happened when an autosave fails
func (s *Session) SetEnabled(ctx context.Context, on bool) (autopilot.Status, error) {
	s.mu.Lock()
	changed := s.ap.Enabled() != on
	s.ap.SetEnabled(on)
	err := s.autosaveLocked(ctx, changed)
	st := s.ap.Status()
	s.mu.Unlock()

	if changed {
		s.logger.Info("autopilot toggled", "enabled", on)
		s.broadcast(st)
	}
	return st, err
}

// Reset clears every autopilot snapshot and modulation so the next enable
// runs a first start. It returns autopilot.ErrResetWhileEnabled while the
// autopilot is on.
func (s *Session) Reset(ctx context.Context) (autopilot.Status, error) {
	s.mu.Lock()
	if err := s.ap.Reset(); err != nil {
		st := s.ap.Status()
		s.mu.Unlock()
		return st, err
	}
	err := s.autosaveLocked(ctx, true)
	st := s.ap.Status()
	s.mu.Unlock()

	s.logger.Info("autopilot reset")
	s.broadcast(st)
	return st, err
}

// Save persists the project together with the autopilot toggle.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx)
}

// Load replaces the current state with the saved project and restores the
// autopilot toggle without running a transition.
func (s *Session) Load(ctx context.Context) (autopilot.Status, error) {
	s.mu.Lock()
	settings, err := s.proj.Load(ctx)
	if err != nil {
		st := s.ap.Status()
		s.mu.Unlock()
		return st, err
	}
	enabled, perr := strconv.ParseBool(settings[EnabledSetting])
	if perr != nil && settings[EnabledSetting] != "" {
		s.logger.Warn("invalid saved autopilot setting", "value", settings[EnabledSetting])
	}
	s.ap.Restore(enabled)
	st := s.ap.Status()
	s.mu.Unlock()

	s.broadcast(st)
	return st, nil
}

// LoadOrInit loads the saved project if one exists. A missing project is
// not an error.
func (s *Session) LoadOrInit(ctx context.Context) error {
	if _, err := s.Load(ctx); err != nil && !errors.Is(err, project.ErrNoProject) {
		return err
	}
	return nil
}

// Tick advances every oscillator by dt.
func (s *Session) Tick(dt time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mods.Tick(dt)
}

// Run ticks the modulation engine every interval until ctx is cancelled.
func (s *Session) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidInterval, interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			s.Tick(now.Sub(last))
			last = now
		}
	}
}

func (s *Session) saveLocked(ctx context.Context) error {
	settings := map[string]string{
		EnabledSetting: strconv.FormatBool(s.ap.Enabled()),
	}
	return s.proj.Save(ctx, settings)
}

func (s *Session) autosaveLocked(ctx context.Context, changed bool) error {
	if !s.autosave || !changed {
		return nil
	}
	if err := s.saveLocked(ctx); err != nil {
		s.logger.Error("autosave failed", "error", err)
		return fmt.Errorf("autosave: %w", err)
	}
	return nil
}

func (s *Session) broadcast(st autopilot.Status) {
	s.bmu.RLock()
	defer s.bmu.RUnlock()
	for _, b := range s.broadcasters {
		b.Broadcast(StateChannel, st)
	}
}
