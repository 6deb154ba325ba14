package autopilot

import (
	"github.com/nerrad567/gray-logic-autopilot/internal/modulation"
	"github.com/nerrad567/gray-logic-autopilot/internal/show"
)

// Qualifier decides which channels and patterns take part in automation.
type Qualifier interface {
	// ChannelQualifies reports whether the channel is automated at all.
	ChannelQualifies(ch *show.Channel) bool

	// PatternQualifies reports whether a pattern on a qualifying channel
	// gets placements.
	PatternQualifies(ch *show.Channel, pattern *show.Component) bool
}

// DefaultQualifier accepts every channel and pattern. Embed it to override
// only one of the predicates.
type DefaultQualifier struct{}

// ChannelQualifies accepts every channel.
func (DefaultQualifier) ChannelQualifies(*show.Channel) bool { return true }

// PatternQualifies accepts every pattern.
func (DefaultQualifier) PatternQualifies(*show.Channel, *show.Component) bool { return true }

// Hooks receives lifecycle notifications from the controller.
// Hooks are called synchronously on the caller's goroutine.
type Hooks interface {
	// WillEnable runs before any enable work, on first start and resume.
	WillEnable()
	// Starting runs on first start after stray owned objects are removed.
	Starting()
	// Started reports the number of bindings first start created.
	Started(modulations int)
	// DidEnable runs once the controller is fully enabled.
	DidEnable()
	// WillDisable runs before the running snapshot is captured.
	WillDisable()
	// DidDisable runs once oscillators are stopped and rewound.
	DidDisable()
	// ModAdded reports each binding created by placement.
	ModAdded(target show.Continuous, osc *modulation.Oscillator, binding *modulation.Binding)
}

// NopHooks implements Hooks with empty methods. Embed it to implement only
// the notifications you need.
type NopHooks struct{}

// WillEnable does nothing.
func (NopHooks) WillEnable() {}

// Starting does nothing.
func (NopHooks) Starting() {}

// Started does nothing.
func (NopHooks) Started(int) {}

// DidEnable does nothing.
func (NopHooks) DidEnable() {}

// WillDisable does nothing.
func (NopHooks) WillDisable() {}

// DidDisable does nothing.
func (NopHooks) DidDisable() {}

// ModAdded does nothing.
func (NopHooks) ModAdded(show.Continuous, *modulation.Oscillator, *modulation.Binding) {}

// MetricsWriter records autopilot lifecycle events to a time-series store.
type MetricsWriter interface {
	WriteAutopilotEvent(event string, modulations int)
}

// Telemetry event names.
const (
	EventStarted  = "started"
	EventEnabled  = "enabled"
	EventDisabled = "disabled"
)

// TelemetryHooks forwards lifecycle events to a MetricsWriter.
type TelemetryHooks struct {
	NopHooks
	writer MetricsWriter
}

// NewTelemetryHooks creates hooks that write to w.
func NewTelemetryHooks(w MetricsWriter) *TelemetryHooks {
	return &TelemetryHooks{writer: w}
}

// Started records a first start with its binding count.
func (h *TelemetryHooks) Started(modulations int) {
	h.writer.WriteAutopilotEvent(EventStarted, modulations)
}

// DidEnable records an enable.
func (h *TelemetryHooks) DidEnable() { h.writer.WriteAutopilotEvent(EventEnabled, 0) }

// DidDisable records a disable.
func (h *TelemetryHooks) DidDisable() { h.writer.WriteAutopilotEvent(EventDisabled, 0) }
