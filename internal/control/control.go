package control

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/nerrad567/gray-logic-autopilot/internal/audit"
	"github.com/nerrad567/gray-logic-autopilot/internal/autopilot"
	"github.com/nerrad567/gray-logic-autopilot/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-autopilot/internal/session"
)

// outboundBuffer is the number of queued publishes before new ones are dropped.
const outboundBuffer = 32

// Client is the part of mqtt.Client the handler uses.
type Client interface {
	Publish(ctx context.Context, topic string, payload []byte, qos byte, retained bool) error
	Subscribe(ctx context.Context, topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(ctx context.Context, topic string) error
}

// Controller is the part of session.Session the handler drives.
type Controller interface {
	Status() autopilot.Status
	SetEnabled(ctx context.Context, on bool) (autopilot.Status, error)
	Reset(ctx context.Context) (autopilot.Status, error)
}

// Logger is the logging interface used by the handler.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// Command is an inbound control message. Exactly one of Enabled or Reset
// must be set.
type Command struct {
	Enabled *bool `json:"enabled,omitempty" validate:"required_without=Reset,excluded_with=Reset"`
	Reset   bool  `json:"reset,omitempty" validate:"required_without=Enabled"`
}

// Event is the payload published for each lifecycle event.
type Event struct {
	Event       string `json:"event"`
	Modulations int    `json:"modulations,omitempty"`
	Timestamp   string `json:"timestamp"`
}

type message struct {
	topic    string
	payload  []byte
	retained bool
}

// Handler bridges MQTT and the session. It implements session.Broadcaster
// and autopilot.MetricsWriter.
type Handler struct {
	client   Client
	ctrl     Controller
	logger   Logger
	qos      byte
	topics   mqtt.Topics
	validate *validator.Validate
	out      chan message
	activity audit.Recorder
}

// New creates a handler publishing and subscribing at qos. The handler can
// be registered as a hook and broadcaster before the session exists; the
// session is supplied to Run.
func New(client Client, qos byte, logger Logger) (*Handler, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: mqtt client", ErrMissingDependency)
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &Handler{
		client:   client,
		logger:   logger,
		qos:      qos,
		validate: validator.New(),
		out:      make(chan message, outboundBuffer),
	}, nil
}

// SetRecorder records every accepted command in r. Call before Run.
func (h *Handler) SetRecorder(r audit.Recorder) {
	h.activity = r
}

// Run subscribes to the command topic, publishes the current state of ctrl
// and then drains the outbound queue until ctx is cancelled. Commands are
// applied to ctrl.
//
// Returns:
//   - error: if ctrl is nil or the subscription fails; nil after cancellation
func (h *Handler) Run(ctx context.Context, ctrl Controller) error {
	if ctrl == nil {
		return fmt.Errorf("%w: controller", ErrMissingDependency)
	}
	h.ctrl = ctrl

	topic := h.topics.AutopilotCommand()
	if err := h.client.Subscribe(ctx, topic, h.qos, h.HandleCommand); err != nil {
		return fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	h.logger.Info("mqtt control listening", "topic", topic)
	h.Broadcast(session.StateChannel, h.ctrl.Status())

	for {
		select {
		case <-ctx.Done():
			unsubCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			//nolint:errcheck // Best-effort; the connection may already be gone
			h.client.Unsubscribe(unsubCtx, topic)
			cancel()
			return nil
		case msg := <-h.out:
			if err := h.client.Publish(ctx, msg.topic, msg.payload, h.qos, msg.retained); err != nil {
				h.logger.Warn("mqtt control publish failed", "topic", msg.topic, "error", err)
			}
		}
	}
}

// HandleCommand decodes and applies one command payload.
func (h *Handler) HandleCommand(_ string, payload []byte) error {
	cmd, err := h.decode(payload)
	if err != nil {
		return err
	}

	ctx := context.Background()
	var (
		action string
		st     autopilot.Status
	)
	switch {
	case cmd.Reset:
		action = audit.ActionReset
		h.logger.Debug("mqtt command", "action", action)
		if st, err = h.ctrl.Reset(ctx); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
	default:
		action = audit.ActionDisable
		if *cmd.Enabled {
			action = audit.ActionEnable
		}
		h.logger.Debug("mqtt command", "action", action)
		if st, err = h.ctrl.SetEnabled(ctx, *cmd.Enabled); err != nil {
			return fmt.Errorf("set enabled=%t: %w", *cmd.Enabled, err)
		}
	}
	h.record(ctx, action, st)
	return nil
}

func (h *Handler) record(ctx context.Context, action string, st autopilot.Status) {
	if h.activity == nil {
		return
	}
	err := h.activity.Record(ctx, &audit.Entry{
		Action: action,
		Source: audit.SourceMQTT,
		Details: map[string]any{
			"enabled":     st.Enabled,
			"oscillators": st.Oscillators,
			"bindings":    st.Bindings,
		},
	})
	if err != nil {
		h.logger.Warn("recording activity", "action", action, "error", err)
	}
}

func (h *Handler) decode(payload []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return Command{}, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}
	if err := h.validate.Struct(cmd); err != nil {
		return Command{}, fmt.Errorf("%w: need exactly one of enabled or reset", ErrInvalidCommand)
	}
	return cmd, nil
}

// Broadcast queues the retained state message for a session state change.
func (h *Handler) Broadcast(channel string, payload any) {
	if channel != session.StateChannel {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Warn("encoding autopilot state", "error", err)
		return
	}
	h.enqueue(message{topic: h.topics.AutopilotState(), payload: data, retained: true})
}

// WriteAutopilotEvent queues a lifecycle event message.
func (h *Handler) WriteAutopilotEvent(event string, modulations int) {
	data, err := json.Marshal(Event{
		Event:       event,
		Modulations: modulations,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}
	h.enqueue(message{topic: h.topics.AutopilotEvent(event), payload: data})
}

func (h *Handler) enqueue(msg message) {
	select {
	case h.out <- msg:
	default:
		h.logger.Warn("mqtt control queue full, dropping message", "topic", msg.topic)
	}
}
