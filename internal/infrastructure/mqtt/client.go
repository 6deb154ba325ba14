package mqtt

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/gray-logic-autopilot/internal/infrastructure/config"
)

// Logger is the subset of logging.Logger the client needs.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// MessageHandler receives one inbound message. Handlers run on paho's
// goroutines and must not block for long. A returned error is logged.
type MessageHandler func(topic string, payload []byte) error

// Client is a paho connection that announces its own online status and
// restores subscriptions after a reconnect.
//
// All methods are safe for concurrent use.
type Client struct {
	client pahomqtt.Client
	cfg    config.MQTTConfig
	logger Logger

	connected atomic.Bool

	mu       sync.RWMutex
	handlers map[string]route
}

type route struct {
	qos     byte
	handler MessageHandler
}

// Connect dials the broker described by cfg and waits for the first
// CONNACK.
//
// The broker publishes a retained offline status on the client's
// ServiceStatus topic if the connection drops without a clean Close.
//
// Parameters:
//   - cfg: broker, auth and reconnect settings
//   - logger: receives connection and handler diagnostics (nil discards them)
//
// Returns:
//   - *Client: connected client
//   - error: ErrConnectionFailed on timeout or refusal
func Connect(cfg config.MQTTConfig, logger Logger) (*Client, error) {
	if logger == nil {
		logger = noopLogger{}
	}
	c := &Client{
		cfg:      cfg,
		logger:   logger,
		handlers: make(map[string]route),
	}

	opts := buildClientOptions(cfg)
	if err := setWill(opts, cfg.Broker.ClientID); err != nil {
		return nil, err
	}
	opts.SetOnConnectHandler(func(pahomqtt.Client) { c.onConnect() })
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.connected.Store(false)
		c.logger.Warn("mqtt connection lost", "error", err)
	})

	c.client = pahomqtt.NewClient(opts)
	token := c.client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	// The connect handler runs asynchronously.
	c.connected.Store(true)
	return c, nil
}

func (c *Client) onConnect() {
	c.connected.Store(true)
	c.logger.Info("mqtt connected",
		"broker", c.cfg.Broker.Host,
		"client_id", c.cfg.Broker.ClientID,
	)

	c.mu.RLock()
	for topic, r := range c.handlers {
		c.client.Subscribe(topic, r.qos, c.dispatch(r.handler))
	}
	c.mu.RUnlock()

	c.publishStatus(statusOnline, "")
}

func (c *Client) publishStatus(status, reason string) {
	payload, err := statusPayload(c.cfg.Broker.ClientID, status, reason)
	if err != nil {
		c.logger.Error("encoding mqtt status", "error", err)
		return
	}
	token := c.client.Publish(Topics{}.ServiceStatus(c.cfg.Broker.ClientID), byte(c.cfg.QoS), true, payload)
	token.WaitTimeout(defaultPublishTimeout)
}

// Close publishes a graceful offline status and disconnects.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	if c.IsConnected() {
		c.publishStatus(statusOffline, reasonShutdown)
	}
	c.client.Disconnect(defaultDisconnectQuiesce)
	c.connected.Store(false)
	return nil
}

// IsConnected reports the last known connection state.
func (c *Client) IsConnected() bool {
	return c.client != nil && c.connected.Load() && c.client.IsConnected()
}

// HealthCheck returns ErrNotConnected while the broker is unreachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("mqtt health check: %w", err)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// dispatch adapts h to paho, recovering panics so one bad message cannot
// kill the router goroutine.
func (c *Client) dispatch(h MessageHandler) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("mqtt handler panic recovered", "topic", msg.Topic(), "panic", r)
			}
		}()
		if err := h(msg.Topic(), msg.Payload()); err != nil {
			c.logger.Warn("mqtt handler returned error", "topic", msg.Topic(), "error", err)
		}
	}
}
