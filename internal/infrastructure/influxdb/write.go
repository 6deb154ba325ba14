package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/gray-logic-autopilot/internal/autopilot"
	"github.com/nerrad567/gray-logic-autopilot/internal/session"
)

// Measurement names.
const (
	// MeasurementEvents holds one point per lifecycle event.
	MeasurementEvents = "autopilot"

	// MeasurementState holds one point per session state change.
	MeasurementState = "autopilot_state"
)

// WriteAutopilotEvent records a lifecycle event. It implements
// autopilot.MetricsWriter, so the client can be wrapped in
// autopilot.NewTelemetryHooks.
//
// Example point:
//
//	autopilot,event=started,site=home modulations=12i
func (c *Client) WriteAutopilotEvent(event string, modulations int) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(eventPoint(c.site, event, modulations, time.Now()))
}

// Broadcast records session state changes. It implements
// session.Broadcaster; other channels are ignored.
func (c *Client) Broadcast(channel string, payload any) {
	if channel != session.StateChannel || !c.IsConnected() {
		return
	}
	st, ok := payload.(autopilot.Status)
	if !ok {
		return
	}
	c.writeAPI.WritePoint(statePoint(c.site, st, time.Now()))
}

func eventPoint(site, event string, modulations int, ts time.Time) *write.Point {
	p := write.NewPointWithMeasurement(MeasurementEvents).
		AddTag("event", event).
		AddField("modulations", modulations).
		SetTime(ts)
	if site != "" {
		p.AddTag("site", site)
	}
	return p
}

func statePoint(site string, st autopilot.Status, ts time.Time) *write.Point {
	p := write.NewPointWithMeasurement(MeasurementState).
		AddField("enabled", st.Enabled).
		AddField("oscillators", st.Oscillators).
		AddField("bindings", st.Bindings).
		SetTime(ts)
	if site != "" {
		p.AddTag("site", site)
	}
	return p
}
