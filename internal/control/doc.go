// Package control exposes the autopilot over MQTT.
//
// Inbound commands arrive on graylogic/autopilot/command:
//
//	{"enabled": true}    enable (First Start on the first enable)
//	{"enabled": false}   disable
//	{"reset": true}      reset; rejected while enabled
//
// Every session state change is published retained on
// graylogic/autopilot/state, and lifecycle events (started, enabled,
// disabled) go to graylogic/autopilot/event/<event>.
//
//	MQTT ──command──▶ Handler ──▶ session.Session
//	                     ▲               │ Broadcast / hooks
//	                     └── outbound ◀──┘
//	                     queue ──publish──▶ MQTT
//
// Publishing happens on the Run goroutine, never inside a paho callback or
// while the session lock is held.
package control
