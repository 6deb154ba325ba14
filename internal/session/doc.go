// Package session serialises access to the autopilot and the engines it drives.
//
// The controller, the modulation engine and the show graph are plain
// single-threaded objects. A Session wraps them behind one mutex so the HTTP
// API, the MQTT control surface and the tick loop can share them:
//
//	  HTTP API ──┐
//	             │
//	MQTT control ├──▶ Session (mutex) ──▶ Autopilot ──▶ modulation / snapshot / show
//	             │          │
//	 tick loop ──┘          └──▶ Broadcasters (WebSocket hub, MQTT state)
//
// Every state change (toggle, reset, load) is broadcast on the
// "autopilot.state" channel after the lock is released.
//
// When Autosave is set the project, including the autopilot toggle under
// the "autopilot.enabled" setting, is written after every toggle and reset.
package session
