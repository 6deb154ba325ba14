// Package audit keeps the autopilot activity log in SQLite.
//
// Every operator action is recorded with the surface it came from:
//
//	action   enable | disable | reset | save | load
//	source   api | mqtt
//
// Entries are written by the HTTP handlers and the MQTT control handler
// after the session accepted the action, and listed newest first at
// GET /api/v1/activity.
package audit
