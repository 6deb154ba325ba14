// Package api implements the HTTP API and WebSocket server for the autopilot service.
//
// This package provides:
//   - REST endpoints to read and toggle the autopilot, reset it, and inspect the show graph
//   - Project save/load endpoints
//   - A WebSocket hub that relays "autopilot.state" broadcasts from the session
//   - Prometheus metrics at /metrics
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//
// # Routes
//
//	GET  /api/v1/health
//	GET  /api/v1/autopilot            status and visible parameters
//	PUT  /api/v1/autopilot            {"enabled": true|false}
//	POST /api/v1/autopilot/reset      409 while enabled
//	GET  /api/v1/channels             graph with base and modulated values
//	POST /api/v1/project/save
//	POST /api/v1/project/load         404 when nothing was saved
//	GET  /api/v1/activity             ?action=&source=&limit=&offset=
//	GET  /api/v1/ws
//	GET  /metrics
//
// Every handler goes through session.Session, which serialises access to
// the controller and the engines.
//
// The server follows the same lifecycle pattern as other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
