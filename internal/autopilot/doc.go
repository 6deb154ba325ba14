// Package autopilot takes over a live show graph on command, animates a
// subset of its parameters with randomised oscillators, and hands the graph
// back in exactly the state it was found in when switched off.
//
// Architecture:
//
//	┌──────────────────────────────────────────────────────────┐
//	│                 Autopilot (autopilot.go)                   │
//	│  Disabled ⇄ Enabled state machine                          │
//	│  ┌──────────────┐   ┌───────────────┐   ┌──────────────┐  │
//	│  │   Library    │   │  Modulation   │   │  Snapshots   │  │
//	│  │ (library.go) │   │  engine (ifc) │   │  engine (ifc)│  │
//	│  └──────────────┘   └───────────────┘   └──────────────┘  │
//	│         │                                                  │
//	│         ▼                                                  │
//	│  First Start: walk graph → Placement (placement.go)        │
//	│  Resume:      recall "running" → restart oscillators       │
//	│  Disable:     capture "running" → recall "before"          │
//	└──────────────────────────────────────────────────────────┘
//
// # Key Types
//
//   - AutoParameter: how one parameter path is automated (scale, bounds,
//     active range, period bounds)
//   - AutoPattern: the AutoParameters for one pattern type
//   - Library: pattern type → AutoPattern, registered once at startup
//   - Autopilot: the controller
//   - Qualifier, Hooks: injected strategies for channel/pattern selection
//     and lifecycle notifications
//
// # Ownership
//
// Every oscillator and binding the controller creates is labelled with
// OwnerPrefix. Ownership is decided by that prefix alone, never by object
// identity, because a project reload recreates modulation objects with new
// identities. The two snapshots the controller keeps ("autopilot:before" and
// "autopilot:running") are likewise found by label; cached references are
// revalidated against the snapshot engine before every transition.
//
// # Thread Safety
//
// Library is safe for concurrent use. Autopilot is not: every call must be
// serialised by the host (see the session package).
//
// # Usage
//
//	lib := autopilot.NewLibrary()
//	p, _ := lib.AddPattern("noise")
//	p.Add("size", autopilot.Normalized, 0.2, 0.8, autopilot.WithRange(0.6))
//
//	ap, err := autopilot.New(autopilot.Deps{
//	    Graph:      graph,
//	    Modulation: mods,
//	    Snapshots:  snaps,
//	    Library:    lib,
//	    Logger:     log,
//	})
//	ap.SetEnabled(true)
package autopilot
