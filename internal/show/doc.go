// Package show models the live show graph the autopilot operates on.
//
// A Graph holds ordered Channels. Each channel carries patterns and effects
// (Components) plus its own transition and autocycle settings. Components
// expose Parameters by path:
//
//   - BoundedParameter: continuous, normalisable to [0,1], can be modulated
//   - DiscreteParameter: integer selection, cannot be modulated
//   - ToggleParameter: on/off switch, cannot be modulated
//
// Parameters have textual addresses built from names, not positions:
//
//	/channel/Main/pattern/noise/Noise/size
//
// Channel labels are unique in a graph and component labels are unique per
// channel and kind, so an address keeps naming the same parameter across a
// save/reload cycle and when other channels or components come and go.
// Snapshots and the project store key values by address rather than by
// object identity.
//
// The graph is mutable and not synchronised. The host may add and remove
// channels and components at any time while the autopilot is disabled.
package show
