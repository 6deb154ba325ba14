package show

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// AutoCycleMode selects how a channel picks its next pattern when autocycling.
type AutoCycleMode string

const (
	AutoCycleNext   AutoCycleMode = "next"
	AutoCycleRandom AutoCycleMode = "random"
)

// Channel holds an ordered list of patterns and effects plus its
// transition and autocycle settings.
type Channel struct {
	label    string
	patterns []*Component
	effects  []*Component

	blends            []string
	blend             string
	transitionEnabled bool
	transitionSecs    float64

	autoCycleEnabled bool
	autoCycleSecs    float64
	autoCycleMode    AutoCycleMode
}

func newChannel(label string, blends []string) *Channel {
	ch := &Channel{
		label:          label,
		blends:         slices.Clone(blends),
		transitionSecs: 5,
		autoCycleSecs:  60,
		autoCycleMode:  AutoCycleNext,
	}
	if len(ch.blends) > 0 {
		ch.blend = ch.blends[0]
	}
	return ch
}

// Label returns the channel label.
func (ch *Channel) Label() string { return ch.label }

// Patterns returns the patterns in order.
func (ch *Channel) Patterns() []*Component { return slices.Clone(ch.patterns) }

// Effects returns the effects in order.
func (ch *Channel) Effects() []*Component { return slices.Clone(ch.effects) }

// Components returns patterns followed by effects.
func (ch *Channel) Components() []*Component {
	return append(ch.Patterns(), ch.effects...)
}

// AddPattern appends a pattern instance of the given type. The label
// defaults to the type and is made unique among the channel's patterns.
func (ch *Channel) AddPattern(typ, label string) *Component {
	c := newComponent(KindPattern, typ, ch.freeLabel(KindPattern, cmp.Or(label, typ)), ch)
	ch.patterns = append(ch.patterns, c)
	return c
}

// AddEffect appends an effect instance of the given type. The label
// defaults to the type and is made unique among the channel's effects.
func (ch *Channel) AddEffect(typ, label string) *Component {
	c := newComponent(KindEffect, typ, ch.freeLabel(KindEffect, cmp.Or(label, typ)), ch)
	ch.effects = append(ch.effects, c)
	return c
}

func (ch *Channel) list(kind Kind) []*Component {
	if kind == KindEffect {
		return ch.effects
	}
	return ch.patterns
}

// find returns the component of the given kind with the given label.
func (ch *Channel) find(kind Kind, label string) (*Component, bool) {
	if kind != KindPattern && kind != KindEffect {
		return nil, false
	}
	for _, c := range ch.list(kind) {
		if c.label == label {
			return c, true
		}
	}
	return nil, false
}

func (ch *Channel) freeLabel(kind Kind, want string) string {
	return uniqueLabel(want, func(l string) bool {
		_, taken := ch.find(kind, l)
		return taken
	})
}

// Remove detaches a pattern or effect from the channel.
// It reports whether the component was found.
func (ch *Channel) Remove(c *Component) bool {
	list := &ch.patterns
	if c.kind == KindEffect {
		list = &ch.effects
	}
	i := slices.Index(*list, c)
	if i < 0 {
		return false
	}
	*list = slices.Delete(*list, i, i+1)
	c.channel = nil
	return true
}

// Blends returns the blend modes available for transitions.
func (ch *Channel) Blends() []string { return slices.Clone(ch.blends) }

// Blend returns the selected transition blend.
func (ch *Channel) Blend() string { return ch.blend }

// SetBlend selects a transition blend by name.
func (ch *Channel) SetBlend(name string) error {
	if !slices.Contains(ch.blends, name) {
		return fmt.Errorf("%w: %q on channel %s", ErrUnknownBlend, name, ch.label)
	}
	ch.blend = name
	return nil
}

// FindBlend returns the first available blend whose name contains substr,
// compared case-insensitively.
func (ch *Channel) FindBlend(substr string) (string, bool) {
	substr = strings.ToLower(substr)
	for _, b := range ch.blends {
		if strings.Contains(strings.ToLower(b), substr) {
			return b, true
		}
	}
	return "", false
}

// TransitionEnabled reports whether pattern changes cross-fade.
func (ch *Channel) TransitionEnabled() bool { return ch.transitionEnabled }

// SetTransitionEnabled turns cross-fading on or off.
func (ch *Channel) SetTransitionEnabled(on bool) { ch.transitionEnabled = on }

// TransitionTimeSecs returns the cross-fade duration.
func (ch *Channel) TransitionTimeSecs() float64 { return ch.transitionSecs }

// SetTransitionTimeSecs sets the cross-fade duration.
func (ch *Channel) SetTransitionTimeSecs(s float64) { ch.transitionSecs = s }

// AutoCycleEnabled reports whether the channel advances patterns on its own.
func (ch *Channel) AutoCycleEnabled() bool { return ch.autoCycleEnabled }

// SetAutoCycleEnabled turns autocycling on or off.
func (ch *Channel) SetAutoCycleEnabled(on bool) { ch.autoCycleEnabled = on }

// AutoCycleTimeSecs returns how long each pattern runs when autocycling.
func (ch *Channel) AutoCycleTimeSecs() float64 { return ch.autoCycleSecs }

// SetAutoCycleTimeSecs sets how long each pattern runs when autocycling.
func (ch *Channel) SetAutoCycleTimeSecs(s float64) { ch.autoCycleSecs = s }

// AutoCycleMode returns how the next pattern is picked.
func (ch *Channel) AutoCycleMode() AutoCycleMode { return ch.autoCycleMode }

// SetAutoCycleMode sets how the next pattern is picked.
func (ch *Channel) SetAutoCycleMode(m AutoCycleMode) { ch.autoCycleMode = m }
