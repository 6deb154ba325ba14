package autopilot

import (
	"github.com/nerrad567/gray-logic-autopilot/internal/modulation"
	"github.com/nerrad567/gray-logic-autopilot/internal/show"
)

// Channel setting bounds applied on first start, in seconds.
const (
	transitionMinSec = 2.0
	transitionMaxSec = 15.0
	autoCycleMinSec  = 30.0
	autoCycleMaxSec  = 75.0
)

// dissolveBlend is matched case-insensitively against a channel's blends.
const dissolveBlend = "dissolve"

func (a *Autopilot) firstStart() {
	clear(a.automated)
	oscs, binds := a.removeOwned(a.cleanupScopes())
	if oscs > 0 || binds > 0 {
		a.logger.Warn("removed stray autopilot modulations", "oscillators", oscs, "bindings", binds)
	}

	a.each(Hooks.Starting)

	count := 0
	for _, ch := range a.graph.Channels() {
		if !a.qualifier.ChannelQualifies(ch) {
			continue
		}
		a.randomizeChannel(ch)

		for _, pattern := range ch.Patterns() {
			if !a.qualifier.PatternQualifies(ch, pattern) {
				continue
			}
			desc, ok := a.library.Pattern(pattern)
			if !ok {
				continue
			}
			count += a.placePattern(pattern, desc)
		}
	}

	a.logger.Info("autopilot started", "modulations", count)
	a.each(func(h Hooks) { h.Started(count) })
}

// randomizeChannel picks the channel's blend, transition and autocycle
// settings, switches both on and remembers the channel as automated.
func (a *Autopilot) randomizeChannel(ch *show.Channel) {
	if blend, ok := ch.FindBlend(dissolveBlend); ok {
		if err := ch.SetBlend(blend); err != nil {
			a.logger.Warn("selecting blend", "channel", ch.Label(), "error", err)
		}
	}
	ch.SetTransitionTimeSecs(uniform(a.rand, transitionMinSec, transitionMaxSec))
	ch.SetTransitionEnabled(true)

	ch.SetAutoCycleTimeSecs(uniform(a.rand, autoCycleMinSec, autoCycleMaxSec))
	ch.SetAutoCycleMode(show.AutoCycleRandom)
	ch.SetAutoCycleEnabled(true)

	a.automated[ch] = struct{}{}
}

func (a *Autopilot) placePattern(pattern *show.Component, desc *AutoPattern) int {
	count := 0
	for _, ap := range desc.Parameters() {
		p, ok := pattern.Parameter(ap.Path())
		if !ok {
			a.logger.Warn("autopilot parameter not found", "pattern", pattern.Type(), "path", ap.Path())
			continue
		}
		target, ok := p.(show.Continuous)
		if !ok {
			a.logger.Warn("autopilot parameter is not continuous", "pattern", pattern.Type(), "path", ap.Path())
			continue
		}
		if a.place(target, ap) {
			count++
		}
	}
	return count
}

// placement is the outcome of the random draws for one parameter.
type placement struct {
	periodMS    float64
	base        float64
	rangeActive float64
}

// plan normalises the descriptor against the target's total range and
// draws the period and the base value, in that order.
func (a *Autopilot) plan(target show.Continuous, ap *AutoParameter) placement {
	lo, hi := target.Range()
	width := hi - lo

	nMin, nMax, nRange := ap.Min(), ap.Max(), ap.Range()
	if ap.Scale() == Absolute {
		if width == 0 {
			nMin, nMax, nRange = 0, 0, 0
		} else {
			nMin = (nMin - lo) / width
			nMax = (nMax - lo) / width
			nRange /= width
		}
	}
	nMin = min(max(nMin, 0), 1)
	nMax = min(max(nMax, 0), 1)

	rangeTotal := nMax - nMin
	rangeActive := min(max(nRange, 0), rangeTotal)
	if ap.FullRange() {
		rangeActive = rangeTotal
	}

	minMS, maxMS := ap.MinPeriodSec()*1000, ap.MaxPeriodSec()*1000
	period := min(max(uniform(a.rand, minMS, maxMS), minMS), maxMS)

	// The active range fills the total range: no slack, no draw.
	base := nMin
	if slack := rangeTotal - rangeActive; slack > 0 {
		base += a.rand.Float64() * slack
	}

	return placement{periodMS: period, base: base, rangeActive: rangeActive}
}

// place sets a random base value on target and, when the active range is
// non-zero, attaches an owned sine oscillator. It reports whether a binding
// was created.
func (a *Autopilot) place(target show.Continuous, ap *AutoParameter) bool {
	pl := a.plan(target, ap)
	target.SetNormalized(pl.base)

	if pl.rangeActive <= 0 {
		return false
	}

	label := OwnerPrefix + target.Label()
	scope := modulation.ScopeFor(target)

	osc, err := a.mods.NewOscillator(scope, modulation.OscillatorSpec{
		Label:    label,
		PeriodMS: pl.periodMS,
		Waveform: modulation.WaveSine,
		Running:  true,
	})
	if err != nil {
		a.logger.Error("creating oscillator", "parameter", target.Label(), "error", err)
		return false
	}

	binding, err := a.mods.AddBinding(scope, label, osc, target, pl.rangeActive)
	if err != nil {
		a.logger.Error("creating binding", "parameter", target.Label(), "error", err)
		return false
	}

	a.logger.Debug("modulation added",
		"parameter", target.Label(),
		"period_ms", pl.periodMS,
		"clock", osc.Clock(),
		"depth", pl.rangeActive,
	)
	a.each(func(h Hooks) { h.ModAdded(target, osc, binding) })
	return true
}
