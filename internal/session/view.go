package session

import (
	"github.com/nerrad567/gray-logic-autopilot/internal/show"
)

// ChannelView is a read-only copy of one channel for presentation.
type ChannelView struct {
	Label             string          `json:"label"`
	Blend             string          `json:"blend"`
	TransitionEnabled bool            `json:"transition_enabled"`
	TransitionSecs    float64         `json:"transition_secs"`
	AutoCycleEnabled  bool            `json:"autocycle_enabled"`
	AutoCycleSecs     float64         `json:"autocycle_secs"`
	AutoCycleMode     string          `json:"autocycle_mode"`
	Components        []ComponentView `json:"components"`
}

// ComponentView is a read-only copy of a pattern or effect.
type ComponentView struct {
	Address    string          `json:"address"`
	Kind       string          `json:"kind"`
	Type       string          `json:"type"`
	Label      string          `json:"label"`
	Parameters []ParameterView `json:"parameters"`
}

// ParameterView carries a parameter's base value and, for continuous
// parameters, the value after modulation.
type ParameterView struct {
	Path      string   `json:"path"`
	Label     string   `json:"label"`
	Value     float64  `json:"value"`
	Effective *float64 `json:"effective,omitempty"`
	Modulated bool     `json:"modulated"`
}

// Channels returns a snapshot of the show graph.
func (s *Session) Channels() []ChannelView {
	s.mu.Lock()
	defer s.mu.Unlock()

	channels := s.graph.Channels()
	out := make([]ChannelView, 0, len(channels))
	for _, ch := range channels {
		cv := ChannelView{
			Label:             ch.Label(),
			Blend:             ch.Blend(),
			TransitionEnabled: ch.TransitionEnabled(),
			TransitionSecs:    ch.TransitionTimeSecs(),
			AutoCycleEnabled:  ch.AutoCycleEnabled(),
			AutoCycleSecs:     ch.AutoCycleTimeSecs(),
			AutoCycleMode:     string(ch.AutoCycleMode()),
		}
		for _, c := range ch.Components() {
			cv.Components = append(cv.Components, s.componentView(c))
		}
		out = append(out, cv)
	}
	return out
}

func (s *Session) componentView(c *show.Component) ComponentView {
	addr, _ := s.graph.ComponentAddress(c)
	view := ComponentView{
		Address: addr,
		Kind:    string(c.Kind()),
		Type:    c.Type(),
		Label:   c.Label(),
	}
	for _, p := range c.Parameters() {
		pv := ParameterView{
			Path:  p.Path(),
			Label: p.Label(),
			Value: p.Value(),
		}
		if cp, ok := p.(show.Continuous); ok {
			eff := s.mods.EffectiveValue(cp)
			pv.Effective = &eff
			pv.Modulated = s.mods.Modulated(cp)
		}
		view.Parameters = append(view.Parameters, pv)
	}
	return view
}
