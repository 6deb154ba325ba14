package show

import (
	"fmt"

	"github.com/nerrad567/gray-logic-autopilot/internal/infrastructure/config"
)

// Build creates a graph from the show section of the configuration file.
func Build(cfg config.ShowConfig) (*Graph, error) {
	g := NewGraph()
	for _, chCfg := range cfg.Channels {
		ch := g.AddChannel(chCfg.Label, chCfg.Blends...)
		for _, pc := range chCfg.Patterns {
			if err := addParameters(ch.AddPattern(pc.Type, pc.Label), pc.Parameters); err != nil {
				return nil, fmt.Errorf("channel %q pattern %q: %w", chCfg.Label, pc.Type, err)
			}
		}
		for _, ec := range chCfg.Effects {
			if err := addParameters(ch.AddEffect(ec.Type, ec.Label), ec.Parameters); err != nil {
				return nil, fmt.Errorf("channel %q effect %q: %w", chCfg.Label, ec.Type, err)
			}
		}
	}
	return g, nil
}

func addParameters(c *Component, params []config.ParameterConfig) error {
	for _, pc := range params {
		var err error
		switch pc.Kind {
		case "", "bounded":
			lo, hi := pc.Min, pc.Max
			if lo == 0 && hi == 0 {
				hi = 1
			}
			_, err = c.AddBounded(pc.Path, pc.Label, lo, hi, pc.Value)
		case "discrete":
			_, err = c.AddDiscrete(pc.Path, pc.Label, int(pc.Max)+1, int(pc.Value))
		case "toggle":
			_, err = c.AddToggle(pc.Path, pc.Label, pc.Value >= 0.5)
		default:
			err = fmt.Errorf("%w: %q", ErrUnknownKind, pc.Kind)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
