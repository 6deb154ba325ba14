package show

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// Graph is the live show graph: an ordered list of channels.
//
// Thread Safety: Graph is not safe for concurrent use. The host serialises
// access (see the session package).
type Graph struct {
	channels []*Channel
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{}
}

// AddChannel appends a channel with the given transition blends. A label
// already used by another channel gets a numeric suffix ("Main 2").
func (g *Graph) AddChannel(label string, blends ...string) *Channel {
	if label == "" {
		label = "Channel"
	}
	label = uniqueLabel(label, func(l string) bool {
		_, taken := g.Channel(l)
		return taken
	})
	ch := newChannel(label, blends)
	g.channels = append(g.channels, ch)
	return ch
}

// RemoveChannel detaches a channel. It reports whether it was found.
func (g *Graph) RemoveChannel(ch *Channel) bool {
	i := slices.Index(g.channels, ch)
	if i < 0 {
		return false
	}
	g.channels = slices.Delete(g.channels, i, i+1)
	return true
}

// Channels returns the channels in order.
func (g *Graph) Channels() []*Channel {
	return slices.Clone(g.channels)
}

// Channel finds a channel by label.
func (g *Graph) Channel(label string) (*Channel, bool) {
	for _, ch := range g.channels {
		if ch.label == label {
			return ch, true
		}
	}
	return nil, false
}

// Walk calls fn for every parameter of every pattern and effect, with the
// parameter's address.
func (g *Graph) Walk(fn func(addr string, p Parameter)) {
	for _, ch := range g.channels {
		for _, c := range ch.Components() {
			base := componentAddress(ch, c)
			for _, p := range c.params {
				fn(base+"/"+p.Path(), p)
			}
		}
	}
}

// Address returns the textual address of a parameter:
//
//	/channel/<channel label>/<pattern|effect>/<type>/<label>/<path>
//
// Labels and type are path-escaped. Addresses name things rather than
// positions, so they keep pointing at the same parameter when other
// channels or components are added or removed, and across a reload. ok is
// false when the parameter is not attached to the graph.
func (g *Graph) Address(p Parameter) (string, bool) {
	owner := p.Owner()
	if owner == nil {
		return "", false
	}
	base, ok := g.ComponentAddress(owner)
	if !ok {
		return "", false
	}
	return base + "/" + p.Path(), true
}

// ComponentAddress returns the address of a pattern or effect.
func (g *Graph) ComponentAddress(c *Component) (string, bool) {
	if c.channel == nil || !slices.Contains(g.channels, c.channel) {
		return "", false
	}
	return componentAddress(c.channel, c), true
}

// LookupComponent resolves a component address.
func (g *Graph) LookupComponent(addr string) (*Component, bool) {
	c, rest, ok := g.resolve(addr)
	if !ok || rest != "" {
		return nil, false
	}
	return c, true
}

// LookupParameter resolves a parameter address.
func (g *Graph) LookupParameter(addr string) (Parameter, bool) {
	c, path, ok := g.resolve(addr)
	if !ok || path == "" {
		return nil, false
	}
	return c.Parameter(path)
}

// resolve parses an address and returns the component and the remaining
// parameter path. A component whose type no longer matches does not resolve.
func (g *Graph) resolve(addr string) (*Component, string, bool) {
	parts := strings.SplitN(strings.TrimPrefix(addr, "/"), "/", 6)
	if len(parts) < 5 || parts[0] != "channel" {
		return nil, "", false
	}
	var segs [4]string
	for i := range segs {
		v, err := url.PathUnescape(parts[i+1])
		if err != nil {
			return nil, "", false
		}
		segs[i] = v
	}
	chLabel, kind, typ, label := segs[0], Kind(segs[1]), segs[2], segs[3]

	ch, ok := g.Channel(chLabel)
	if !ok {
		return nil, "", false
	}
	c, ok := ch.find(kind, label)
	if !ok || c.typ != typ {
		return nil, "", false
	}

	path := ""
	if len(parts) == 6 {
		path = parts[5]
	}
	return c, path, true
}

func componentAddress(ch *Channel, c *Component) string {
	return "/channel/" + url.PathEscape(ch.label) +
		"/" + string(c.kind) +
		"/" + url.PathEscape(c.typ) +
		"/" + url.PathEscape(c.label)
}

// uniqueLabel returns want, or want with the lowest free numeric suffix.
func uniqueLabel(want string, taken func(string) bool) string {
	if !taken(want) {
		return want
	}
	for n := 2; ; n++ {
		if l := fmt.Sprintf("%s %d", want, n); !taken(l) {
			return l
		}
	}
}
