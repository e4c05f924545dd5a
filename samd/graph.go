package samd

import (
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Node IDs in a Graph: oscillators keep their source index, the other parts
// of the tree are offset.
const (
	GRAPH_GEN_BASE     = 100
	GRAPH_CHANNEL_BASE = 200
	GRAPH_SYSTEM_BASE  = 300
)

// graphOscillators are the oscillators every Graph carries.
var graphOscillators = []uint8{
	GCLK_SOURCE_XOSC,
	GCLK_SOURCE_OSCULP32K,
	GCLK_SOURCE_XOSC32K,
	GCLK_SOURCE_OSC16M,
	GCLK_SOURCE_DFLL48M,
	GCLK_SOURCE_DPLL96M,
}

var oscNames = map[uint8]string{
	GCLK_SOURCE_XOSC:      "XOSC",
	GCLK_SOURCE_GCLKIN:    "GCLKIN",
	GCLK_SOURCE_GCLKGEN1:  "GCLKGEN1",
	GCLK_SOURCE_OSCULP32K: "OSCULP32K",
	GCLK_SOURCE_XOSC32K:   "XOSC32K",
	GCLK_SOURCE_OSC16M:    "OSC16M",
	GCLK_SOURCE_DFLL48M:   "DFLL48M",
	GCLK_SOURCE_DPLL96M:   "DPLL96M",
}

var systemNames = [...]string{
	SYSTEM_TICK: "SysTick",
	SYSTEM_CPU:  "CPU",
	SYSTEM_RTC:  "RTC",
}

// OscillatorName returns the datasheet name of a generator source.
func OscillatorName(index uint8) string {
	if n, ok := oscNames[index]; ok {
		return n
	}
	return fmt.Sprintf("SRC%d", index)
}

// ClockNode is one clock in a Graph.
type ClockNode struct {
	id      int64
	Name    string
	Enabled bool
	Freq    uint32
}

func (n *ClockNode) ID() int64 {
	return n.id
}

func (n *ClockNode) String() string {
	return n.Name
}

// Graph is a snapshot of the clock tree. Edges point from a clock to the
// clocks it feeds.
type Graph struct {
	g *simple.DirectedGraph
}

func OscillatorNode(index uint8) int64 { return int64(index) }
func GeneratorNode(g uint8) int64      { return GRAPH_GEN_BASE + int64(g) }
func ChannelNode(p uint8) int64        { return GRAPH_CHANNEL_BASE + int64(p) }
func SystemNode(s uint8) int64         { return GRAPH_SYSTEM_BASE + int64(s) }

func (gr *Graph) add(n *ClockNode) {
	if gr.g.Node(n.id) == nil {
		gr.g.AddNode(n)
	}
}

func (gr *Graph) link(from, to int64) {
	if from == to || gr.g.Node(from) == nil || gr.g.Node(to) == nil {
		return
	}
	gr.g.SetEdge(gr.g.NewEdge(gr.g.Node(from), gr.g.Node(to)))
}

func (c *Clocks) genNode(gr *Graph, g uint8) {
	gr.add(&ClockNode{
		id:      GeneratorNode(g),
		Name:    fmt.Sprintf("GCLK%d", g),
		Enabled: c.gclkEnabled(g),
		Freq:    c.generatorFrequency(g, 0),
	})
}

// Graph reads the whole clock tree into a graph: every oscillator, every
// generator that is enabled or feeds an enabled channel, every enabled
// channel and the system clocks.
func (c *Clocks) Graph() *Graph {
	c.mu.Lock()
	defer c.mu.Unlock()

	gr := &Graph{g: simple.NewDirectedGraph()}
	for _, o := range graphOscillators {
		gr.add(&ClockNode{
			id:      OscillatorNode(o),
			Name:    OscillatorName(o),
			Enabled: c.oscEnabled(o),
			Freq:    c.oscFrequency(o, 0),
		})
	}
	for g := uint8(0); g < GCLK_GEN_NUM; g++ {
		if c.gclkEnabled(g) {
			c.genNode(gr, g)
		}
	}
	for p := uint8(0); p < GCLK_NUM; p++ {
		if !c.channelEnabled(p) {
			continue
		}
		g := c.channelGenerator(p)
		if g < GCLK_GEN_NUM {
			c.genNode(gr, g)
		}
		gr.add(&ClockNode{
			id:      ChannelNode(p),
			Name:    fmt.Sprintf("PCH%d", p),
			Enabled: true,
			Freq:    c.frequency(Channel, p),
		})
		gr.link(GeneratorNode(g), ChannelNode(p))
	}
	for s, name := range systemNames {
		gr.add(&ClockNode{
			id:      SystemNode(uint8(s)),
			Name:    name,
			Enabled: c.enabled(System, uint8(s)),
			Freq:    c.frequency(System, uint8(s)),
		})
	}

	for _, n := range graph.NodesOf(gr.g.Nodes()) {
		id := n.ID()
		if id < GRAPH_GEN_BASE || id >= GRAPH_CHANNEL_BASE {
			continue
		}
		g := uint8(id - GRAPH_GEN_BASE)
		src := c.generatorSource(g)
		if src == GCLK_SOURCE_GCLKGEN1 {
			gr.link(GeneratorNode(GCLK_DIV_16BIT_GEN), id)
		} else {
			gr.link(OscillatorNode(src), id)
		}
	}
	gr.link(GeneratorNode(CORE_GCLK), SystemNode(SYSTEM_TICK))
	gr.link(GeneratorNode(CORE_GCLK), SystemNode(SYSTEM_CPU))
	if src, ok := c.rtcParent(); ok {
		gr.link(OscillatorNode(src), SystemNode(SYSTEM_RTC))
	}
	switch c.dpllRefclk() {
	case DPLL_REFCLK_GCLK:
		if c.channelEnabled(OSCCTRL_GCLK_ID_FDPLL) {
			gr.link(ChannelNode(OSCCTRL_GCLK_ID_FDPLL), OscillatorNode(GCLK_SOURCE_DPLL96M))
		}
	case DPLL_REFCLK_XOSC32K:
		gr.link(OscillatorNode(GCLK_SOURCE_XOSC32K), OscillatorNode(GCLK_SOURCE_DPLL96M))
	case DPLL_REFCLK_XOSC0:
		gr.link(OscillatorNode(GCLK_SOURCE_XOSC), OscillatorNode(GCLK_SOURCE_DPLL96M))
	}
	return gr
}

// Node returns the clock with the given ID, or nil.
func (gr *Graph) Node(id int64) *ClockNode {
	n := gr.g.Node(id)
	if n == nil {
		return nil
	}
	return n.(*ClockNode)
}

func (gr *Graph) nodes(ids []int64) []*ClockNode {
	slices.Sort(ids)
	ns := make([]*ClockNode, len(ids))
	for i, id := range ids {
		ns[i] = gr.Node(id)
	}
	return ns
}

// Nodes returns every clock, by ID.
func (gr *Graph) Nodes() []*ClockNode {
	ids := map[int64]bool{}
	for _, n := range graph.NodesOf(gr.g.Nodes()) {
		ids[n.ID()] = true
	}
	return gr.nodes(maps.Keys(ids))
}

// Children returns the clocks fed directly by id, by ID.
func (gr *Graph) Children(id int64) []*ClockNode {
	var ids []int64
	for _, n := range graph.NodesOf(gr.g.From(id)) {
		ids = append(ids, n.ID())
	}
	return gr.nodes(ids)
}

// Roots returns the clocks with nothing feeding them, by ID.
func (gr *Graph) Roots() []*ClockNode {
	var ids []int64
	for _, n := range graph.NodesOf(gr.g.Nodes()) {
		if gr.g.To(n.ID()).Len() == 0 {
			ids = append(ids, n.ID())
		}
	}
	return gr.nodes(ids)
}

// Order returns the clocks with every clock after the ones feeding it. A
// reference loop gives ErrClockLoop.
func (gr *Graph) Order() ([]*ClockNode, error) {
	sorted, err := topo.SortStabilized(gr.g, nil)
	if err != nil {
		if _, ok := err.(topo.Unorderable); ok {
			return nil, fmt.Errorf("%w: %v", ErrClockLoop, err)
		}
		return nil, err
	}
	ns := make([]*ClockNode, len(sorted))
	for i, n := range sorted {
		ns[i] = n.(*ClockNode)
	}
	return ns, nil
}
