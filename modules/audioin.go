package modules

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-modular/engine/bus"
	"github.com/cwbudde/algo-modular/engine/caps"
	"github.com/cwbudde/algo-modular/engine/module"
	"github.com/cwbudde/algo-modular/engine/param"
	"github.com/cwbudde/algo-modular/engine/statetree"
)

const tagInputMapping = "inputMapping"

// AudioIn exposes hardware input channels to the graph. The graph feeds its
// Hardware bus according to the input mapping; Process copies it to Out.
type AudioIn struct {
	module.Base

	mu      sync.Mutex
	mapping []int
}

// NewAudioIn returns a module with one channel per hardware input.
func NewAudioIn() *AudioIn {
	n := max(caps.Get().Device.Inputs, 1)

	return &AudioIn{
		Base: module.NewBase(
			bus.NewBuilder().Input("Hardware", n).Output("Out", n).Build(),
			param.NewSet(param.Float("gain", "Gain", 0, 2, 1)),
		),
	}
}

// Process implements module.Module.
func (m *AudioIn) Process(blk *module.Block) {
	g := m.Param("gain").Value()

	for ch, out := range blk.Out {
		vecmath.ScaleBlock(out, blk.In[ch], g)
	}
}

// InputMapping implements module.InputMapper.
func (m *AudioIn) InputMapping() []int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return slices.Clone(m.mapping)
}

// SetInputMapping implements module.InputMapper.
func (m *AudioIn) SetInputMapping(channels []int) {
	m.mu.Lock()
	m.mapping = slices.Clone(channels)
	m.mu.Unlock()
}

// ExtraState stores the mapping as a comma separated channel list.
func (m *AudioIn) ExtraState() *statetree.Node {
	mapping := m.InputMapping()
	parts := make([]string, len(mapping))

	for i, ch := range mapping {
		parts[i] = strconv.Itoa(ch)
	}

	return statetree.New(tagInputMapping).Set("channels", strings.Join(parts, ","))
}

// SetExtraState restores the mapping. Entries beyond the module's channel
// count are ignored.
func (m *AudioIn) SetExtraState(n *statetree.Node) error {
	if n == nil || n.Tag != tagInputMapping {
		return nil
	}

	raw, ok := n.Get("channels")
	if !ok {
		return nil
	}

	mapping := make([]int, 0, m.Layout().NumInputs())

	if raw != "" {
		for part := range strings.SplitSeq(raw, ",") {
			ch, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return fmt.Errorf("audioin: bad channel %q: %w", part, err)
			}

			if len(mapping) < m.Layout().NumInputs() {
				mapping = append(mapping, ch)
			}
		}
	}

	m.SetInputMapping(mapping)

	return nil
}
