package modules

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/cwbudde/algo-modular/engine/bus"
	"github.com/cwbudde/algo-modular/engine/module"
	"github.com/cwbudde/algo-modular/engine/param"
	"github.com/cwbudde/algo-modular/engine/statetree"
)

const tagHosted = "hosted"

var errHostedMismatch = errors.New("hosted: state belongs to a different processor")

// Hosted adapts an externally instantiated processor to the graph. The
// processor's state is opaque; it is saved as a base64 blob together with
// the processor name and a per-instance id.
type Hosted struct {
	module.Base

	plugin module.Hosted
	id     uuid.UUID
}

// NewHosted wraps p. Processors with neither inputs nor outputs are
// rejected.
func NewHosted(p module.Hosted) (module.Module, error) {
	if p == nil {
		return nil, errors.New("hosted: nil processor")
	}

	in, out := p.Channels()
	if in < 0 || out < 0 || in+out == 0 {
		return nil, fmt.Errorf("hosted: %s has no usable channels (%d in, %d out)", p.Name(), in, out)
	}

	b := bus.NewBuilder()
	if in > 0 {
		b.Input("In", in)
	}

	if out > 0 {
		b.Output("Out", out)
	}

	return &Hosted{
		Base:   module.NewBase(b.Build(), param.NewSet(param.Bool("bypass", "Bypass", false))),
		plugin: p,
		id:     uuid.New(),
	}, nil
}

// Plugin returns the wrapped processor.
func (m *Hosted) Plugin() module.Hosted { return m.plugin }

// InstanceID returns the id stored with the processor state.
func (m *Hosted) InstanceID() uuid.UUID { return m.id }

// Prepare implements module.Module.
func (m *Hosted) Prepare(sampleRate float64, maxBlockSize int) error {
	if err := m.Base.Prepare(sampleRate, maxBlockSize); err != nil {
		return err
	}

	return m.plugin.Prepare(sampleRate, maxBlockSize)
}

// Process implements module.Module.
func (m *Hosted) Process(blk *module.Block) {
	if !m.Param("bypass").Bool() {
		m.plugin.Process(blk.In, blk.Out, blk.Frames)
		return
	}

	for ch, out := range blk.Out {
		if ch < len(blk.In) {
			copy(out, blk.In[ch])
		} else {
			clear(out)
		}
	}
}

// Diagnostics implements module.Diagnoser.
func (m *Hosted) Diagnostics() string {
	return fmt.Sprintf("plugin=%s id=%s", m.plugin.Name(), m.id)
}

// ExtraState stores the processor state.
func (m *Hosted) ExtraState() *statetree.Node {
	data, err := m.plugin.State()
	if err != nil {
		return nil
	}

	return statetree.New(tagHosted).
		Set("name", m.plugin.Name()).
		Set("id", m.id.String()).
		SetBlob(data)
}

// SetExtraState restores the processor state saved by ExtraState.
func (m *Hosted) SetExtraState(n *statetree.Node) error {
	if n == nil || n.Tag != tagHosted {
		return nil
	}

	if name := n.String("name", ""); name != m.plugin.Name() {
		return fmt.Errorf("%w: %q", errHostedMismatch, name)
	}

	if raw, ok := n.Get("id"); ok {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("hosted: instance id: %w", err)
		}

		m.id = id
	}

	data, err := n.Blob()
	if err != nil {
		return fmt.Errorf("hosted: state blob: %w", err)
	}

	return m.plugin.SetState(data)
}
