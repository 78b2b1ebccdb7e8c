package bus

// Builder provides a fluent API for building layouts.
type Builder struct {
	layout Layout
}

// NewBuilder creates an empty layout builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Input adds an input bus.
func (b *Builder) Input(name string, channels int) *Builder {
	b.layout.Inputs = append(b.layout.Inputs, Bus{Name: name, Channels: channels})
	return b
}

// Output adds an output bus.
func (b *Builder) Output(name string, channels int) *Builder {
	b.layout.Outputs = append(b.layout.Outputs, Bus{Name: name, Channels: channels})
	return b
}

// MonoIn is a convenience for a one-channel input bus.
func (b *Builder) MonoIn(name string) *Builder { return b.Input(name, 1) }

// MonoOut is a convenience for a one-channel output bus.
func (b *Builder) MonoOut(name string) *Builder { return b.Output(name, 1) }

// MIDI marks the module as a consumer of the block MIDI buffer.
func (b *Builder) MIDI() *Builder {
	b.layout.MIDI = true
	return b
}

// Build validates and returns the layout. It panics on an inconsistent
// declaration.
func (b *Builder) Build() Layout {
	return MustValidate(b.layout)
}
