// Package modules contains the built-in module types.
//
// Register adds all of them to a registry under their lowercase names.
// Every module declares its buses and parameters at construction; CV inputs
// that drive a parameter are declared with Base.Route so that the
// processing code and the routing query agree.
package modules

import (
	"github.com/cwbudde/algo-modular/engine/module"
	"github.com/cwbudde/algo-modular/engine/registry"
)

// Type names.
const (
	TypeVCO       = "vco"
	TypeVCA       = "vca"
	TypeLFO       = "lfo"
	TypeADSR      = "adsr"
	TypeVCF       = "vcf"
	TypeMixer     = "mixer"
	TypeAudioIn   = "audioin"
	TypeMIDICV    = "midicv"
	TypeClock     = "clock"
	TypeSequencer = "sequencer"
	TypeSampler   = "sampler"
	TypeSpectrum  = "spectrum"
	TypeBouncer   = "bouncer"
	TypeHosted    = "hosted"
)

func wrap[T module.Module](ctor func() T) registry.Factory {
	return func() (module.Module, error) {
		return ctor(), nil
	}
}

// Register adds every built-in type to r.
func Register(r *registry.Registry) error {
	for _, e := range []struct {
		name    string
		factory registry.Factory
	}{
		{TypeVCO, wrap(NewVCO)},
		{TypeVCA, wrap(NewVCA)},
		{TypeLFO, wrap(NewLFO)},
		{TypeADSR, wrap(NewADSR)},
		{TypeVCF, wrap(NewVCF)},
		{TypeMixer, wrap(NewMixer)},
		{TypeAudioIn, wrap(NewAudioIn)},
		{TypeMIDICV, wrap(NewMIDICV)},
		{TypeClock, wrap(NewClock)},
		{TypeSequencer, wrap(NewSequencer)},
		{TypeSampler, wrap(NewSampler)},
		{TypeSpectrum, wrap(NewSpectrum)},
		{TypeBouncer, wrap(NewBouncer)},
		{TypeHosted, func() (module.Module, error) { return NewHosted(NewEcho()) }},
	} {
		if err := r.Register(e.name, e.factory); err != nil {
			return err
		}
	}

	return nil
}

// MustRegister is like Register but panics on error.
func MustRegister(r *registry.Registry) {
	if err := Register(r); err != nil {
		panic(err.Error())
	}
}
