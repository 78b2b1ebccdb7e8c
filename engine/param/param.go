// Package param provides typed, range-bounded module parameters whose values
// can be read from the audio thread without locking.
package param

import (
	"fmt"
	"math"
	"strconv"
	"sync/atomic"
)

// Kind distinguishes parameter value types.
type Kind int

const (
	KindFloat Kind = iota
	KindInt
	KindChoice
	KindBool
)

// String returns the kind name used in diagnostics.
func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindChoice:
		return "choice"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Param is one named parameter. ID is the stable key used in presets and
// by modulation routing; it must never change once a module type ships.
type Param struct {
	ID      string
	Name    string
	Unit    string
	Kind    Kind
	Min     float64
	Max     float64
	Default float64
	Choices []string

	// Plain value bits for lock-free access in the audio thread.
	value atomic.Uint64
}

// Float creates a continuous parameter.
func Float(id, name string, minV, maxV, def float64) *Param {
	return newParam(id, name, KindFloat, minV, maxV, def)
}

// Int creates a discrete integer parameter.
func Int(id, name string, minV, maxV, def int) *Param {
	return newParam(id, name, KindInt, float64(minV), float64(maxV), float64(def))
}

// Choice creates a parameter selecting one of choices by index.
func Choice(id, name string, choices []string, def int) *Param {
	p := newParam(id, name, KindChoice, 0, float64(len(choices)-1), float64(def))
	p.Choices = choices

	return p
}

// Bool creates an on/off parameter.
func Bool(id, name string, def bool) *Param {
	d := 0.0
	if def {
		d = 1
	}

	return newParam(id, name, KindBool, 0, 1, d)
}

// WithUnit sets the display unit and returns p.
func (p *Param) WithUnit(unit string) *Param {
	p.Unit = unit
	return p
}

func newParam(id, name string, kind Kind, minV, maxV, def float64) *Param {
	if maxV < minV {
		panic(fmt.Sprintf("param %q: max %v below min %v", id, maxV, minV))
	}

	p := &Param{ID: id, Name: name, Kind: kind, Min: minV, Max: maxV}
	p.Default = p.constrain(def)
	p.value.Store(math.Float64bits(p.Default))

	return p
}

// Value returns the current plain value.
func (p *Param) Value() float64 {
	return math.Float64frombits(p.value.Load())
}

// Set stores v after clamping to range and snapping discrete kinds.
func (p *Param) Set(v float64) {
	p.value.Store(math.Float64bits(p.constrain(v)))
}

// Reset restores the default value.
func (p *Param) Reset() {
	p.value.Store(math.Float64bits(p.Default))
}

// Int returns the value rounded to an integer.
func (p *Param) Int() int {
	return int(math.Round(p.Value()))
}

// Bool reports whether the value is on.
func (p *Param) Bool() bool {
	return p.Value() >= 0.5
}

// Choice returns the selected choice label, or "" when out of range.
func (p *Param) Choice() string {
	i := p.Int()
	if i < 0 || i >= len(p.Choices) {
		return ""
	}

	return p.Choices[i]
}

// Normalized returns the value mapped to [0, 1].
func (p *Param) Normalized() float64 {
	if p.Max <= p.Min {
		return 0
	}

	return (p.Value() - p.Min) / (p.Max - p.Min)
}

// SetNormalized sets the value from a [0, 1] position.
func (p *Param) SetNormalized(n float64) {
	p.Set(p.Min + n*(p.Max-p.Min))
}

// Format renders the current value for display.
func (p *Param) Format() string {
	switch p.Kind {
	case KindChoice:
		return p.Choice()
	case KindBool:
		if p.Bool() {
			return "on"
		}

		return "off"
	case KindInt:
		return strconv.Itoa(p.Int())
	default:
		s := strconv.FormatFloat(p.Value(), 'f', 2, 64)
		if p.Unit != "" {
			s += " " + p.Unit
		}

		return s
	}
}

func (p *Param) constrain(v float64) float64 {
	if math.IsNaN(v) {
		return p.Default
	}

	if v < p.Min {
		v = p.Min
	} else if v > p.Max {
		v = p.Max
	}

	switch p.Kind {
	case KindInt, KindChoice:
		v = math.Round(v)
	case KindBool:
		if v >= 0.5 {
			v = 1
		} else {
			v = 0
		}
	}

	return v
}
