package param

import (
	"fmt"

	"github.com/cwbudde/algo-modular/engine/statetree"
)

// Tree tags used by Set.SaveTree.
const (
	TagParams = "params"
	TagParam  = "param"
)

// Set is the ordered, fixed parameter list of one module. It is built at
// module construction and never grows afterwards, so lookups need no lock.
type Set struct {
	params []*Param
	byID   map[string]*Param
}

// NewSet builds a set. Duplicate or empty IDs panic: they are a programming
// error in the module type, not a runtime condition.
func NewSet(params ...*Param) *Set {
	s := &Set{byID: make(map[string]*Param, len(params))}

	for _, p := range params {
		if p == nil {
			continue
		}

		if p.ID == "" {
			panic("param: empty parameter id")
		}

		if _, dup := s.byID[p.ID]; dup {
			panic(fmt.Sprintf("param: duplicate parameter id %q", p.ID))
		}

		s.byID[p.ID] = p
		s.params = append(s.params, p)
	}

	return s
}

// Get returns the parameter with id, or nil.
func (s *Set) Get(id string) *Param {
	if s == nil {
		return nil
	}

	return s.byID[id]
}

// Value returns the plain value of id, or def when id is unknown.
func (s *Set) Value(id string, def float64) float64 {
	if p := s.Get(id); p != nil {
		return p.Value()
	}

	return def
}

// All returns the parameters in declaration order.
func (s *Set) All() []*Param {
	if s == nil {
		return nil
	}

	return s.params
}

// Len returns the number of parameters.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}

	return len(s.params)
}

// Values returns a copy of every plain value keyed by ID.
func (s *Set) Values() map[string]float64 {
	out := make(map[string]float64, s.Len())
	for _, p := range s.All() {
		out[p.ID] = p.Value()
	}

	return out
}

// SaveTree writes every parameter as <param id=".." value=".."/>.
func (s *Set) SaveTree() *statetree.Node {
	root := statetree.New(TagParams)
	for _, p := range s.All() {
		root.AddNew(TagParam).Set("id", p.ID).SetFloat("value", p.Value())
	}

	return root
}

// RestoreTree applies saved values. Unknown IDs and malformed values are
// ignored so presets from other versions still load. Parameters absent from
// the tree keep their current value. It returns how many values applied.
func (s *Set) RestoreTree(n *statetree.Node) int {
	if n == nil {
		return 0
	}

	applied := 0

	for _, e := range n.ChildrenNamed(TagParam) {
		p := s.Get(e.String("id", ""))
		if p == nil {
			continue
		}

		v, err := e.Float("value")
		if err != nil {
			continue
		}

		p.Set(v)
		applied++
	}

	return applied
}
