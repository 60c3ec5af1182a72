package eventlog

import "sync/atomic"

// Gate holds the per-category admission flags. All flags start enabled.
// Reads happen on every append and are lock-free.
type Gate struct {
	flags [len(Categories)]atomic.Bool
}

// Flags is a plain copy of the gate used by configuration code.
type Flags struct {
	System    bool `json:"system"`
	Transport bool `json:"transport"`
	Radio     bool `json:"radio"`
}

// AllEnabled is the default gate state.
func AllEnabled() Flags { return Flags{System: true, Transport: true, Radio: true} }

// NewGate returns a gate with every category enabled.
func NewGate() *Gate {
	g := &Gate{}
	g.Apply(AllEnabled())
	return g
}

// Enabled reports whether records of category c are admitted. Unknown
// categories are never admitted.
func (g *Gate) Enabled(c Category) bool {
	if !c.Valid() {
		return false
	}
	return g.flags[c.index()].Load()
}

// Set changes one flag.
func (g *Gate) Set(c Category, enabled bool) {
	if !c.Valid() {
		return
	}
	g.flags[c.index()].Store(enabled)
}

// Apply sets all three flags. Each store is individually atomic; a concurrent
// append may observe a mix of old and new flags.
func (g *Gate) Apply(f Flags) {
	g.flags[System.index()].Store(f.System)
	g.flags[Transport.index()].Store(f.Transport)
	g.flags[Radio.index()].Store(f.Radio)
}

// Flags returns the current flag values.
func (g *Gate) Flags() Flags {
	return Flags{
		System:    g.Enabled(System),
		Transport: g.Enabled(Transport),
		Radio:     g.Enabled(Radio),
	}
}
