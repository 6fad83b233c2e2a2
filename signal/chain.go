package signal

// Chain is a fluent builder over AndThen: each method wraps the
// accumulated signal and returns a new Chain, so a tree of combinators
// can be written as a single expression instead of nested constructor
// calls.
type Chain struct {
	sig Signal
}

// NewChain starts a chain from an existing signal.
func NewChain(sig Signal) Chain { return Chain{sig: sig} }

// Scale appends a Scale stage.
func (c Chain) Scale(factor float64) Chain { return Chain{sig: Scale(c.sig, factor)} }

// Map appends a Map stage.
func (c Chain) Map(f func(float64) float64) Chain { return Chain{sig: Map(c.sig, f)} }

// AndThen appends next, fed by the chain's current output.
func (c Chain) AndThen(next Signal) Chain { return Chain{sig: AndThen(c.sig, next)} }

// Build returns the composed signal.
func (c Chain) Build() Signal { return c.sig }
