package signal

import (
	"testing"

	"github.com/archtone/archtone/traced"
	"github.com/stretchr/testify/assert"
)

func tickN(t *testing.T, sig Signal, ctx *Context, in float64, n int) []float64 {
	t.Helper()
	out := make([]float64, n)
	for i := range out {
		out[i] = sig.Tick(ctx, in)
	}
	return out
}

func TestConstAlwaysOutputsItsValue(t *testing.T) {
	ctx := NewContext(nil)
	sig := Const(3.5)
	sig.OnBlockStart(ctx)
	got := tickN(t, sig, ctx, 0, 3)
	assert.Equal(t, []float64{3.5, 3.5, 3.5}, got)
}

func TestScaleMultipliesUpstreamOutput(t *testing.T) {
	ctx := NewContext(nil)
	sig := Scale(Const(2.0), 4.0)
	assert.Equal(t, 8.0, sig.Tick(ctx, 0))
}

type passThroughPlusOne struct{}

func (p *passThroughPlusOne) OnBlockStart(ctx *Context)             {}
func (p *passThroughPlusOne) Tick(ctx *Context, in float64) float64 { return in + 1 }
func (p *passThroughPlusOne) TraceSlots(insert traced.Inserter) {}

func TestAndThenFeedsFirstOutputIntoSecondInput(t *testing.T) {
	ctx := NewContext(nil)
	sig := AndThen(Const(5.0), &passThroughPlusOne{})
	assert.Equal(t, 6.0, sig.Tick(ctx, 0))
}

func TestMapAppliesFunction(t *testing.T) {
	ctx := NewContext(nil)
	sig := Map(Const(4.0), func(v float64) float64 { return v * v })
	assert.Equal(t, 16.0, sig.Tick(ctx, 0))
}

func TestZip2ProducesPairFromBothChannels(t *testing.T) {
	ctx := NewContext(nil)
	z := Zip2(Const(1.0), Const(2.0))
	out := z.Tick(ctx, Frame2{0, 0})
	assert.Equal(t, Frame2{1.0, 2.0}, out)
}

func TestSplit2RoutesEachChannelAndAdvancesTogether(t *testing.T) {
	ctx := NewContext(nil)
	z := Zip2(Const(1.0), Const(2.0))
	left, right := Split2(z)

	l1 := left.Tick(ctx, 0)
	r1 := right.Tick(ctx, 0)
	assert.Equal(t, 1.0, l1)
	assert.Equal(t, 2.0, r1)

	l2 := left.Tick(ctx, 0)
	r2 := right.Tick(ctx, 0)
	assert.Equal(t, 1.0, l2)
	assert.Equal(t, 2.0, r2)
}

func TestChainComposesFluently(t *testing.T) {
	ctx := NewContext(nil)
	sig := NewChain(Const(2.0)).
		Scale(3.0).
		Map(func(v float64) float64 { return v + 1 }).
		Build()
	assert.Equal(t, 7.0, sig.Tick(ctx, 0))
}

func TestBoxedDelegatesToInner(t *testing.T) {
	ctx := NewContext(nil)
	boxed := Box(Const(9.0))
	assert.Equal(t, 9.0, boxed.Tick(ctx, 0))
	assert.NotNil(t, boxed.Unwrap())
}
