package signal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archtone/archtone/archid"
	"github.com/archtone/archtone/slot"
	"github.com/archtone/archtone/traced"
)

func gainToDB(gain float64) float64 { return 20.0 * math.Log10(gain) }

func closeEnough(t *testing.T, got, want, tolerance float64) {
	t.Helper()
	assert.InDelta(t, want, got, tolerance)
}

func TestLowpassDesignMatchesCookbookResponse(t *testing.T) {
	def := LowpassDef(10000.0, Alpha{Kind: AlphaQ, Value: DefaultQ})
	closeEnough(t, gainToDB(cmplxAbs(def.FrequencyResponse(10000.0))), -3.0, 0.02)
	closeEnough(t, gainToDB(cmplxAbs(def.FrequencyResponse(1000.0))), 0.0, 0.02)
	closeEnough(t, gainToDB(cmplxAbs(def.FrequencyResponse(20000.0))), -35.84, 0.02)
}

func TestHighpassDesignMatchesCookbookResponse(t *testing.T) {
	def := HighpassDef(10000.0, Alpha{Kind: AlphaQ, Value: DefaultQ})
	closeEnough(t, gainToDB(cmplxAbs(def.FrequencyResponse(10000.0))), -3.0, 0.02)
	closeEnough(t, gainToDB(cmplxAbs(def.FrequencyResponse(20000.0))), 0.0, 0.02)
	closeEnough(t, gainToDB(cmplxAbs(def.FrequencyResponse(1000.0))), -43.31, 0.02)
}

func TestBandpassPeakZeroMatchesCookbookResponse(t *testing.T) {
	def := BandpassPeak0Def(10000.0, BandwidthFromHz(10000.0, 1000.0))
	closeEnough(t, gainToDB(cmplxAbs(def.FrequencyResponse(10000.0))), 0.0, 0.001)
	closeEnough(t, gainToDB(cmplxAbs(def.FrequencyResponse(8900.0))), -3.07, 0.05)
	closeEnough(t, gainToDB(cmplxAbs(def.FrequencyResponse(11100.0))), -2.90, 0.05)
}

func TestAllpassHasUnityGainEverywhere(t *testing.T) {
	def := AllpassDef(10000.0, Alpha{Kind: AlphaQ, Value: 2.0})
	closeEnough(t, gainToDB(cmplxAbs(def.FrequencyResponse(10000.0))), 0.0, 0.001)
	closeEnough(t, gainToDB(cmplxAbs(def.FrequencyResponse(8900.0))), 0.0, 0.05)
	closeEnough(t, gainToDB(cmplxAbs(def.FrequencyResponse(11100.0))), 0.0, 0.05)
}

func TestBiquadSignalTicksWithoutPanicking(t *testing.T) {
	ctx := NewContext(nil)
	def := LowpassDef(2000.0, Alpha{Kind: AlphaQ, Value: DefaultQ})
	sig := Biquad(def)
	sig.OnBlockStart(ctx)
	for i := 0; i < BlockSize; i++ {
		out := sig.Tick(ctx, math.Sin(float64(i)*0.1))
		assert.False(t, math.IsNaN(out))
		assert.False(t, math.IsInf(out, 0))
	}
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}

func TestBiquadSlotLowpassRecomputesCoefficientsEachBlock(t *testing.T) {
	slots := slot.NewMap()
	cutoffID, qID := archid.New(), archid.New()
	cutoff := slot.NewContainer(1000.0)
	q := slot.NewContainer(DefaultQ)
	slot.Bind(slots, cutoffID, cutoff)
	slot.Bind(slots, qID, q)

	sig := BiquadSlotLowpass(slot.Slot[float64]{ID: cutoffID}, slot.Slot[float64]{ID: qID})
	concrete := sig.(*biquadSlotLowpassSignal)
	ctx := NewContext(slots)

	sig.OnBlockStart(ctx)
	first := concrete.def

	cutoff.Replace(4000.0)
	sig.OnBlockStart(ctx)
	assert.NotEqual(t, first, concrete.def, "changing the cutoff slot must change the resolved BiquadDef")
}

func TestBiquadSlotLowpassFallsBackToDefaultQWhenNonPositive(t *testing.T) {
	slots := slot.NewMap()
	cutoffID, qID := archid.New(), archid.New()
	slot.Bind(slots, cutoffID, slot.NewContainer(1000.0))
	slot.Bind(slots, qID, slot.NewContainer(0.0))

	sig := BiquadSlotLowpass(slot.Slot[float64]{ID: cutoffID}, slot.Slot[float64]{ID: qID})
	ctx := NewContext(slots)

	require.NotPanics(t, func() { sig.OnBlockStart(ctx) })
	concrete := sig.(*biquadSlotLowpassSignal)
	assert.Equal(t, LowpassDef(1000.0, Alpha{Kind: AlphaQ, Value: DefaultQ}), concrete.def)
}

func TestBiquadSlotLowpassPanicsWhenSlotNotBoundToThisMount(t *testing.T) {
	slots := slot.NewMap()
	sig := BiquadSlotLowpass(slot.Slot[float64]{ID: archid.New()}, slot.Slot[float64]{ID: archid.New()})
	ctx := NewContext(slots)

	require.Panics(t, func() { sig.OnBlockStart(ctx) })
}

func TestBiquadSlotLowpassTraceSlotsReportsBothReads(t *testing.T) {
	cutoffID, qID := archid.New(), archid.New()
	sig := BiquadSlotLowpass(slot.Slot[float64]{ID: cutoffID}, slot.Slot[float64]{ID: qID})

	var got []traced.Use
	sig.TraceSlots(func(u traced.Use) { got = append(got, u) })

	require.Len(t, got, 2)
	assert.Equal(t, cutoffID, got[0].ID)
	assert.Equal(t, qID, got[1].ID)
	assert.Equal(t, traced.KindSlot, got[0].Kind)
	assert.Equal(t, traced.ModeRead, got[0].Mode)
}

func TestBiquadSlotLowpassTicksWithoutPanicking(t *testing.T) {
	slots := slot.NewMap()
	cutoffID, qID := archid.New(), archid.New()
	slot.Bind(slots, cutoffID, slot.NewContainer(2000.0))
	slot.Bind(slots, qID, slot.NewContainer(DefaultQ))

	sig := BiquadSlotLowpass(slot.Slot[float64]{ID: cutoffID}, slot.Slot[float64]{ID: qID})
	ctx := NewContext(slots)
	sig.OnBlockStart(ctx)

	for i := 0; i < BlockSize; i++ {
		out := sig.Tick(ctx, math.Sin(float64(i)*0.1))
		assert.False(t, math.IsNaN(out))
		assert.False(t, math.IsInf(out, 0))
	}
}
