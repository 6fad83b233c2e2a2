package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archtone/archtone/archid"
	"github.com/archtone/archtone/slot"
	"github.com/archtone/archtone/traced"
)

func TestSlotSignalReadsCachedValuePerBlock(t *testing.T) {
	slots := slot.NewMap()
	id := archid.New()
	container := slot.NewContainer(1.0)
	slot.Bind(slots, id, container)

	sig := Slot(slot.Slot[float64]{ID: id})
	ctx := NewContext(slots)

	sig.OnBlockStart(ctx)
	assert.Equal(t, 1.0, sig.Tick(ctx, 0))
	assert.Equal(t, 1.0, sig.Tick(ctx, 0))

	container.Replace(2.0)
	assert.Equal(t, 1.0, sig.Tick(ctx, 0), "value updates only on OnBlockStart, not mid-block")

	sig.OnBlockStart(ctx)
	assert.Equal(t, 2.0, sig.Tick(ctx, 0))
}

func TestSlotSignalChangedFlagsOnlyTheBlockItChanged(t *testing.T) {
	slots := slot.NewMap()
	id := archid.New()
	container := slot.NewContainer(5.0)
	slot.Bind(slots, id, container)

	concrete := &slotSignal{id: slot.Slot[float64]{ID: id}}
	ctx := NewContext(slots)

	concrete.OnBlockStart(ctx)
	assert.True(t, concrete.Changed(), "first observation always counts as changed")

	concrete.OnBlockStart(ctx)
	assert.False(t, concrete.Changed())

	container.Replace(6.0)
	concrete.OnBlockStart(ctx)
	assert.True(t, concrete.Changed())
}

func TestSlotSignalPanicsWhenNotBoundToThisMount(t *testing.T) {
	slots := slot.NewMap()
	ctx := NewContext(slots)
	sig := Slot(slot.Slot[float64]{ID: archid.New()})

	require.Panics(t, func() { sig.OnBlockStart(ctx) })
}

func TestSlotSignalTraceSlotsReportsReadUse(t *testing.T) {
	id := archid.New()
	sig := Slot(slot.Slot[float64]{ID: id})

	var got []traced.Use
	sig.TraceSlots(func(u traced.Use) { got = append(got, u) })

	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)
	assert.Equal(t, traced.KindSlot, got[0].Kind)
	assert.Equal(t, traced.ModeRead, got[0].Mode)
}
