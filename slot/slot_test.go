package slot

import (
	"testing"

	"github.com/archtone/archtone/archid"
	"github.com/stretchr/testify/assert"
)

func TestContainerReplaceRegeneratesUpdateID(t *testing.T) {
	c := NewContainer(1.0)
	_, firstID := c.Load()

	c.Replace(2.0)
	v, secondID := c.Load()
	assert.Equal(t, 2.0, v)
	assert.NotEqual(t, firstID, secondID)
}

func TestContainerMutateAppliesFunctionAndRegeneratesID(t *testing.T) {
	c := NewContainer([]int{1, 2, 3})
	before := c.UpdateID()

	c.Mutate(func(v *[]int) { *v = append(*v, 4) })
	v, after := c.Load()
	assert.Equal(t, []int{1, 2, 3, 4}, v)
	assert.NotEqual(t, before, after)
}

func TestMapBindLookupRoundTrip(t *testing.T) {
	m := NewMap()
	c := NewContainer(42)
	id := archid.New()
	Bind(m, id, c)

	got, ok := Lookup[int](m, id)
	assert.True(t, ok)
	assert.Same(t, c, got)
}

func TestMapLookupMissingIDFails(t *testing.T) {
	m := NewMap()
	_, ok := Lookup[int](m, archid.New())
	assert.False(t, ok)
}

func TestMapBindPanicsOnDuplicateID(t *testing.T) {
	m := NewMap()
	id := archid.New()
	Bind(m, id, NewContainer(1))

	assert.Panics(t, func() {
		Bind(m, id, NewContainer(2))
	})
}
