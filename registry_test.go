package duotier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryGetOrInitReturnsSameInstance(t *testing.T) {
	reg := NewRegistry[string]()
	store := newMemDormantStore[string](time.Hour)

	a, err := reg.GetOrInit("sessions", 10, time.Minute, time.Hour, WithDormantStore[string](store))
	require.NoError(t, err)

	b, err := reg.GetOrInit("sessions", 999, time.Second, time.Second)
	require.NoError(t, err)

	assert.Same(t, a, b)
	reg.DisposeAll()
}

func TestRegistryLookupMissing(t *testing.T) {
	reg := NewRegistry[string]()
	_, ok := reg.Lookup("nope")
	assert.False(t, ok)
}

func TestRegistryRemoveDisposes(t *testing.T) {
	reg := NewRegistry[string]()
	store := newMemDormantStore[string](time.Hour)
	c, err := reg.GetOrInit("a", 10, time.Minute, time.Hour, WithDormantStore[string](store))
	require.NoError(t, err)

	c.Add("k", "v", nil)
	reg.Remove("a")

	_, ok := reg.Lookup("a")
	assert.False(t, ok)
}
