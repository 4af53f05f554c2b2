package duotier

import (
	"testing"
	"time"
)

// BenchmarkAdd measures the overwrite path: same key repeatedly, active
// tier never grows past one entry.
func BenchmarkAdd(b *testing.B) {
	store := newMemDormantStore[string](time.Hour)
	c, err := Init[string](1000, 5*time.Minute, time.Hour, WithDormantStore[string](store))
	if err != nil {
		b.Fatal(err)
	}
	defer c.Dispose()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Add("key", "value", nil)
	}
}

// BenchmarkGetHit measures the active-tier hit path.
func BenchmarkGetHit(b *testing.B) {
	store := newMemDormantStore[string](time.Hour)
	c, err := Init[string](1000, 5*time.Minute, time.Hour, WithDormantStore[string](store))
	if err != nil {
		b.Fatal(err)
	}
	defer c.Dispose()
	c.Add("key", "value", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get("key")
	}
}

// BenchmarkOverflow measures the LFU-decision path by exceeding
// capacity on every insert.
func BenchmarkOverflow(b *testing.B) {
	store := newMemDormantStore[string](time.Hour)
	c, err := Init[string](16, 5*time.Minute, time.Hour, WithDormantStore[string](store))
	if err != nil {
		b.Fatal(err)
	}
	defer c.Dispose()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Add(keyFor(i), "value", nil)
	}
}
