package duotier

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanerTickReportsBothEmpty(t *testing.T) {
	active := newActiveTier[string](10)
	dormant := newMemDormantStore[string](time.Hour)

	bothEmpty := cleanerTick[string](active, dormant, zerolog.Nop())
	assert.True(t, bothEmpty)
}

func TestCleanerTickCompactsExpiredDormantRecords(t *testing.T) {
	active := newActiveTier[string](10)
	dormant := newMemDormantStore[string](time.Millisecond)

	rec := newEntryRecord("v", nil)
	require.NoError(t, dormant.Write(context.Background(), map[string]*EntryRecord[string]{
		"a": rec,
	}))
	time.Sleep(5 * time.Millisecond)

	bothEmpty := cleanerTick[string](active, dormant, zerolog.Nop())
	assert.True(t, bothEmpty)

	records, _ := dormant.Read(context.Background())
	assert.Empty(t, records)
}

func TestCleanerStartAndStop(t *testing.T) {
	ticks := make(chan struct{}, 10)
	c := newCleaner(5*time.Millisecond, func() {
		select {
		case ticks <- struct{}{}:
		default:
		}
	})
	c.start()

	select {
	case <-ticks:
	case <-time.After(time.Second):
		t.Fatal("expected at least one tick")
	}

	c.stop()
}
