package duotier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewEntryRecordStartsAtFrequencyOne(t *testing.T) {
	rec := newEntryRecord("v", nil)
	assert.Equal(t, uint64(1), rec.frequency)
	assert.Equal(t, rec.createdAt, rec.modifiedAt)
}

func TestEntryRecordTouchIncrements(t *testing.T) {
	rec := newEntryRecord("v", nil)
	rec.touch()
	rec.touch()
	assert.Equal(t, uint64(3), rec.frequency)
}

func TestEntryRecordSetValuePreservesFrequencyAndHook(t *testing.T) {
	hookCalled := false
	hook := func() string { hookCalled = true; return "x" }
	rec := newEntryRecord("v", hook)
	rec.touch()

	rec.setValue("v2", nil, true)

	assert.Equal(t, "v2", rec.value)
	assert.Equal(t, uint64(2), rec.frequency)
	assert.NotNil(t, rec.onExpire)
	_ = hookCalled
}

func TestEntryRecordSetValueReplacesHookWhenNotKept(t *testing.T) {
	rec := newEntryRecord("v", func() string { return "old" })
	rec.setValue("v2", nil, false)
	assert.Nil(t, rec.onExpire)
}

func TestEntryRecordAgeExceeds(t *testing.T) {
	rec := newEntryRecord("v", nil)
	assert.False(t, rec.ageExceeds(time.Hour))
	rec.createdAt = time.Now().Add(-2 * time.Hour)
	assert.True(t, rec.ageExceeds(time.Hour))
	assert.False(t, rec.ageExceeds(0))
}

func TestEntryRecordCloneIsIndependent(t *testing.T) {
	rec := newEntryRecord("v", nil)
	cp := rec.clone()
	cp.touch()
	assert.NotEqual(t, rec.frequency, cp.frequency)
}
