package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventBusFireStopsWhenHandled(t *testing.T) {
	bus := NewEventBus()
	var calls []string

	bus.Register(EVENT_CODE_RESIZED, func(code SystemEventCode, sender interface{}, data EventContext) bool {
		calls = append(calls, "first")
		assert.Equal(t, uint32(800), data.Data.U32[0])
		return true
	})
	bus.Register(EVENT_CODE_RESIZED, func(code SystemEventCode, sender interface{}, data EventContext) bool {
		calls = append(calls, "second")
		return false
	})

	ctx := EventContext{}
	ctx.Data.U32[0] = 800
	assert.True(t, bus.Fire(EVENT_CODE_RESIZED, nil, ctx))
	assert.Equal(t, []string{"first"}, calls)
}

func TestEventBusUnregister(t *testing.T) {
	bus := NewEventBus()
	fired := 0
	id := bus.Register(EVENT_CODE_APPLICATION_QUIT, func(SystemEventCode, interface{}, EventContext) bool {
		fired++
		return false
	})

	bus.Fire(EVENT_CODE_APPLICATION_QUIT, nil, EventContext{})
	assert.True(t, bus.Unregister(EVENT_CODE_APPLICATION_QUIT, id))
	assert.False(t, bus.Unregister(EVENT_CODE_APPLICATION_QUIT, id))
	assert.False(t, bus.Fire(EVENT_CODE_APPLICATION_QUIT, nil, EventContext{}))
	assert.Equal(t, 1, fired)
}

func TestEventBusNoListeners(t *testing.T) {
	bus := NewEventBus()
	assert.False(t, bus.Fire(EVENT_CODE_ASSET_CHANGED, nil, EventContext{}))
	bus.Shutdown()
}

func TestParseLogLevel(t *testing.T) {
	lvl, err := ParseLogLevel(" Warn ")
	assert.NoError(t, err)
	assert.Equal(t, LogLevelWarn, lvl)

	lvl, err = ParseLogLevel("")
	assert.NoError(t, err)
	assert.Equal(t, LogLevelInfo, lvl)

	_, err = ParseLogLevel("verbose")
	assert.Error(t, err)
}
