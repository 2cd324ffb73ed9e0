package fsm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFsmCycle(t *testing.T) {
	assert := assert.New(t)

	fsm := NewFsm()
	assert.True(fsm.IsIdle())

	calls := map[State]int{}
	phase := func(state State, advance bool) Phase {
		return func(fsm *Fsm) {
			assert.Equal(state, fsm.State())
			calls[state]++
			if advance {
				fsm.Next()
			}
		}
	}

	fsm.SetCreateLayout(phase(STATE_CREATE_LAYOUT, true))
	fsm.SetRunAnimation(phase(STATE_RUN_ANIMATION, false))
	fsm.SetUpdateData(phase(STATE_UPDATE_DATA, true))
	fsm.SetDestroyLayout(phase(STATE_DESTROY_LAYOUT, true))

	// Nothing runs until started.
	fsm.Run()
	assert.Equal(STATE_IDLE, fsm.State())
	assert.Empty(calls)

	fsm.Start()
	assert.Equal(STATE_CREATE_LAYOUT, fsm.State())

	fsm.Run()
	assert.Equal(STATE_RUN_ANIMATION, fsm.State())

	// The animation takes many frames; its phase runs once.
	for range 10 {
		fsm.Run()
		fsm.Start()
	}
	assert.Equal(STATE_RUN_ANIMATION, fsm.State())
	assert.Equal(1, calls[STATE_RUN_ANIMATION])

	fsm.Next()
	fsm.Run()
	assert.Equal(STATE_UPDATE_DATA, fsm.State())

	for range 5 {
		fsm.Run()
	}
	assert.Equal(STATE_IDLE, fsm.State())
	assert.Equal(map[State]int{
		STATE_CREATE_LAYOUT:  1,
		STATE_RUN_ANIMATION:  1,
		STATE_UPDATE_DATA:    1,
		STATE_DESTROY_LAYOUT: 1,
	}, calls)
}

func TestFsmToIdle(t *testing.T) {
	assert := assert.New(t)

	fsm := NewFsm()

	updated := 0
	fsm.SetCreateLayout(func(fsm *Fsm) { fsm.Reset() })
	fsm.SetUpdateData(func(*Fsm) { updated++ })

	fsm.Start()
	fsm.Run()
	assert.True(fsm.IsIdle())

	// Pending phases were dropped.
	fsm.Start()
	for range 3 {
		fsm.Run()
		fsm.Next()
	}
	assert.Equal(0, updated)
}

func TestFsmToIdleDropsControls(t *testing.T) {
	assert := assert.New(t)

	fsm := NewFsm()
	fsm.Start()
	fsm.Reset()
	fsm.Next()
	fsm.Run()
	assert.True(fsm.IsIdle())

	// The stale Next must not advance the following step.
	created := 0
	fsm.SetCreateLayout(func(*Fsm) { created++ })
	fsm.Start()
	fsm.Run()
	fsm.Run()
	assert.Equal(STATE_CREATE_LAYOUT, fsm.State())
	assert.Equal(1, created)
}

func TestFsmAbort(t *testing.T) {
	assert := assert.New(t)

	fsm := NewFsm()

	created := 0
	fsm.SetCreateLayout(func(fsm *Fsm) {
		created++
		fsm.Next()
	})
	fsm.Start()
	fsm.Next()
	fsm.Next()

	// Nothing pending survives, and the phase never runs.
	fsm.Abort()
	assert.True(fsm.IsIdle())
	fsm.Run()
	assert.True(fsm.IsIdle())

	fsm.Start()
	for range 3 {
		fsm.Run()
	}
	assert.Equal(STATE_CREATE_LAYOUT, fsm.State())
	assert.Equal(0, created)
}

func TestFsmSender(t *testing.T) {
	assert := assert.New(t)

	fsm := NewFsm()
	fsm.Start()

	fsm.Sender() <- CONTROL_NEXT
	fsm.Run()
	assert.Equal(STATE_RUN_ANIMATION, fsm.State())

	for range CONTROL_DEPTH {
		assert.True(fsm.Send(CONTROL_NEXT))
	}
	assert.False(fsm.Send(CONTROL_NEXT))

	// One message per run.
	fsm.Run()
	assert.Equal(STATE_UPDATE_DATA, fsm.State())
}

func TestStateString(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("run animation", STATE_RUN_ANIMATION.String())
	assert.Equal(STATE_IDLE, STATE_DESTROY_LAYOUT.Next())
	assert.Equal("State(9)", State(9).String())
	assert.Equal("next", CONTROL_NEXT.String())
}
