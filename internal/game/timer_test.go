package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerRegistryFires(t *testing.T) {
	r := NewTimerRegistry()
	fired := make(chan struct{})

	r.Arm("s1", 10*time.Millisecond, func() { close(fired) })
	assert.True(t, r.Armed("s1"))

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}

	require.Eventually(t, func() bool { return !r.Armed("s1") },
		time.Second, 5*time.Millisecond, "fired timer must remove itself")
}

func TestTimerRegistryCancel(t *testing.T) {
	r := NewTimerRegistry()
	fired := make(chan struct{}, 1)

	r.Arm("s1", 20*time.Millisecond, func() { fired <- struct{}{} })
	r.Cancel("s1")
	assert.False(t, r.Armed("s1"))

	select {
	case <-fired:
		t.Fatal("cancelled timer fired")
	case <-time.After(60 * time.Millisecond):
	}
}

func TestTimerRegistryArmReplaces(t *testing.T) {
	r := NewTimerRegistry()
	fired := make(chan string, 2)

	r.Arm("s1", 20*time.Millisecond, func() { fired <- "first" })
	r.Arm("s1", 10*time.Millisecond, func() { fired <- "second" })

	select {
	case which := <-fired:
		assert.Equal(t, "second", which)
	case <-time.After(time.Second):
		t.Fatal("replacement timer did not fire")
	}

	select {
	case <-fired:
		t.Fatal("replaced timer fired as well")
	case <-time.After(60 * time.Millisecond):
	}
}

func TestTimerRegistrySessionsIndependent(t *testing.T) {
	r := NewTimerRegistry()
	fired := make(chan string, 2)

	r.Arm("s1", 10*time.Millisecond, func() { fired <- "s1" })
	r.Arm("s2", 10*time.Millisecond, func() { fired <- "s2" })
	r.Cancel("s1")

	select {
	case which := <-fired:
		assert.Equal(t, "s2", which)
	case <-time.After(time.Second):
		t.Fatal("surviving timer did not fire")
	}
}
