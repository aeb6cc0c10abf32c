package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeFiresInOrder(t *testing.T) {
	start := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	f := NewFake(start)
	var got []string
	f.AfterFunc(300*time.Millisecond, func() { got = append(got, "b") })
	f.AfterFunc(100*time.Millisecond, func() { got = append(got, "a") })
	f.AfterFunc(300*time.Millisecond, func() { got = append(got, "c") })
	assert.Equal(t, 3, f.Pending())

	f.Advance(200 * time.Millisecond)
	assert.Equal(t, []string{"a"}, got)
	assert.Equal(t, start.Add(200*time.Millisecond), f.Now())

	f.Advance(time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Zero(t, f.Pending())
}

func TestFakeStop(t *testing.T) {
	f := NewFake(time.Unix(0, 0))
	fired := false
	tm := f.AfterFunc(time.Second, func() { fired = true })
	assert.True(t, tm.Stop())
	assert.False(t, tm.Stop())
	f.Advance(2 * time.Second)
	assert.False(t, fired)
}

func TestFakeCallbackSeesDeadlineTime(t *testing.T) {
	start := time.Unix(0, 0)
	f := NewFake(start)
	var at time.Time
	f.AfterFunc(time.Minute, func() {
		at = f.Now()
		f.AfterFunc(time.Second, func() {})
	})
	f.Advance(time.Hour)
	assert.Equal(t, start.Add(time.Minute), at)
	assert.Zero(t, f.Pending(), "timer scheduled from a callback fires within the same advance")
}
