package debounce

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
	fired chan struct{}
}

func newRecorder() *recorder {
	return &recorder{fired: make(chan struct{}, 10)}
}

func (r *recorder) record(v string) {
	r.mu.Lock()
	r.calls = append(r.calls, v)
	r.mu.Unlock()
	r.fired <- struct{}{}
}

func (r *recorder) values() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func TestDebouncer_CoalescesBurst(t *testing.T) {
	t.Parallel()

	rec := newRecorder()
	d := New(20*time.Millisecond, rec.record)
	for _, v := range []string{"d", "de", "des", "desk"} {
		d.Trigger(v)
	}
	assert.True(t, d.Pending())

	select {
	case <-rec.fired:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced callback never fired")
	}
	assert.Equal(t, []string{"desk"}, rec.values())
	assert.False(t, d.Pending())
}

func TestDebouncer_Flush(t *testing.T) {
	t.Parallel()

	rec := newRecorder()
	d := New(time.Hour, rec.record)
	assert.False(t, d.Flush(), "nothing pending")

	d.Trigger("chair")
	assert.True(t, d.Flush())
	assert.Equal(t, []string{"chair"}, rec.values())
	assert.False(t, d.Flush())
}

func TestDebouncer_Stop(t *testing.T) {
	t.Parallel()

	rec := newRecorder()
	d := New(10*time.Millisecond, rec.record)
	d.Trigger("lamp")
	d.Stop()
	d.Trigger("ignored")

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, rec.values())
	assert.False(t, d.Flush())
}

func TestNew_DefaultWindow(t *testing.T) {
	t.Parallel()

	d := New(0, func(int) {})
	assert.Equal(t, DefaultWindow, d.window)
}
