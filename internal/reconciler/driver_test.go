package reconciler

import (
	"testing"
	"time"

	"github.com/yourusername/skyline/internal/platform"
)

func TestDriver_RunWithTimeoutExits(t *testing.T) {
	r, _ := newFixture(t, nil)
	d := NewDriver(r)

	done := make(chan struct{})
	go func() {
		d.RunWithTimeout(50 * time.Millisecond)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("loop did not exit on timeout")
	}
}

func TestDriver_CallRunsOnLoop(t *testing.T) {
	r, fake := newFixture(t, nil)
	d := NewDriver(r)

	go d.RunWithTimeout(2 * time.Second)

	ran := make(chan platform.WindowID, 1)
	d.Call(func() {
		ran <- r.Store.FocusedWindow
	})

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("submitted closure never ran")
	}
	d.Stop()
	_ = fake
}

func TestDriver_EventsDriveTicks(t *testing.T) {
	r, fake := newFixture(t, nil)
	d := NewDriver(r)
	addAppWindows(t, r, fake, 9, 10, 11)
	r.Tick(t0)

	go d.RunWithTimeout(2 * time.Second)

	fake.DropWindow(10)
	fake.DropWindow(11)
	fake.Emit(platform.Event{Kind: platform.EventAppTerminated, PID: 9})

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		ok := false
		d.Call(func() { ok = !r.Store.Windows.Has(10) })
		if ok {
			d.Stop()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	d.Stop()
	t.Fatal("terminated app's windows never removed")
}
