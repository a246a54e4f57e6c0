package services

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestSaveSchedulerSingleFire(t *testing.T) {
	var fired int32
	s := newSaveScheduler(30 * time.Millisecond)

	s.Schedule("q1", func() { atomic.AddInt32(&fired, 1) })
	time.Sleep(100 * time.Millisecond)

	if got := atomic.LoadInt32(&fired); got != 1 {
		t.Fatalf("fires = %d, want 1", got)
	}
	if got := s.PendingCount(); got != 0 {
		t.Fatalf("pending = %d, want 0 after fire", got)
	}
}

func TestSaveSchedulerCoalescesSameKey(t *testing.T) {
	var fired int32
	var last int32
	s := newSaveScheduler(40 * time.Millisecond)

	for i := 1; i <= 5; i++ {
		v := int32(i)
		s.Schedule("q1", func() {
			atomic.StoreInt32(&last, v)
			atomic.AddInt32(&fired, 1)
		})
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(120 * time.Millisecond)

	if got := atomic.LoadInt32(&fired); got != 1 {
		t.Fatalf("fires = %d, want 1 (coalesced)", got)
	}
	if got := atomic.LoadInt32(&last); got != 5 {
		t.Fatalf("last = %d, want 5", got)
	}
}

func TestSaveSchedulerKeysAreIndependent(t *testing.T) {
	var fired int32
	s := newSaveScheduler(20 * time.Millisecond)

	s.Schedule("q1", func() { atomic.AddInt32(&fired, 1) })
	s.Schedule("q2", func() { atomic.AddInt32(&fired, 1) })
	s.Schedule("q3", func() { atomic.AddInt32(&fired, 1) })
	time.Sleep(100 * time.Millisecond)

	if got := atomic.LoadInt32(&fired); got != 3 {
		t.Fatalf("fires = %d, want 3 (independent keys)", got)
	}
}

func TestSaveSchedulerCancel(t *testing.T) {
	var fired int32
	s := newSaveScheduler(40 * time.Millisecond)

	s.Schedule("q1", func() { atomic.AddInt32(&fired, 1) })
	s.Cancel("q1")
	time.Sleep(100 * time.Millisecond)

	if got := atomic.LoadInt32(&fired); got != 0 {
		t.Fatalf("fires = %d, want 0 after cancel", got)
	}
}

func TestSaveSchedulerCancelAll(t *testing.T) {
	var fired int32
	s := newSaveScheduler(40 * time.Millisecond)

	s.Schedule("q1", func() { atomic.AddInt32(&fired, 1) })
	s.Schedule("q2", func() { atomic.AddInt32(&fired, 1) })
	if got := s.PendingCount(); got != 2 {
		t.Fatalf("pending = %d, want 2", got)
	}
	s.CancelAll()
	time.Sleep(100 * time.Millisecond)

	if got := atomic.LoadInt32(&fired); got != 0 {
		t.Fatalf("fires = %d, want 0 after cancel all", got)
	}
	if got := s.PendingCount(); got != 0 {
		t.Fatalf("pending = %d, want 0", got)
	}
}

func TestSaveSchedulerZeroWindowUsesDefault(t *testing.T) {
	s := newSaveScheduler(0)
	if s.window != DefaultSaveWindow {
		t.Fatalf("window = %v, want %v", s.window, DefaultSaveWindow)
	}
}
