package memory

import (
	"fmt"
	"sync"
)

// TrackingManager wraps the engine's default allocation in live counters.
// It is primarily a test and diagnostics aid: decode with it installed,
// then assert that everything the engine allocated was released.
type TrackingManager struct {
	mu         sync.Mutex
	liveAllocs int
	liveBytes  int64
	totalAlloc int64
	sizes      map[*byte]int
}

// NewTrackingManager returns an empty tracker.
func NewTrackingManager() *TrackingManager {
	return &TrackingManager{sizes: make(map[*byte]int)}
}

func (t *TrackingManager) AllocFunc() AllocFn {
	return func(_ any, size int) ([]byte, error) {
		if size < 0 {
			return nil, fmt.Errorf("negative allocation size %d", size)
		}
		buf := make([]byte, size)
		t.mu.Lock()
		t.liveAllocs++
		t.liveBytes += int64(size)
		t.totalAlloc += int64(size)
		if size > 0 {
			t.sizes[&buf[0]] = size
		}
		t.mu.Unlock()
		return buf, nil
	}
}

func (t *TrackingManager) FreeFunc() FreeFn {
	return func(_ any, buf []byte) {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.liveAllocs--
		if len(buf) == 0 {
			return
		}
		if size, ok := t.sizes[&buf[0]]; ok {
			t.liveBytes -= int64(size)
			delete(t.sizes, &buf[0])
		}
	}
}

func (t *TrackingManager) Opaque() any { return t }

// LiveAllocs returns the number of outstanding allocations.
func (t *TrackingManager) LiveAllocs() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.liveAllocs
}

// LiveBytes returns the number of outstanding allocated bytes.
func (t *TrackingManager) LiveBytes() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.liveBytes
}

// TotalAllocated returns the cumulative bytes handed out.
func (t *TrackingManager) TotalAllocated() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totalAlloc
}

var _ Manager = (*TrackingManager)(nil)
