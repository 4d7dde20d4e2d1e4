package memory

import (
	"fmt"
	"sync"
)

// poolCapLimit keeps oversized scratch buffers out of the pool so a single
// huge image does not pin memory for the life of the process.
const poolCapLimit = 8 * 1024 * 1024

// PoolManager serves engine allocations from a sync.Pool, trading a small
// amount of slack capacity for fewer GC cycles on hot decode paths.
type PoolManager struct {
	pool sync.Pool
}

// NewPoolManager returns a ready-to-use pooled allocator.
func NewPoolManager() *PoolManager {
	return &PoolManager{
		pool: sync.Pool{
			New: func() interface{} { return []byte(nil) },
		},
	}
}

func (p *PoolManager) AllocFunc() AllocFn {
	return func(_ any, size int) ([]byte, error) {
		if size < 0 {
			return nil, fmt.Errorf("negative allocation size %d", size)
		}
		buf, _ := p.pool.Get().([]byte)
		if cap(buf) < size {
			return make([]byte, size), nil
		}
		buf = buf[:size]
		// Reused capacity may hold stale pixels from a previous decode.
		for i := range buf {
			buf[i] = 0
		}
		return buf, nil
	}
}

func (p *PoolManager) FreeFunc() FreeFn {
	return func(_ any, buf []byte) {
		if cap(buf) == 0 || cap(buf) > poolCapLimit {
			return
		}
		p.pool.Put(buf[:0]) //nolint:staticcheck // slice, not pointer: value is small
	}
}

func (p *PoolManager) Opaque() any { return p }

var _ Manager = (*PoolManager)(nil)
