package runtime

import "sync/atomic"

// SizeHint is a process-wide, per-template exponential-moving-average of
// past render lengths, queried to pre-size a fresh Buffer before
// rendering begins. Its zero value is ready to use, and its lifetime is
// the process's: a generated template type holds one as a package-level
// var.
type SizeHint struct {
	value uint64
}

// Get returns a capacity suggestion biased slightly toward
// over-allocation: value + value/8 + 75.
func (h *SizeHint) Get() int {
	v := atomic.LoadUint64(&h.value)
	return int(v + v/8 + 75)
}

// Update folds observed (a render's actual output length) into the
// running estimate: an EMA with weight 1/4, except the very first update
// (from a zero value) snaps directly to observed. Concurrent callers may
// race; a lost update is tolerated and never causes corruption, so this
// is a plain load-compute-store, not a compare-and-swap loop.
func (h *SizeHint) Update(observed int) {
	old := atomic.LoadUint64(&h.value)
	var next uint64
	if old == 0 {
		next = uint64(observed)
	} else {
		next = old - old/4 + uint64(observed)/4
	}
	atomic.StoreUint64(&h.value, next)
}
