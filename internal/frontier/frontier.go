// Package frontier implements the per-thread, per-remoteness staging
// buffers of solved positions awaiting propagation during backward
// induction (component C1).
package frontier

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gamescrafters/tiersolve/internal/model"
	"github.com/gamescrafters/tiersolve/pkg/collections"
)

// Class names the three value-classes a frontier tracks. Draw positions
// never enter a frontier — they are the leftover after propagation.
type Class int

const (
	ClassLose Class = iota
	ClassWin
	ClassTie
	numClasses
)

// String implements fmt.Stringer.
func (c Class) String() string {
	switch c {
	case ClassLose:
		return "Lose"
	case ClassWin:
		return "Win"
	case ClassTie:
		return "Tie"
	default:
		return "Invalid"
	}
}

// bucket is one (class, thread, remoteness) staging vector plus the
// per-originating-tier histogram that becomes its dividers once accumulated.
type bucket struct {
	positions []model.Position
	// dividers[k] starts as a count of entries announced under tier-index k;
	// AccumulateDividers turns it into a running prefix sum.
	dividers []int
}

// Frontier holds every (class, thread, remoteness) bucket for one tier
// solve. Its lifetime is exactly one call to the worker's backward
// induction (C4).
type Frontier struct {
	numThreads int
	rMax       model.Remoteness

	mu      sync.Mutex // guards only bucket-slice growth, never per-thread appends
	buckets [numClasses][][]*bucket // [class][thread][remoteness]

	pool *collections.SlicePool[model.Position]

	accumulated bool
}

// New creates a Frontier sized for numThreads worker threads and a maximum
// remoteness of rMax.
func New(numThreads int, rMax model.Remoteness) *Frontier {
	if numThreads <= 0 {
		numThreads = 1
	}
	f := &Frontier{
		numThreads: numThreads,
		rMax:       rMax,
		pool:       collections.NewSlicePool[model.Position](64),
	}
	for c := Class(0); c < numClasses; c++ {
		f.buckets[c] = make([][]*bucket, numThreads)
		for t := range f.buckets[c] {
			f.buckets[c][t] = make([]*bucket, rMax+1)
		}
	}
	return f
}

func (f *Frontier) bucketFor(class Class, thread int, r model.Remoteness) *bucket {
	b := f.buckets[class][thread][r]
	if b == nil {
		b = &bucket{positions: *f.pool.Get()}
		f.buckets[class][thread][r] = b
	}
	return b
}

// Add appends position to the (class, thread, remoteness) bucket, recording
// that it originated from the tierIndex'th tier in the worker's fixed child
// order (spec.md's "fixed order so dividers line up"). Callers MUST
// announce tierIndex in non-decreasing order within a single thread —
// staging child tiers sequentially, then the solving tier itself,
// guarantees this.
func (f *Frontier) Add(class Class, thread int, r model.Remoteness, pos model.Position, tierIndex int) error {
	if thread < 0 || thread >= f.numThreads {
		return fmt.Errorf("frontier: thread %d out of range [0,%d)", thread, f.numThreads)
	}
	if r < 0 || r > f.rMax {
		return fmt.Errorf("frontier: remoteness %d exceeds R_max %d", r, f.rMax)
	}
	f.mu.Lock()
	b := f.bucketFor(class, thread, r)
	f.mu.Unlock()

	b.positions = append(b.positions, pos)
	if tierIndex >= len(b.dividers) {
		grown := make([]int, tierIndex+1)
		n := copy(grown, b.dividers)
		if f.accumulated && n > 0 {
			// Already prefix sums: carry the running total into new indices.
			for k := n; k <= tierIndex; k++ {
				grown[k] = grown[n-1]
			}
		}
		b.dividers = grown
	}
	b.dividers[tierIndex]++
	return nil
}

// AccumulateDividers turns every bucket's per-tier counts into running
// prefix sums. Must be called once, after all child tiers and the current
// tier's primitives have been staged, and before any propagation pass reads
// OriginatingTier.
func (f *Frontier) AccumulateDividers() {
	for c := Class(0); c < numClasses; c++ {
		for t := 0; t < f.numThreads; t++ {
			for r := model.Remoteness(0); r <= f.rMax; r++ {
				b := f.buckets[c][t][r]
				if b == nil {
					continue
				}
				sum := 0
				for i, v := range b.dividers {
					sum += v
					b.dividers[i] = sum
				}
			}
		}
	}
	f.accumulated = true
}

// OriginatingTier returns the tier-index tagged to the idx'th entry of the
// (class, thread, remoteness) bucket: the smallest k with dividers[k] > idx.
func (f *Frontier) OriginatingTier(class Class, thread int, r model.Remoteness, idx int) int {
	b := f.buckets[class][thread][r]
	if b == nil {
		return -1
	}
	k := sort.Search(len(b.dividers), func(k int) bool { return b.dividers[k] > idx })
	return k
}

// Positions returns the read-only slice of positions staged in the
// (class, thread, remoteness) bucket. Safe to call only after all writers
// for that remoteness have finished (spec.md's "read-only sweep").
func (f *Frontier) Positions(class Class, thread int, r model.Remoteness) []model.Position {
	b := f.buckets[class][thread][r]
	if b == nil {
		return nil
	}
	return b.positions
}

// Len returns the number of entries staged across all threads for a given
// class and remoteness.
func (f *Frontier) Len(class Class, r model.Remoteness) int {
	total := 0
	for t := 0; t < f.numThreads; t++ {
		if b := f.buckets[class][t][r]; b != nil {
			total += len(b.positions)
		}
	}
	return total
}

// FreeRemoteness releases the storage backing every (class, thread) bucket
// at remoteness r. Must be called only after every reader of that stratum
// has finished (spec.md §5: "each pass frees its remoteness's frontier
// storage after use").
func (f *Frontier) FreeRemoteness(r model.Remoteness) {
	for c := Class(0); c < numClasses; c++ {
		for t := 0; t < f.numThreads; t++ {
			b := f.buckets[c][t][r]
			if b == nil {
				continue
			}
			if cap(b.positions) > 0 {
				pooled := b.positions[:0]
				f.pool.Put(&pooled)
			}
			f.buckets[c][t][r] = nil
		}
	}
}
