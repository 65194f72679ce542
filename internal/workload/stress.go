package workload

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

const (
	DefaultCPUDuration   = 10 * time.Second
	DefaultCPUOperations = 10000000

	DefaultLongRunningDuration = time.Minute
	DefaultLongRunningTick     = 100 * time.Millisecond

	DefaultHeapArrays    = 50
	DefaultHeapArraySize = 1000000

	DefaultStackDepth      = 10000
	DefaultRecursionLevels = 1000

	// MaxHeapBytes caps what one HeapStress call may hold live. Running out
	// of memory is fatal in Go and cannot be recovered.
	MaxHeapBytes int64 = 1 << 30

	// cpuCheckInterval is how many operations run between clock and ctx checks.
	cpuCheckInterval = 1024
	// burstOperations is the CPU work done on each long-running tick.
	burstOperations = 100000
)

// sink keeps the compiler from discarding pure math loops.
var sink float64

// CPUBound spins on floating point math until maxOps operations have run,
// maxDuration has passed, or ctx is done. It returns the operation count.
func CPUBound(ctx context.Context, maxDuration time.Duration, maxOps int) int {
	start := time.Now()
	ops := 0
	acc := 0.0

	for ops < maxOps {
		if ops%cpuCheckInterval == 0 {
			if time.Since(start) >= maxDuration || ctx.Err() != nil {
				break
			}
		}
		n := rand.Float64()*1000 + 1
		acc += math.Sqrt(n) + math.Sin(n) + math.Cos(n) + math.Tan(n) + math.Log(n)
		ops++
	}

	sink = acc
	return ops
}

// LongRunningResult describes a LongRunning call.
type LongRunningResult struct {
	Completed  bool          `json:"completed"`
	Duration   time.Duration `json:"-"`
	DurationMs int64         `json:"duration"`
	Iterations int           `json:"iterations"`
}

// LongRunning does a short CPU burst every tick until target has elapsed.
// Cancelling ctx ends it early with Completed set to false.
func LongRunning(ctx context.Context, target, tick time.Duration) LongRunningResult {
	start := time.Now()
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	finish := func(completed bool) LongRunningResult {
		elapsed := time.Since(start)
		return LongRunningResult{
			Completed:  completed,
			Duration:   elapsed,
			DurationMs: elapsed.Milliseconds(),
			Iterations: int(elapsed / tick),
		}
	}

	for {
		if time.Since(start) >= target {
			return finish(true)
		}

		acc := 0.0
		for i := 0; i < burstOperations; i++ {
			acc += math.Sqrt(float64(i))
		}
		sink = acc

		select {
		case <-ctx.Done():
			return finish(false)
		case <-ticker.C:
		}
	}
}

// HeapStressResult describes a HeapStress call.
type HeapStressResult struct {
	MemoryUsed    string  `json:"memoryUsed"`
	ArraysCreated int     `json:"arraysCreated"`
	TotalSum      float64 `json:"totalSum"`
	Error         string  `json:"error,omitempty"`
}

// HeapFits reports whether arrays slices of size float64s stay within
// MaxHeapBytes.
func HeapFits(arrays, size int) bool {
	if arrays <= 0 || size <= 0 {
		return true
	}
	return int64(arrays) <= MaxHeapBytes/8/int64(size)
}

// HeapStress allocates arrays slices of size random floats, keeps them all
// live, then sums every element. Requests over MaxHeapBytes are refused.
func HeapStress(arrays, size int) (result HeapStressResult) {
	if !HeapFits(arrays, size) {
		return HeapStressResult{
			MemoryUsed: "none",
			Error:      fmt.Sprintf("%d arrays of %d floats exceeds the %dMB limit", arrays, size, MaxHeapBytes>>20),
		}
	}

	held := make([][]float64, 0, arrays)

	defer func() {
		// Allocation failures in Go are fatal, but a bad size panics
		if r := recover(); r != nil {
			result = HeapStressResult{
				MemoryUsed:    "allocation failed",
				ArraysCreated: len(held),
				Error:         fmt.Sprint(r),
			}
		}
	}()

	for i := 0; i < arrays; i++ {
		arr := make([]float64, size)
		for j := range arr {
			arr[j] = rand.Float64()
		}
		held = append(held, arr)
	}

	sum := 0.0
	for _, arr := range held {
		for _, v := range arr {
			sum += v
		}
	}

	bytes := int64(arrays) * int64(size) * 8
	return HeapStressResult{
		MemoryUsed:    fmt.Sprintf("%dMB (approximate)", bytes/(1024*1024)),
		ArraysCreated: len(held),
		TotalSum:      sum,
	}
}

// StackDepthResult describes a StackDepth call.
type StackDepthResult struct {
	Depth   int     `json:"depth"`
	Result  float64 `json:"result"`
	Success bool    `json:"success"`
}

// StackDepth recurses maxDepth frames deep doing a little math per frame.
// Go stacks grow on demand, so this exercises stack growth rather than
// overflowing.
func StackDepth(maxDepth int) StackDepthResult {
	if maxDepth < 0 {
		maxDepth = 0
	}
	deepest := 0

	var recurse func(depth int) float64
	recurse = func(depth int) float64 {
		if depth > deepest {
			deepest = depth
		}
		if depth >= maxDepth {
			return float64(depth)
		}
		local := math.Sqrt(float64(depth)) + math.Sin(float64(depth))
		return recurse(depth+1) + local
	}

	result := recurse(0)
	return StackDepthResult{Depth: deepest, Result: result, Success: true}
}

// DeepRecursion returns levels + Σ(i² + √(i+1)) for i in [0, levels).
func DeepRecursion(levels int) float64 {
	return deepRecursion(levels, 0)
}

func deepRecursion(levels, current int) float64 {
	if current >= levels {
		return float64(current)
	}
	c := float64(current)
	return c*c + math.Sqrt(c+1) + deepRecursion(levels, current+1)
}

// ProcessingDelay sleeps for a random duration in [min, max] and returns it.
// It returns ctx.Err() if ctx ends first.
func ProcessingDelay(ctx context.Context, min, max time.Duration) (time.Duration, error) {
	if max < min {
		min, max = max, min
	}
	delay := min
	if span := int64(max - min); span > 0 {
		delay += time.Duration(rand.Int63n(span + 1))
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-timer.C:
		return delay, nil
	}
}
