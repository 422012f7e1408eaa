package tracer

import "math"

// The BlockScheduler interface is implemented by all block scheduling algorithms.
type BlockScheduler interface {
	// Split a batch of rayCount rays into one contiguous block per
	// worker using feedback collected from the previous batch (nil on the
	// first run).
	//
	// This function returns the number of rays assigned to each worker.
	Schedule(workers, rayCount int, last []WorkerStat) []int
}

// The even scheduler assigns the same number of rays to each worker.
type evenScheduler struct{}

// Create a scheduler that splits batches into equally sized blocks.
func NewEvenScheduler() BlockScheduler {
	return evenScheduler{}
}

// Split rays evenly among workers. Rays that don't divide evenly are
// appended to the first block.
func (evenScheduler) Schedule(workers, rayCount int, _ []WorkerStat) []int {
	blocks := make([]int, workers)
	if workers == 0 {
		return blocks
	}
	for idx := range blocks {
		blocks[idx] = rayCount / workers
	}
	blocks[0] += rayCount % workers
	return blocks
}

// The perfect scheduler assumes that the volume of tracing work between two
// subsequent batches is approximately the same.
type perfectScheduler struct {
	fallback evenScheduler
}

// Create a scheduler that balances blocks using worker throughput measured
// in the previous batch.
func NewPerfectScheduler() BlockScheduler {
	return &perfectScheduler{}
}

// Split rays among workers in proportion to their throughput in the
// previous batch. The throughput of worker w is estimated as
// rays_w / time_w and its block for the next batch as
// (rays_w / time_w) / Σ(rays_i / time_i) * rayCount.
func (sch *perfectScheduler) Schedule(workers, rayCount int, last []WorkerStat) []int {
	// Without usable feedback behave like the even scheduler
	if len(last) != workers || workers == 0 {
		return sch.fallback.Schedule(workers, rayCount, nil)
	}
	var total float64
	for _, stat := range last {
		if stat.Rays == 0 || stat.Time <= 0 {
			return sch.fallback.Schedule(workers, rayCount, nil)
		}
		total += float64(stat.Rays) / float64(stat.Time)
	}

	scaler := float64(rayCount) / total
	blocks := make([]int, workers)
	scheduled := 0
	for idx, stat := range last {
		blocks[idx] = int(math.Max(1.0, math.Floor(float64(stat.Rays)/float64(stat.Time)*scaler)))
		scheduled += blocks[idx]
	}

	// Blocks are at least one ray long which may overshoot the batch
	// size; take the excess from the largest blocks.
	for ; scheduled > rayCount; scheduled-- {
		largest := 0
		for idx := range blocks {
			if blocks[idx] > blocks[largest] {
				largest = idx
			}
		}
		blocks[largest]--
	}

	// In case rays don't add up to the batch size append the missing ones to the first worker
	blocks[0] += rayCount - scheduled
	return blocks
}
