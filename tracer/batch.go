package tracer

import (
	"bytes"
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/achilleasa/bvhtrace/log"
	"github.com/achilleasa/bvhtrace/types"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/sync/errgroup"
)

// Workers check for cancellation after tracing this many rays.
const cancelCheckInterval = 1024

// A Ray to be traced as part of a batch.
type Ray struct {
	Origin types.Vec3
	Dir    types.Vec3
}

type BatchOptions struct {
	// Number of goroutines tracing rays. Defaults to the number of CPUs.
	Workers int

	// Trace rays as segments (see Raycaster.RaycastSegment).
	Segment bool

	// The scheduler used for splitting batches into blocks. Defaults
	// to the perfect scheduler.
	Scheduler BlockScheduler
}

// Per-worker statistics for a traced batch.
type WorkerStat struct {
	Worker int

	// The traced block and the number of rays that hit a triangle.
	Start int
	Rays  int
	Hits  int

	// Time spent tracing the block.
	Time time.Duration
}

type BatchStats struct {
	Workers []WorkerStat

	Rays int
	Hits int

	// Wall clock time for the entire batch.
	Time time.Duration
}

// Get the batch throughput in rays per second.
func (st BatchStats) RaysPerSecond() float64 {
	if st.Time <= 0 {
		return 0
	}
	return float64(st.Rays) / st.Time.Seconds()
}

// Get the fraction of rays that hit a triangle.
func (st BatchStats) HitRatio() float64 {
	if st.Rays == 0 {
		return 0
	}
	return float64(st.Hits) / float64(st.Rays)
}

// Build a tabular representation of batch statistics.
func (st BatchStats) String() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Worker", "Rays", "% of batch", "Hits", "Trace time"})
	for _, ws := range st.Workers {
		var percent float64
		if st.Rays > 0 {
			percent = 100 * float64(ws.Rays) / float64(st.Rays)
		}
		table.Append([]string{
			fmt.Sprint(ws.Worker),
			fmt.Sprint(ws.Rays),
			fmt.Sprintf("%02.1f %%", percent),
			fmt.Sprint(ws.Hits),
			fmt.Sprintf("%s", ws.Time),
		})
	}
	table.SetFooter([]string{
		"TOTAL",
		fmt.Sprint(st.Rays),
		fmt.Sprintf("%.0f rays/s", st.RaysPerSecond()),
		fmt.Sprintf("%.1f %%", 100*st.HitRatio()),
		fmt.Sprintf("%s", st.Time),
	})

	table.Render()
	return buf.String()
}

// A Batch traces slices of rays on a pool of goroutines. Each worker
// traces one contiguous block of the batch; block sizes are re-balanced
// between runs using the configured scheduler. A Batch must not be run
// concurrently with itself.
type Batch struct {
	logger log.Logger
	rc     Raycaster
	opts   BatchOptions
	last   []WorkerStat
}

// Create a batch runner for a raycaster.
func NewBatch(rc Raycaster, opts BatchOptions) (*Batch, error) {
	if opts.Workers < 0 {
		return nil, ErrInvalidWorkerCount
	}
	if opts.Workers == 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Scheduler == nil {
		opts.Scheduler = NewPerfectScheduler()
	}

	return &Batch{
		logger: log.New("batch"),
		rc:     rc,
		opts:   opts,
	}, nil
}

// Trace rays and store the result for rays[i] in hits[i]. Cancelling ctx
// stops all workers and returns the context error.
func (b *Batch) Run(ctx context.Context, rays []Ray, hits []Hit) (BatchStats, error) {
	var stats BatchStats
	if len(hits) != len(rays) {
		return stats, ErrResultSizeMismatch
	}
	if len(rays) == 0 {
		return stats, nil
	}

	workers := b.opts.Workers
	if workers > len(rays) {
		workers = len(rays)
	}
	blocks := b.opts.Scheduler.Schedule(workers, len(rays), b.last)

	stats.Rays = len(rays)
	stats.Workers = make([]WorkerStat, workers)

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	offset := 0
	for idx, blockLen := range blocks {
		ws := &stats.Workers[idx]
		ws.Worker = idx
		ws.Start = offset
		ws.Rays = blockLen
		offset += blockLen

		g.Go(func() error {
			return b.traceBlock(gctx, ws, rays, hits)
		})
	}
	err := g.Wait()
	stats.Time = time.Since(start)
	if err != nil {
		return stats, err
	}

	for _, ws := range stats.Workers {
		stats.Hits += ws.Hits
	}
	b.last = stats.Workers

	b.logger.Debugf("traced %d rays in %d ms using %d workers", stats.Rays, stats.Time.Nanoseconds()/1e6, workers)
	return stats, nil
}

func (b *Batch) traceBlock(ctx context.Context, ws *WorkerStat, rays []Ray, hits []Hit) error {
	start := time.Now()
	defer func() {
		ws.Time = time.Since(start)
	}()

	end := ws.Start + ws.Rays
	for i := ws.Start; i < end; i++ {
		if (i-ws.Start)%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		if b.opts.Segment {
			hits[i] = b.rc.RaycastSegment(rays[i].Origin, rays[i].Dir)
		} else {
			hits[i] = b.rc.Raycast(rays[i].Origin, rays[i].Dir)
		}
		if hits[i].Ok() {
			ws.Hits++
		}
	}
	return nil
}
