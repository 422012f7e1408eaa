package cmd

import (
	"context"
	"math/rand"
	"os"
	"os/signal"

	"github.com/achilleasa/bvhtrace/tracer"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// Trace a batch of random rays through a mesh and display throughput
// statistics.
func Benchmark(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	if ctx.NArg() != 1 {
		return errors.New("missing mesh file argument")
	}
	if ctx.Int("rays") <= 0 {
		return errors.New("ray count must be positive")
	}

	m, tr, err := loadTracer(ctx, ctx.Args().First())
	if err != nil {
		return err
	}

	batch, err := tracer.NewBatch(tr, tracer.BatchOptions{
		Workers: ctx.Int("workers"),
		Segment: ctx.Bool("segment"),
	})
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rng := rand.New(rand.NewSource(ctx.Int64("seed")))
	rays := tracer.RandomRays(rng, m.Bounds(), ctx.Int("rays"))
	hits := make([]tracer.Hit, len(rays))

	// Later passes let the scheduler rebalance blocks using the timings of
	// the previous pass.
	for pass := 0; pass < ctx.Int("passes"); pass++ {
		stats, err := batch.Run(runCtx, rays, hits)
		if err != nil {
			return err
		}
		logger.Noticef("pass %d statistics\n%s", pass, stats)
	}

	logger.Noticef("traced %d rays in total", tr.RayCount())
	return nil
}
