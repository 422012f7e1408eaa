package cmd

import (
	"context"
	"math/rand"

	"github.com/achilleasa/bvhtrace/tracer"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// Max number of mismatching rays to report.
const maxReportedMismatches = 10

// Compare the BVH tracer results for a set of random rays against a brute
// force tracer.
func VerifyHierarchy(ctx *cli.Context) error {
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

	rng := rand.New(rand.NewSource(ctx.Int64("seed")))
	rays := tracer.RandomRays(rng, m.Bounds(), ctx.Int("rays"))
	segment := ctx.Bool("segment")
	mismatches, err := tracer.Compare(context.Background(), tracer.NewBruteForce(tr.Triangles()), tr, rays, segment, float32(ctx.Float64("tolerance")))
	if err != nil {
		return err
	}

	if len(mismatches) == 0 {
		logger.Noticef("all %d rays match the brute force results", len(rays))
		return nil
	}

	for idx, mm := range mismatches {
		if idx == maxReportedMismatches {
			logger.Warningf("... and %d more", len(mismatches)-idx)
			break
		}
		logger.Warningf("ray %d: expected triangle %d at t=%f; got triangle %d at t=%f",
			mm.RayIndex, mm.Expected.Index, mm.Expected.T, mm.Got.Index, mm.Got.T)
	}
	return errors.Errorf("%d out of %d rays do not match the brute force results", len(mismatches), len(rays))
}
