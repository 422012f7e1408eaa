package cmd

import (
	"time"

	"github.com/achilleasa/bvhtrace/asset/mesh"
	"github.com/achilleasa/bvhtrace/bvh"
	"github.com/achilleasa/bvhtrace/tracer"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// Get the flags shared by all commands that build hierarchies.
func BuildFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "split",
			Value: bvh.SurfaceAreaHeuristic.String(),
			Usage: "split mode used for building the BVH (median or sah)",
		},
		cli.IntFlag{
			Name:  "leaf-size",
			Value: 0,
			Usage: "max number of triangles per leaf; 0 selects the split mode default",
		},
	}
}

// The cache folder flag. An empty value disables caching.
var CacheFlag = cli.StringFlag{
	Name:  "cache",
	Value: ".bvhcache",
	Usage: "folder for storing built hierarchies",
}

// Parse the BVH build options from the command flags.
func buildOptions(ctx *cli.Context) (bvh.Options, error) {
	mode, err := bvh.ParseSplitMode(ctx.String("split"))
	if err != nil {
		return bvh.Options{}, err
	}
	return bvh.Options{
		SplitMode:     mode,
		LeafThreshold: ctx.Int("leaf-size"),
	}, nil
}

// Get the cache selected by the command flags or nil if caching is disabled.
func hierarchyCache(ctx *cli.Context) *bvh.Cache {
	dir := ctx.String("cache")
	if dir == "" {
		return nil
	}
	return bvh.NewCache(dir)
}

// Load a mesh and get a tracer for it, reusing a cached hierarchy when
// possible.
func loadTracer(ctx *cli.Context, meshFile string) (*mesh.Mesh, *tracer.Tracer, error) {
	opts, err := buildOptions(ctx)
	if err != nil {
		return nil, nil, err
	}

	m, err := mesh.ReadMesh(meshFile)
	if err != nil {
		return nil, nil, err
	}

	start := time.Now()
	h, err := bvh.LoadOrBuild(hierarchyCache(ctx), m.Triangles, opts)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "could not build hierarchy for %s", meshFile)
	}
	logger.Noticef("hierarchy for %s ready in %d ms", meshFile, time.Since(start).Nanoseconds()/1e6)

	tr, err := tracer.New(m.Triangles, h)
	if err != nil {
		return nil, nil, err
	}
	return m, tr, nil
}
