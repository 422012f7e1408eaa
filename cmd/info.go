package cmd

import (
	"github.com/achilleasa/bvhtrace/asset/mesh"
	"github.com/achilleasa/bvhtrace/scene"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// Display the statistics of the cached hierarchy for a mesh.
func ShowHierarchyInfo(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	if ctx.NArg() != 1 {
		return errors.New("missing mesh file argument")
	}

	cache := hierarchyCache(ctx)
	if cache == nil {
		return errors.New("a cache folder is required")
	}

	meshFile := ctx.Args().First()
	m, err := mesh.ReadMesh(meshFile)
	if err != nil {
		return err
	}

	checksum := scene.Checksum(m.Triangles)
	h, err := cache.Load(checksum, m.Triangles)
	if err != nil {
		return err
	}

	logger.Noticef("cached hierarchy %s\n%s", cache.Path(checksum), h.Stats())
	return nil
}
