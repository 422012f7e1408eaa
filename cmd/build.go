package cmd

import (
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// Build (or load from the cache) the hierarchy for each mesh argument and
// display its statistics.
func BuildHierarchy(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	if ctx.NArg() == 0 {
		return errors.New("missing mesh file argument")
	}

	for idx := 0; idx < ctx.NArg(); idx++ {
		meshFile := ctx.Args().Get(idx)
		logger.Noticef("building hierarchy for mesh: %s", meshFile)

		m, tr, err := loadTracer(ctx, meshFile)
		if err != nil {
			return err
		}

		logger.Noticef("mesh %q: %d triangles, %d materials", m.Name, len(m.Triangles), len(m.Materials))
		logger.Noticef("hierarchy information:\n%s", tr.Hierarchy().Stats())
	}

	return nil
}
