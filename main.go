package main

import (
	"os"

	"github.com/achilleasa/bvhtrace/cmd"
	"github.com/achilleasa/bvhtrace/log"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "bvhtrace"
	app.Usage = "build bounding volume hierarchies for triangle meshes and trace rays through them"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "log-level",
			Value: "notice",
			Usage: "log level (debug, info, notice, warning, error); -v and -vv take precedence",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "build",
			Usage: "build the BVH for one or more meshes",
			Description: `
Parse wavefront obj or gltf/glb meshes, build a BVH for each one and display
the hierarchy statistics.

Built hierarchies are stored in the cache folder keyed by a checksum of the
mesh vertices so that other commands can reuse them.`,
			ArgsUsage: "mesh_file1.obj mesh_file2.glb ...",
			Flags:     append([]cli.Flag{cmd.CacheFlag}, cmd.BuildFlags()...),
			Action:    cmd.BuildHierarchy,
		},
		{
			Name:      "info",
			Usage:     "display statistics for the cached BVH of a mesh",
			ArgsUsage: "mesh_file",
			Flags:     []cli.Flag{cmd.CacheFlag},
			Action:    cmd.ShowHierarchyInfo,
		},
		{
			Name:  "bench",
			Usage: "trace random rays through a mesh and report throughput",
			Description: `
Generate a batch of random rays crossing the mesh bounds and trace them using
a pool of workers. Each pass after the first rebalances the work between
workers using the timings of the previous pass.`,
			ArgsUsage: "mesh_file",
			Flags: append([]cli.Flag{
				cmd.CacheFlag,
				cli.IntFlag{
					Name:  "rays",
					Value: 1000000,
					Usage: "number of rays to trace per pass",
				},
				cli.IntFlag{
					Name:  "passes",
					Value: 3,
					Usage: "number of passes",
				},
				cli.IntFlag{
					Name:  "workers",
					Value: 0,
					Usage: "number of tracing workers; 0 uses one worker per CPU",
				},
				cli.Int64Flag{
					Name:  "seed",
					Value: 1,
					Usage: "seed for the ray generator",
				},
				cli.BoolFlag{
					Name:  "segment",
					Usage: "trace rays as segments",
				},
			}, cmd.BuildFlags()...),
			Action: cmd.Benchmark,
		},
		{
			Name:  "verify",
			Usage: "compare BVH traversal results against a brute force tracer",
			Description: `
Trace random rays through the mesh with both the BVH tracer and a tracer that
tests every triangle and report any rays whose results differ. The hierarchy
is always rebuilt.`,
			ArgsUsage: "mesh_file",
			Flags: append([]cli.Flag{
				cli.IntFlag{
					Name:  "rays",
					Value: 10000,
					Usage: "number of rays to compare",
				},
				cli.Int64Flag{
					Name:  "seed",
					Value: 1,
					Usage: "seed for the ray generator",
				},
				cli.Float64Flag{
					Name:  "tolerance",
					Value: 0,
					Usage: "relative tolerance when comparing hit distances",
				},
				cli.BoolFlag{
					Name:  "segment",
					Usage: "trace rays as segments",
				},
			}, cmd.BuildFlags()...),
			Action: cmd.VerifyHierarchy,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.New("bvhtrace").Error(err)
		os.Exit(1)
	}
}
