package cmd

import (
	"github.com/achilleasa/bvhtrace/log"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

var logger = log.New("bvhtrace")

// Apply the global logging flags. The verbosity switches take precedence
// over an explicit level.
func setupLogging(ctx *cli.Context) error {
	if name := ctx.GlobalString("log-level"); name != "" {
		level, err := log.ParseLevel(name)
		if err != nil {
			return errors.Wrap(err, "invalid --log-level")
		}
		log.SetLevel(level)
	}

	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
	return nil
}
