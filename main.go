package main

import (
	"fmt"
	"io"
	"os"

	"github.com/df07/go-octree-pathtracer/pkg/logger"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

func main() {
	app := newApp(os.Stdout)
	if err := app.Run(os.Args); err != nil {
		logger.Error("command failed", zap.Error(err))
		logger.Sync()
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	logger.Sync()
}

// newApp builds the command-line application. Tables and listings are written
// to out; logs go to stderr and the optional log file.
func newApp(out io.Writer) *cli.App {
	configFlags := []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Usage: "render configuration `FILE` (default: ./render.yaml when present)",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "log level: debug, info, warn or error",
		},
		cli.StringFlag{
			Name:  "log-file",
			Usage: "also write JSON logs to `FILE`, rotated by size",
		},
		cli.IntFlag{
			Name:  "threads, t",
			Usage: "number of render workers (default: logical CPU count)",
		},
		cli.StringFlag{
			Name:  "builtin",
			Usage: "use the built-in scene `NAME` instead of a scene file",
		},
	}

	renderFlags := append([]cli.Flag{
		cli.BoolFlag{
			Name:  "no-gui",
			Usage: "disable progress preview output",
		},
		cli.IntFlag{
			Name:  "spp",
			Usage: "samples per pixel (default: the scene sampler's count)",
		},
		cli.IntFlag{
			Name:  "block-size",
			Usage: "render block edge length in pixels",
		},
		cli.StringFlag{
			Name:  "out, o",
			Usage: "output `DIR` for rendered images",
		},
	}, configFlags...)

	app := cli.NewApp()
	app.Name = "octree-pathtracer"
	app.Usage = "render scenes with an octree accelerated path tracer"
	app.Version = "0.1.0"
	app.Writer = out
	app.Commands = []cli.Command{
		{
			Name:  "render",
			Usage: "render a scene to a PNG image",
			Description: `
Load a YAML scene description, build the octree over its meshes and render it
block by block on a worker pool. The image is written to <out>/<name>.png.`,
			ArgsUsage: "scene.yaml",
			Flags:     renderFlags,
			Action: func(ctx *cli.Context) error {
				return renderCommand(ctx, out)
			},
		},
		{
			Name:      "info",
			Usage:     "load and activate a scene and print a summary",
			ArgsUsage: "scene.yaml",
			Flags:     configFlags,
			Action: func(ctx *cli.Context) error {
				return infoCommand(ctx, out)
			},
		},
		{
			Name:      "scenes",
			Usage:     "list the built-in scenes and the scene files in a directory",
			ArgsUsage: "[dir]",
			Action: func(ctx *cli.Context) error {
				return scenesCommand(ctx, out)
			},
		},
	}
	return app
}
