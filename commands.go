package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/df07/go-octree-pathtracer/pkg/config"
	"github.com/df07/go-octree-pathtracer/pkg/loaders"
	"github.com/df07/go-octree-pathtracer/pkg/logger"
	"github.com/df07/go-octree-pathtracer/pkg/renderer"
	"github.com/df07/go-octree-pathtracer/pkg/scene"
	"github.com/olekukonko/tablewriter"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

var errNoScene = errors.New("missing scene file argument (or --builtin NAME)")

// loadConfig layers the config file and the command flags over the defaults
// and initializes the global logger from the result.
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx.String("config"), config.Overrides{
		Threads:   ctx.Int("threads"),
		BlockSize: ctx.Int("block-size"),
		Samples:   ctx.Int("spp"),
		NoPreview: ctx.Bool("no-gui"),
		OutputDir: ctx.String("out"),
		LogLevel:  ctx.String("log-level"),
		LogFile:   ctx.String("log-file"),
	})
	if err != nil {
		return nil, err
	}

	fileCfg := logger.FileConfig{}
	if cfg.Logging.File != "" {
		fileCfg = logger.DefaultFileConfig(cfg.Logging.File)
		fileCfg.MaxSizeMB = cfg.Logging.MaxSizeMB
		fileCfg.MaxBackups = cfg.Logging.MaxBackups
		fileCfg.MaxAgeDays = cfg.Logging.MaxAgeDays
	}
	if err := logger.InitWithFileConfig(cfg.Logging.Level, fileCfg, true); err != nil {
		return nil, err
	}
	return cfg, nil
}

func logHostInfo(cfg *config.Config) {
	fields := []zap.Field{zap.Int("workers", cfg.Render.Workers())}
	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		fields = append(fields, zap.String("cpu", strings.TrimSpace(infos[0].ModelName)))
	}
	if cores, err := cpu.Counts(false); err == nil {
		fields = append(fields, zap.Int("physicalCores", cores))
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		fields = append(fields,
			zap.Uint64("memoryTotalMB", vm.Total>>20),
			zap.Uint64("memoryAvailableMB", vm.Available>>20),
		)
	}
	logger.Info("host", fields...)
}

// loadScene loads the scene named on the command line. The returned name is
// used for the output file.
func loadScene(ctx *cli.Context) (*scene.Scene, string, error) {
	sceneLoader := loaders.NewSceneLoader(nil, logger.Log)

	if id := ctx.String("builtin"); id != "" {
		s, err := sceneLoader.LoadBuiltin(id)
		return s, id, err
	}
	if ctx.NArg() != 1 {
		return nil, "", errNoScene
	}

	path := ctx.Args().First()
	s, err := sceneLoader.Load(path)
	return s, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)), err
}

func activate(ctx context.Context, s *scene.Scene, cfg *config.Config) error {
	opts := scene.DefaultOptions()
	opts.Accel = cfg.Accel.AccelOptions()

	start := time.Now()
	if err := s.Activate(ctx, opts); err != nil {
		return fmt.Errorf("activating scene: %w", err)
	}
	logger.Info("scene activated", zap.Duration("elapsed", time.Since(start)))
	return nil
}

func renderCommand(ctx *cli.Context, out io.Writer) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	logHostInfo(cfg)

	s, name, err := loadScene(ctx)
	if err != nil {
		return err
	}
	if cfg.Output.Name != "" {
		name = cfg.Output.Name
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := activate(runCtx, s, cfg); err != nil {
		return err
	}

	r := renderer.New(s, cfg.Render.RendererOptions(), logger.Log)
	if cfg.Render.Preview {
		r.OnProgress(progressLogger())
	}

	bitmap, stats, err := r.Render(runCtx)
	if err != nil {
		return fmt.Errorf("rendering: %w", err)
	}
	stats.WriteTable(out)

	if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	path := filepath.Join(cfg.Output.Dir, name+".png")
	if err := bitmap.SavePNG(path, cfg.Output.Exposure); err != nil {
		return fmt.Errorf("saving image: %w", err)
	}
	logger.Info("image written", zap.String("path", path))
	return nil
}

// progressLogger logs every tenth of the image
func progressLogger() func(renderer.Progress) {
	lastDecile := 0
	return func(p renderer.Progress) {
		decile := int(p.Fraction() * 10)
		if decile <= lastDecile {
			return
		}
		lastDecile = decile
		logger.Info("progress",
			zap.String("done", fmt.Sprintf("%d%%", decile*10)),
			zap.Int("blocks", p.Completed),
			zap.Int("total", p.Total),
			zap.Duration("elapsed", p.Elapsed.Round(time.Millisecond)),
		)
	}
}

func infoCommand(ctx *cli.Context, out io.Writer) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	s, name, err := loadScene(ctx)
	if err != nil {
		return err
	}
	if err := activate(context.Background(), s, cfg); err != nil {
		return err
	}

	writeSceneTable(out, name, s)
	return nil
}

func writeSceneTable(out io.Writer, name string, s *scene.Scene) {
	width, height := s.Camera().OutputSize()
	stats := s.Accel().Stats()
	bounds := s.Bounds()

	table := tablewriter.NewWriter(out)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader([]string{"Scene", name})
	table.Append([]string{"Resolution", fmt.Sprintf("%dx%d", width, height)})
	table.Append([]string{"Integrator", fmt.Sprintf("%T", s.Integrator())})
	table.Append([]string{"Samples per pixel", fmt.Sprintf("%d", s.Sampler().SampleCount())})
	table.Append([]string{"Meshes", fmt.Sprintf("%d", len(s.Meshes()))})
	table.Append([]string{"Triangles", fmt.Sprintf("%d", s.TriangleCount())})
	table.Append([]string{"Emitters", fmt.Sprintf("%d", len(s.Emitters()))})
	table.Append([]string{"Bounds", fmt.Sprintf("%v - %v", bounds.Min, bounds.Max)})
	table.Append([]string{"Octree nodes", fmt.Sprintf("%d (%d leaves)", stats.Nodes, stats.Leaves)})
	table.Append([]string{"Octree depth", fmt.Sprintf("%d (avg %.2f)", stats.MaxDepth, stats.AvgDepth)})
	table.Append([]string{"Leaf references", fmt.Sprintf("%d (%.2fx, max %d per leaf)", stats.References, stats.Duplication, stats.MaxLeafSize)})
	table.Render()
}

func scenesCommand(ctx *cli.Context, out io.Writer) error {
	dir := "scenes"
	if ctx.NArg() > 0 {
		dir = ctx.Args().First()
	}

	groups, err := scene.ListAllScenes(dir, logger.Log)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(out)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Group", "ID", "Name", "Description"})
	for _, group := range groups {
		for _, info := range group.Scenes {
			id := info.ID
			if info.Type == "file" {
				id = info.FilePath
			}
			table.Append([]string{group.Name, id, info.Name, info.Description})
		}
	}
	table.Render()
	return nil
}
