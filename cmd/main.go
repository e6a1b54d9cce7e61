package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/akamensky/argparse"
	"github.com/chenBenjamin97/ballannotate/pkg/api"
	"github.com/chenBenjamin97/ballannotate/pkg/config"
	"github.com/chenBenjamin97/ballannotate/pkg/dataset"
	"github.com/chenBenjamin97/ballannotate/pkg/dispatch"
	"github.com/chenBenjamin97/ballannotate/pkg/logger"
	"github.com/chenBenjamin97/ballannotate/pkg/storage"
	"github.com/chenBenjamin97/ballannotate/pkg/video"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	parser := argparse.NewParser("ballannotate", "Annotate ball positions in dual-camera frame sequences")
	configFile := parser.String("c", "config", &argparse.Options{Help: "Config file (default: ./config.yaml when present)"})
	logLevel := parser.String("l", "log-level", &argparse.Options{Help: "debug, info, warn or error"})

	runCmd := parser.NewCommand("run", "Discover every left/right folder under the input directory and annotate it")
	runInput := runCmd.String("i", "input", &argparse.Options{Help: "Input root directory"})
	runTables := runCmd.String("t", "tables", &argparse.Options{Help: "Directory aggregated tables are written to"})
	runWorkers := runCmd.Int("w", "workers", &argparse.Options{Help: "Sequences processed in parallel"})
	runMasks := runCmd.Flag("m", "masks", &argparse.Options{Help: "Save cleaned foreground masks for debugging"})
	runPublish := runCmd.Flag("p", "publish", &argparse.Options{Help: "Upload annotations and tables to object storage"})

	serveCmd := parser.NewCommand("serve", "Serve tables, overlays and run control over HTTP")
	servePort := serveCmd.String("p", "port", &argparse.Options{Help: "HTTP port"})

	splitCmd := parser.NewCommand("split", "Cut a frame range out of the left and right tables of a folder")
	splitDir := splitCmd.String("d", "dir", &argparse.Options{Help: "Folder holding one left and one right table", Required: true})
	splitStart := splitCmd.Int("s", "start", &argparse.Options{Help: "First frame, inclusive", Required: true})
	splitEnd := splitCmd.Int("e", "end", &argparse.Options{Help: "Last frame, inclusive", Required: true})
	splitOut := splitCmd.String("o", "output", &argparse.Options{Help: "Output directory (default: <dir>/output)"})

	drawCmd := parser.NewCommand("draw", "Draw the visible boxes of split tables on their frames")
	drawTables := drawCmd.String("t", "tables", &argparse.Options{Help: "Directory of split tables", Required: true})
	drawFrames := drawCmd.String("f", "frames", &argparse.Options{Help: "Root of the split frame folders", Required: true})
	drawOut := drawCmd.String("o", "output", &argparse.Options{Help: "Overlay output root", Required: true})

	if err := parser.Parse(os.Args); err != nil {
		fmt.Fprint(os.Stderr, parser.Usage(err))
		os.Exit(1)
	}

	v := viper.GetViper()
	if err := config.Init(v, *configFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	setIfNotEmpty(v, "log.level", *logLevel)
	setIfNotEmpty(v, "input.dir", *runInput)
	setIfNotEmpty(v, "output.table_dir", *runTables)
	setIfNotEmpty(v, "http.port", *servePort)
	if *runWorkers > 0 {
		v.Set("workers", *runWorkers)
	}
	if *runMasks {
		v.Set("output.masks", true)
	}
	if *runPublish {
		v.Set("storage.publish", true)
	}

	cfg, err := config.Get(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Could not build logger, got '%v'\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case runCmd.Happened():
		report, err := runPipeline(ctx, cfg, log)
		if errors.Is(err, dispatch.ErrInputMissing) {
			log.Fatal("Input directory missing", zap.String("input", cfg.Input.Dir), zap.Error(err))
		}
		if err != nil {
			log.Fatal("Run failed", zap.Error(err))
		}
		if report.Failed > 0 {
			log.Warn("Some sequences failed, see run report", zap.Int("failed", report.Failed), zap.String("report", cfg.Output.Report))
		}

	case serveCmd.Happened():
		server := api.NewServer(ctx, api.Settings{
			InputDir:   cfg.Input.Dir,
			TableDir:   cfg.Output.TableDir,
			ReportPath: cfg.Output.Report,
		}, func(ctx context.Context) (*dispatch.Report, error) {
			return runPipeline(ctx, cfg, log)
		}, log)

		r := server.SetRouter()
		if err := r.Run(":" + cfg.HTTP.Port); err != nil {
			log.Fatal("HTTP server stopped", zap.Error(err))
		}

	case splitCmd.Happened():
		out := *splitOut
		if out == "" {
			out = filepath.Join(*splitDir, "output")
		}
		if _, err := dataset.SplitDir(*splitDir, *splitStart, *splitEnd, out, log); err != nil {
			log.Fatal("Split failed", zap.Error(err))
		}

	case drawCmd.Happened():
		drawn, err := video.DrawDir(*drawTables, *drawFrames, *drawOut)
		if err != nil {
			log.Fatal("Draw failed", zap.Error(err))
		}
		for table, n := range drawn {
			log.Info("Overlays written", zap.String("table", table), zap.Int("frames", n))
		}
	}
}

//runPipeline builds the publisher for this run and executes it
func runPipeline(ctx context.Context, cfg *config.Config, log *zap.Logger) (*dispatch.Report, error) {
	pub, err := storage.NewPublisher(ctx, cfg.StorageConfig())
	if err != nil {
		return nil, err
	}
	if closer, ok := pub.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	return dispatch.Execute(ctx, cfg.RunOptions(pub), log)
}

func setIfNotEmpty(v *viper.Viper, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}
