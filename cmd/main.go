package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"example/captioner/internal/config"
	"example/captioner/internal/model"
	"example/captioner/internal/service"
)

// newAnalyzer is swapped in tests.
var newAnalyzer = service.NewAnalyzer

type options struct {
	settingsPath     string
	sourceDir        string
	destDir          string
	progressInterval time.Duration
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "captioner",
		Short:         "Caption JPEG images with a vision service and copy them under descriptive names",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			_, err := run(ctx, opts, log.Default())
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.settingsPath, "settings", "s", config.SettingsFile, "Settings file path")
	flags.StringVar(&opts.sourceDir, "source", "", "Directory holding the images (default from settings, else "+config.DefaultSourceDir+")")
	flags.StringVar(&opts.destDir, "dest", "", "Directory receiving the renamed copies (default from settings, else "+config.DefaultDestinationDir+")")
	flags.DurationVar(&opts.progressInterval, "progress-interval", service.DefaultProgressInterval, "How often to log progress, 0 disables")

	return cmd
}

func run(ctx context.Context, opts options, logger *log.Logger) (*model.Report, error) {
	cfg, err := config.Load(opts.settingsPath)
	if err != nil {
		return nil, err
	}

	sourceDir := cfg.SourceDir
	if opts.sourceDir != "" {
		sourceDir = opts.sourceDir
	}
	destDir := cfg.DestinationDir
	if opts.destDir != "" {
		destDir = opts.destDir
	}

	analyzer, err := newAnalyzer(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	processor := service.NewImageProcessor(analyzer, logger)
	processor.ProgressInterval = opts.progressInterval

	report, err := processor.ProcessImages(ctx, sourceDir, destDir)
	if report != nil {
		logger.Printf("processed %d images: %d copied, %d without caption, %d failed",
			report.Total(),
			report.Count(model.StatusCopied),
			report.Count(model.StatusNoCaption),
			report.Count(model.StatusFailed))
	}
	if err != nil {
		return report, err
	}
	logger.Println("Captioning completed successfully.")
	return report, nil
}
