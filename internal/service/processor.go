package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"example/captioner/internal/model"
)

const (
	ImagePattern = "*.jpg"

	DefaultProgressInterval = 4 * time.Second
)

// ErrUnsafeCaption marks a caption that would place the output file outside
// the destination directory.
var ErrUnsafeCaption = errors.New("caption is not usable as a file name")

type ImageProcessor struct {
	analyzer Analyzer
	logger   *log.Logger

	// ProgressInterval controls how often progress is logged; zero or
	// negative disables the progress log.
	ProgressInterval time.Duration
}

// NewImageProcessor returns a processor writing its console output to
// logger, or to the standard logger when logger is nil.
func NewImageProcessor(analyzer Analyzer, logger *log.Logger) *ImageProcessor {
	if logger == nil {
		logger = log.Default()
	}
	return &ImageProcessor{
		analyzer:         analyzer,
		logger:           logger,
		ProgressInterval: DefaultProgressInterval,
	}
}

// ProcessImages captions every image in sourceDir, one at a time, and copies
// each captioned image into destDir as "{position}-{caption}.jpg". Per-file
// failures are recorded in the report; only enumeration, destination setup
// and cancellation return an error.
func (p *ImageProcessor) ProcessImages(ctx context.Context, sourceDir, destDir string) (*model.Report, error) {
	images, err := ListImages(sourceDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating destination %s: %w", destDir, err)
	}

	report := &model.Report{}
	var processedCount atomic.Int32
	totalCount := len(images)
	done := make(chan struct{})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		p.logProgress(gctx, done, &processedCount, totalCount)
		return nil
	})

	g.Go(func() error {
		defer close(done)
		for i, imagePath := range images {
			if err := gctx.Err(); err != nil {
				return fmt.Errorf("stopped after %d of %d images: %w", i, totalCount, err)
			}
			report.Add(p.processImage(gctx, i+1, imagePath, destDir))
			processedCount.Add(1)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return report, err
	}
	return report, nil
}

func (p *ImageProcessor) logProgress(ctx context.Context, done <-chan struct{}, processed *atomic.Int32, total int) {
	if p.ProgressInterval <= 0 || total == 0 {
		return
	}
	ticker := time.NewTicker(p.ProgressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			n := processed.Load()
			if int(n) < total {
				p.logger.Printf("progress: %d/%d (%.1f%%)", n, total, float64(n)/float64(total)*100)
			}
		}
	}
}

func (p *ImageProcessor) processImage(ctx context.Context, position int, imagePath, destDir string) model.Outcome {
	outcome := model.Outcome{Position: position, Source: imagePath}
	fail := func(err error) model.Outcome {
		p.logger.Printf("Error processing %s: %v", imagePath, err)
		outcome.Status = model.StatusFailed
		outcome.Err = err
		return outcome
	}

	p.logger.Printf("Analyzing %s", imagePath)

	imageBytes, err := os.ReadFile(imagePath)
	if err != nil {
		return fail(err)
	}

	result, err := p.analyzer.Analyze(ctx, imageBytes)
	if err != nil {
		return fail(err)
	}

	caption, ok := result.First()
	if !ok {
		outcome.Status = model.StatusNoCaption
		return outcome
	}
	outcome.Caption = caption.Text
	p.logger.Printf("Description: %s", caption.Text)

	name, err := OutputName(position, caption.Text)
	if err != nil {
		return fail(err)
	}
	destination := filepath.Join(destDir, name)
	if err := copyFile(imagePath, destination); err != nil {
		return fail(err)
	}

	outcome.Status = model.StatusCopied
	outcome.Destination = destination
	p.logger.Printf("File copied and renamed to %s", destination)
	return outcome
}

// OutputName builds "{position}-{caption}.jpg". The caption is used
// verbatim; captions containing path separators or NUL are rejected.
func OutputName(position int, caption string) (string, error) {
	if strings.ContainsAny(caption, "/\\\x00") {
		return "", fmt.Errorf("%w: %q", ErrUnsafeCaption, caption)
	}
	return fmt.Sprintf("%d-%s.jpg", position, caption), nil
}

// ListImages returns the files directly under dir matching ImagePattern,
// sorted by name. The match is case-sensitive.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing images in %s: %w", dir, err)
	}

	var images []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ok, _ := filepath.Match(ImagePattern, e.Name()); ok {
			images = append(images, filepath.Join(dir, e.Name()))
		}
	}
	return images, nil
}

// copyFile copies src to dst, replacing any existing file at dst.
func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}
	return nil
}
