package service

import (
	"context"
	"fmt"
	"log"

	"example/captioner/internal/config"
	"example/captioner/internal/gemini"
	"example/captioner/internal/model"
	"example/captioner/internal/vision"
	"example/captioner/internal/vlm"
)

// Analyzer returns ranked captions for the bytes of one JPEG image.
type Analyzer interface {
	Analyze(ctx context.Context, image []byte) (*model.AnalysisResult, error)
}

// NewAnalyzer builds the analyzer for cfg.Provider. Backends that log write
// to logger.
func NewAnalyzer(ctx context.Context, cfg *config.Config, logger *log.Logger) (Analyzer, error) {
	switch cfg.Provider {
	case config.ProviderAzure:
		return vision.NewClient(cfg.Endpoint, cfg.Key, nil), nil
	case config.ProviderOpenAI:
		return vlm.NewClient(cfg.Endpoint, cfg.Key, cfg.Model, logger), nil
	case config.ProviderGemini:
		client, err := gemini.SetupClient(ctx, cfg.Project, cfg.Location)
		if err != nil {
			return nil, err
		}
		return gemini.NewCaptionAnalyzer(client, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
