package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"example/captioner/internal/model"
)

const provider = "gemini"

func SetupClient(ctx context.Context, project, location string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  project,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return client, nil
}

// contentGenerator is the part of genai.Models the analyzer uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// CaptionAnalyzer asks a Gemini model for ranked captions of an image.
type CaptionAnalyzer struct {
	models contentGenerator
	model  string
}

func NewCaptionAnalyzer(client *genai.Client, model string) *CaptionAnalyzer {
	return &CaptionAnalyzer{
		models: client.Models,
		model:  model,
	}
}

func (a *CaptionAnalyzer) Analyze(ctx context.Context, image []byte) (*model.AnalysisResult, error) {
	parts := []*genai.Part{
		{Text: GetPrompt()},
		{InlineData: &genai.Blob{Data: image, MIMEType: "image/jpeg"}},
	}

	result, err := a.models.GenerateContent(
		ctx,
		a.model,
		[]*genai.Content{{Parts: parts}},
		GetConfig())
	if err != nil {
		return nil, &model.ServiceError{Provider: provider, Err: err}
	}

	text, err := result.Text()
	if err != nil {
		return nil, &model.ServiceError{Provider: provider, Message: "empty response", Err: err}
	}
	return ParseCaptions(text)
}

// ParseCaptions decodes the JSON text produced under GetConfig's schema.
func ParseCaptions(text string) (*model.AnalysisResult, error) {
	var out model.AnalysisResult
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, &model.ServiceError{
			Provider: provider,
			Message:  "malformed response",
			Err:      fmt.Errorf("decode captions: %w", err),
		}
	}
	out.SortByConfidence()
	return &out, nil
}

func GetConfig() *genai.GenerateContentConfig {
	responseSchema := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"captions": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"text": {
							Type:        genai.TypeString,
							Description: "one sentence describing the image",
						},
						"confidence": {
							Type:        genai.TypeNumber,
							Description: "confidence between 0 and 1",
						},
					},
					Required: []string{"text", "confidence"},
				},
			},
		},
		Required: []string{"captions"},
	}
	return &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema,
	}
}

func GetPrompt() string {
	return `Describe this photo the way an image captioning service would.

Return up to three candidate captions, most likely first. Each caption is a
short lowercase English phrase without trailing punctuation, for example
"a dog running on the beach". Give each caption a confidence between 0 and 1.
If the image cannot be described, return an empty captions list.`
}
