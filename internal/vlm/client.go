// Package vlm captions images with an OpenAI-compatible vision model.
package vlm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"example/captioner/internal/model"
)

const (
	provider  = "openai"
	maxTokens = 300
)

const instruction = `Write captions for this photo. Return up to three short
lowercase English phrases, most likely first, each with a confidence between
0 and 1. Return an empty list if the photo cannot be described.`

type Client struct {
	client *openai.Client
	logger *log.Logger
	Model  string
}

// NewClient builds a client for the given model. An empty baseURL uses the
// OpenAI API; a nil logger uses the standard logger.
func NewClient(baseURL, apiKey, model string, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Default()
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(opts...)
	return &Client{
		client: &client,
		logger: logger,
		Model:  model,
	}
}

// CaptionSchema is the structured output schema the model must follow.
func CaptionSchema() any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v model.AnalysisResult
	return reflector.Reflect(v)
}

func (c *Client) Analyze(ctx context.Context, image []byte) (*model.AnalysisResult, error) {
	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)

	content := []openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(instruction),
		openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: dataURL,
		}),
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(content),
		},
		MaxTokens: openai.Int(maxTokens),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        "image_captions",
					Description: openai.String("Ranked captions describing a photo"),
					Schema:      CaptionSchema(),
					Strict:      openai.Bool(true),
				},
			},
		},
	}

	response, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, &model.ServiceError{Provider: provider, Err: err}
	}
	if len(response.Choices) == 0 {
		return nil, &model.ServiceError{Provider: provider, Message: "response has no choices"}
	}

	c.logger.Printf("[vlm] model=%s tokens=%d", c.Model, response.Usage.TotalTokens)
	return ParseCaptions(response.Choices[0].Message.Content)
}

func ParseCaptions(content string) (*model.AnalysisResult, error) {
	var out model.AnalysisResult
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, &model.ServiceError{
			Provider: provider,
			Message:  "malformed response",
			Err:      fmt.Errorf("decode captions: %w", err),
		}
	}
	out.SortByConfidence()
	return &out, nil
}
