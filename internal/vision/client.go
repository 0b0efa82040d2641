// Package vision talks to the Azure Computer Vision analyze endpoint.
package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"example/captioner/internal/model"
)

const (
	provider    = "azure"
	analyzePath = "vision/v3.2/analyze"
	keyHeader   = "Ocp-Apim-Subscription-Key"

	FeatureDescription = "Description"
)

// Client requests image descriptions from a Computer Vision resource.
type Client struct {
	httpClient *http.Client
	endpoint   string
	key        string
}

type analyzeResponse struct {
	Description *struct {
		Tags     []string        `json:"tags"`
		Captions []model.Caption `json:"captions"`
	} `json:"description"`
	RequestID string `json:"requestId"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error *errorBody `json:"error"`
	errorBody
}

// NewClient binds a client to endpoint and key. A nil httpClient uses
// http.DefaultClient, so the transport default timeout applies.
func NewClient(endpoint, key string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		endpoint:   strings.TrimRight(endpoint, "/"),
		key:        key,
	}
}

// Analyze sends the image bytes with only the description feature selected.
func (c *Client) Analyze(ctx context.Context, image []byte) (*model.AnalysisResult, error) {
	u, err := url.Parse(c.endpoint + "/" + analyzePath)
	if err != nil {
		return nil, &model.ServiceError{Provider: provider, Message: "invalid endpoint", Err: err}
	}
	q := u.Query()
	q.Set("visualFeatures", FeatureDescription)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(image))
	if err != nil {
		return nil, &model.ServiceError{Provider: provider, Message: "create request", Err: err}
	}
	req.Header.Set(keyHeader, c.key)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &model.ServiceError{Provider: provider, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &model.ServiceError{Provider: provider, StatusCode: resp.StatusCode, Message: "read response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp.StatusCode, body)
	}

	var ar analyzeResponse
	if err := json.Unmarshal(body, &ar); err != nil {
		return nil, &model.ServiceError{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Message:    "malformed response",
			Err:        fmt.Errorf("decode analyze response: %w", err),
		}
	}

	result := &model.AnalysisResult{}
	if ar.Description != nil {
		result.Captions = ar.Description.Captions
	}
	return result, nil
}

func decodeError(status int, body []byte) error {
	se := &model.ServiceError{Provider: provider, StatusCode: status}

	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil {
		eb := er.errorBody
		if er.Error != nil {
			eb = *er.Error
		}
		se.Code = eb.Code
		se.Message = eb.Message
	}
	if se.Message == "" {
		se.Message = http.StatusText(status)
	}
	return se
}
