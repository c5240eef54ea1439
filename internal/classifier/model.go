package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Prediction is one label/score pair produced by a model
type Prediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// TextModel scores text and returns every label it knows about
type TextModel interface {
	ClassifyText(ctx context.Context, text string) ([]Prediction, error)
}

// ImageModel scores an encoded image
type ImageModel interface {
	ClassifyImage(ctx context.Context, image []byte, contentType string) ([]Prediction, error)
}

// HTTPModel talks to a Hugging Face style inference server
type HTTPModel struct {
	baseURL string
	model   string
	token   string
	client  *http.Client
}

// NewHTTPModel creates a client for one hosted model
func NewHTTPModel(baseURL, model, token string, timeout time.Duration) *HTTPModel {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPModel{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// Name returns the hosted model id
func (m *HTTPModel) Name() string {
	return m.model
}

// ClassifyText sends {"inputs": text} and asks for every label's score
func (m *HTTPModel) ClassifyText(ctx context.Context, text string) ([]Prediction, error) {
	body, err := json.Marshal(map[string]any{
		"inputs":     text,
		"parameters": map[string]any{"top_k": nil},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return m.post(ctx, bytes.NewReader(body), "application/json")
}

// ClassifyImage sends the raw image bytes
func (m *HTTPModel) ClassifyImage(ctx context.Context, image []byte, contentType string) ([]Prediction, error) {
	return m.post(ctx, bytes.NewReader(image), contentType)
}

func (m *HTTPModel) post(ctx context.Context, body io.Reader, contentType string) ([]Prediction, error) {
	url := fmt.Sprintf("%s/models/%s", m.baseURL, m.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if m.token != "" {
		req.Header.Set("Authorization", "Bearer "+m.token)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call model %s: %w", m.model, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read model response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model %s returned %d: %s", m.model, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	return decodePredictions(raw)
}

// decodePredictions accepts both [{...}] and [[{...}]] response shapes
func decodePredictions(raw []byte) ([]Prediction, error) {
	var flat []Prediction
	if err := json.Unmarshal(raw, &flat); err == nil {
		return flat, nil
	}

	var nested [][]Prediction
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, fmt.Errorf("unexpected model response: %w", err)
	}
	if len(nested) == 0 {
		return nil, nil
	}
	return nested[0], nil
}
