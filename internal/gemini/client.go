package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"archviz-studio/internal/media"
)

const defaultModel = "gemini-3-pro-image-preview"

var ErrNoImage = errors.New("gemini: model returned no image")

// APIError is a non-success answer from the Gemini API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gemini API %d: %s", e.Status, e.Body)
}

type Options struct {
	APIKey     string
	BaseURL    string
	APIVersion string
	Model      string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

type Client struct {
	apiKey     string
	baseURL    string
	apiVersion string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

func New(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}

	apiVersion := strings.TrimSpace(opts.APIVersion)
	if apiVersion == "" {
		apiVersion = "v1beta"
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		apiKey:     opts.APIKey,
		baseURL:    baseURL,
		apiVersion: apiVersion,
		model:      model,
		httpClient: opts.HTTPClient,
		logger:     logger,
	}
}

// GenerateImage sends the instruction followed by each image, labelled with
// its ordinal so "Image #N" in the prompt points at the N-th image.
func (c *Client) GenerateImage(ctx context.Context, in GenerateRequest) (Result, error) {
	prompt := strings.TrimSpace(in.Prompt)
	if prompt == "" {
		return Result{}, errors.New("prompt is empty")
	}

	req := generateContentRequest{
		Contents: []content{{Role: "user", Parts: buildParts(prompt, in.Images)}},
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"IMAGE", "TEXT"},
		},
	}
	if in.AspectRatio != "" || in.ImageSize != "" {
		req.GenerationConfig.ImageConfig = &imageConfig{AspectRatio: in.AspectRatio, ImageSize: in.ImageSize}
	}

	resp, err := c.generateContent(ctx, req)
	if err != nil && req.GenerationConfig.ImageConfig != nil && isUnknownFieldError(err, "imageConfig") {
		c.logger.Warn("gemini rejected imageConfig, retrying without it", "model", c.model)
		req.GenerationConfig.ImageConfig = nil
		resp, err = c.generateContent(ctx, req)
	}
	if err != nil {
		return Result{}, err
	}
	if len(resp.Images) == 0 {
		c.logger.Warn("gemini returned no image", "model", c.model, "text", truncate(resp.Text, 200))
		return resp, ErrNoImage
	}
	return resp, nil
}

func buildParts(prompt string, images []media.Image) []part {
	parts := []part{{Text: prompt}}
	for i, img := range images {
		parts = append(parts,
			part{Text: fmt.Sprintf("Image #%d:", i+1)},
			part{InlineData: &blob{
				Data:     img.Base64(),
				MimeType: media.NormalizeMIMEType(img.MIMEType, img.Data),
			}},
		)
	}
	return parts
}

func (c *Client) generateContent(ctx context.Context, payload generateContentRequest) (Result, error) {
	if c.httpClient == nil {
		return Result{}, errors.New("http client is nil")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/models/%s:generateContent", c.baseURL, c.apiVersion, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("request: %w", err)
	}
	defer httpResp.Body.Close()

	rawBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode >= 400 {
		return Result{}, &APIError{Status: httpResp.StatusCode, Body: strings.TrimSpace(string(rawBody))}
	}

	var decoded generateContentResponse
	if err := json.Unmarshal(rawBody, &decoded); err != nil {
		return Result{}, fmt.Errorf("decode response: %w", err)
	}

	return extractParts(decoded), nil
}

func extractParts(resp generateContentResponse) Result {
	var out Result
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		out.BlockReason = resp.PromptFeedback.BlockReason
	}
	if len(resp.Candidates) == 0 {
		return out
	}

	var textBuilder strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.Text != "" {
			textBuilder.WriteString(p.Text)
		}
		if p.InlineData != nil && p.InlineData.Data != "" {
			img, err := media.ParseDataURL(p.InlineData.Data)
			if err != nil {
				continue
			}
			if p.InlineData.MimeType != "" {
				img.MIMEType = p.InlineData.MimeType
			}
			out.Images = append(out.Images, img)
		}
	}
	out.Text = textBuilder.String()
	out.FinishReason = resp.Candidates[0].FinishReason
	return out
}

func isUnknownFieldError(err error, field string) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return strings.Contains(apiErr.Body, "Unknown name") && strings.Contains(apiErr.Body, field)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
