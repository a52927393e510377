// Package gateway sends compiled generation payloads to the generation
// endpoint and maps its failures onto typed errors.
package gateway

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

const defaultMaxResponseBytes = 64 << 20

type Options struct {
	URL              string
	HTTPClient       *http.Client
	Logger           *slog.Logger
	MaxResponseBytes int64
}

type Client struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
	maxBytes   int64
}

func New(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	maxBytes := opts.MaxResponseBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxResponseBytes
	}
	return &Client{
		url:        strings.TrimSpace(opts.URL),
		httpClient: httpClient,
		logger:     logger,
		maxBytes:   maxBytes,
	}
}

// Response is the endpoint's JSON answer: exactly one of Image or Error.
type Response struct {
	Image string `json:"image,omitempty"`
	Error string `json:"error,omitempty"`
}

// Send performs one generation call. It never retries.
func (c *Client) Send(ctx context.Context, p Payload) (media.Image, error) {
	if c.url == "" {
		return media.Image{}, errors.New("generation endpoint url is empty")
	}
	body, err := json.Marshal(p)
	if err != nil {
		return media.Image{}, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return media.Image{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("content-type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("generation request failed", "err", err, "payload_bytes", len(body))
		return media.Image{}, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return media.Image{}, &NetworkError{Err: fmt.Errorf("read response: %w", err)}
	}

	var decoded Response
	jsonErr := json.Unmarshal(raw, &decoded)
	ok := resp.StatusCode >= 200 && resp.StatusCode < 300

	message := ""
	if jsonErr == nil {
		message = strings.TrimSpace(decoded.Error)
	}

	switch {
	case resp.StatusCode == http.StatusRequestEntityTooLarge, resp.StatusCode == http.StatusGatewayTimeout:
		c.logger.Warn("generation endpoint error", "status", resp.StatusCode, "payload_bytes", len(body))
		return media.Image{}, &TransportError{
			Status:  resp.StatusCode,
			Message: transportMessage(resp.StatusCode, resp.Status),
			Body:    truncate(string(raw), 512),
		}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		c.logger.Warn("generation endpoint rejected request", "status", resp.StatusCode, "message", message)
		msg := transportMessage(resp.StatusCode, resp.Status)
		if message != "" {
			msg += ": " + message
		}
		return media.Image{}, &TransportError{Status: resp.StatusCode, Message: msg, Body: truncate(string(raw), 512)}
	case message != "":
		c.logger.Warn("generation failed", "status", resp.StatusCode, "message", message)
		return media.Image{}, &GenerationFailedError{Status: resp.StatusCode, Message: message}
	case !ok:
		c.logger.Warn("generation endpoint error", "status", resp.StatusCode, "payload_bytes", len(body))
		return media.Image{}, &TransportError{
			Status:  resp.StatusCode,
			Message: transportMessage(resp.StatusCode, resp.Status),
			Body:    truncate(string(raw), 512),
		}
	case jsonErr != nil:
		return media.Image{}, &TransportError{
			Status:  resp.StatusCode,
			Message: "generation endpoint returned an invalid response",
			Body:    truncate(string(raw), 512),
		}
	case strings.TrimSpace(decoded.Image) == "":
		return media.Image{}, &GenerationFailedError{Status: resp.StatusCode, Message: "the model returned no image"}
	}

	img, err := media.ParseDataURL(decoded.Image)
	if err != nil {
		return media.Image{}, &GenerationFailedError{Status: resp.StatusCode, Message: fmt.Sprintf("undecodable image: %v", err)}
	}
	return img, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
