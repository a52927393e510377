// Package endpoint serves the generation endpoint: it accepts a role-slotted
// payload and forwards it to the image model in canonical image order.
package endpoint

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"archviz-studio/internal/gateway"
	"archviz-studio/internal/gemini"
	"archviz-studio/internal/media"
	"archviz-studio/internal/metrics"

	"github.com/gin-gonic/gin"
)

const (
	defaultMaxBodyBytes = 32 << 20
	defaultTimeout      = 170 * time.Second
)

type Generator interface {
	GenerateImage(ctx context.Context, in gemini.GenerateRequest) (gemini.Result, error)
}

type Options struct {
	Generator    Generator
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
	MaxBodyBytes int64
	Timeout      time.Duration
}

type Handler struct {
	gen      Generator
	logger   *slog.Logger
	metrics  *metrics.Metrics
	maxBytes int64
	timeout  time.Duration
}

func New(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New(nil)
	}
	maxBytes := opts.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBodyBytes
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Handler{gen: opts.Generator, logger: logger, metrics: m, maxBytes: maxBytes, timeout: timeout}
}

func (h *Handler) Register(r gin.IRouter) {
	r.POST("/v1/generate", h.generate)
}

func (h *Handler) generate(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.Warn("generation payload too large", "limit", h.maxBytes)
			c.String(http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		c.JSON(http.StatusBadRequest, gateway.Response{Error: "could not read request body"})
		return
	}

	var p gateway.Payload
	if err := json.Unmarshal(body, &p); err != nil {
		c.JSON(http.StatusBadRequest, gateway.Response{Error: "invalid payload: " + err.Error()})
		return
	}
	if p.Image.IsZero() {
		c.JSON(http.StatusBadRequest, gateway.Response{Error: "image is required"})
		return
	}

	ordered := p.Ordered()
	images := make([]media.Image, 0, len(ordered))
	for _, a := range ordered {
		images = append(images, a.Image)
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	start := time.Now()
	res, err := h.gen.GenerateImage(ctx, gemini.GenerateRequest{
		Prompt:      p.AdditionalPrompt,
		Images:      images,
		AspectRatio: p.AspectRatio,
		ImageSize:   p.ImageSize,
	})
	h.metrics.UpstreamDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		h.respondError(c, err, res)
		return
	}
	h.metrics.UpstreamRequests.WithLabelValues("ok").Inc()
	c.JSON(http.StatusOK, gateway.Response{Image: res.Images[0].DataURL()})
}

func (h *Handler) respondError(c *gin.Context, err error, res gemini.Result) {
	var apiErr *gemini.APIError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		h.metrics.UpstreamRequests.WithLabelValues("timeout").Inc()
		h.logger.Warn("image model timed out", "timeout", h.timeout)
		c.String(http.StatusGatewayTimeout, "gateway timeout")
	case errors.Is(err, gemini.ErrNoImage):
		h.metrics.UpstreamRequests.WithLabelValues("no_image").Inc()
		msg := "the model returned no image"
		if res.BlockReason != "" {
			msg += " (blocked: " + res.BlockReason + ")"
		} else if res.Text != "" {
			msg += ": " + res.Text
		}
		c.JSON(http.StatusOK, gateway.Response{Error: msg})
	case errors.As(err, &apiErr):
		h.metrics.UpstreamRequests.WithLabelValues("api_error").Inc()
		h.logger.Error("image model error", "status", apiErr.Status, "err", err)
		c.JSON(http.StatusBadGateway, gateway.Response{Error: apiErr.Error()})
	default:
		h.metrics.UpstreamRequests.WithLabelValues("error").Inc()
		h.logger.Error("image model call failed", "err", err)
		c.JSON(http.StatusBadGateway, gateway.Response{Error: err.Error()})
	}
}
