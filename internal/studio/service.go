// Package studio runs one generation end to end: compile, preprocess, send,
// charge, watermark and record.
package studio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"archviz-studio/internal/catalog"
	"archviz-studio/internal/gateway"
	"archviz-studio/internal/history"
	"archviz-studio/internal/imgprep"
	"archviz-studio/internal/media"
	"archviz-studio/internal/metrics"
	"archviz-studio/internal/prompt"
	"archviz-studio/internal/watermark"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var ErrGenerationInProgress = errors.New("a generation is already in progress for this user")

type Sender interface {
	Send(ctx context.Context, p gateway.Payload) (media.Image, error)
}

type Finalizer interface {
	Finalize(ctx context.Context, img media.Image, tier watermark.Tier) media.Image
}

type Enqueuer interface {
	Enqueue(rec history.Record) bool
}

// Credits is charged only after the endpoint returned an image.
type Credits interface {
	Deduct(ctx context.Context, userID string, amount int) error
}

type Options struct {
	Sender    Sender
	Finalizer Finalizer
	History   history.Store
	Recorder  Enqueuer
	Credits   Credits
	Logger    *slog.Logger
	Metrics   *metrics.Metrics

	MaxDimension    int
	JPEGQuality     int
	CostPerGenerate int
	Now             func() time.Time
}

type Service struct {
	sender    Sender
	finalizer Finalizer
	history   history.Store
	recorder  Enqueuer
	credits   Credits
	logger    *slog.Logger
	metrics   *metrics.Metrics

	maxDimension int
	quality      int
	cost         int
	now          func() time.Time

	mu       sync.Mutex
	inflight map[string]struct{}
}

func New(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New(nil)
	}
	maxDim := opts.MaxDimension
	if maxDim <= 0 {
		maxDim = 2048
	}
	quality := opts.JPEGQuality
	if quality <= 0 || quality > 100 {
		quality = 85
	}
	cost := opts.CostPerGenerate
	if cost <= 0 {
		cost = 1
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		sender:       opts.Sender,
		finalizer:    opts.Finalizer,
		history:      opts.History,
		recorder:     opts.Recorder,
		credits:      opts.Credits,
		logger:       logger,
		metrics:      m,
		maxDimension: maxDim,
		quality:      quality,
		cost:         cost,
		now:          now,
		inflight:     make(map[string]struct{}),
	}
}

// Preview compiles the request without sending it.
func (s *Service) Preview(req prompt.Request) (prompt.Compiled, error) {
	c, err := prompt.Compile(req)
	if err != nil {
		return prompt.Compiled{}, err
	}
	s.noteFallbacks(context.Background(), c)
	return c, nil
}

// Generate runs one generation for userID. Persistence is queued and never
// delays the result.
func (s *Service) Generate(ctx context.Context, userID string, tier watermark.Tier, req prompt.Request) (history.Record, error) {
	if !s.acquire(userID) {
		return history.Record{}, ErrGenerationInProgress
	}
	defer s.release(userID)

	start := time.Now()
	mode := req.Mode()
	rec, err := s.generate(ctx, userID, tier, req)
	s.metrics.GenerationDuration.WithLabelValues(string(mode)).Observe(time.Since(start).Seconds())
	s.metrics.Generations.WithLabelValues(string(mode), outcome(err)).Inc()
	if err != nil {
		s.logger.WarnContext(ctx, "generation failed", "user_id", userID, "mode", mode, "err", err)
		return history.Record{}, err
	}
	s.logger.InfoContext(ctx, "generation finished", "user_id", userID, "mode", mode, "id", rec.ID, "duration", time.Since(start))
	return rec, nil
}

func (s *Service) generate(ctx context.Context, userID string, tier watermark.Tier, req prompt.Request) (history.Record, error) {
	compiled, err := prompt.Compile(req)
	if err != nil {
		return history.Record{}, err
	}
	s.noteFallbacks(ctx, compiled)

	outputRatio, err := s.outputAspectRatio(compiled)
	if err != nil {
		return history.Record{}, err
	}
	if err := s.preprocess(ctx, &compiled); err != nil {
		return history.Record{}, err
	}

	payload := gateway.PayloadFromCompiled(compiled, gateway.OutputParams{
		AspectRatio: outputRatio,
		ImageSize:   compiled.ImageSize,
	})
	img, err := s.sender.Send(ctx, payload)
	if err != nil {
		return history.Record{}, err
	}

	if s.credits != nil {
		if err := s.credits.Deduct(ctx, userID, s.cost); err != nil {
			s.logger.ErrorContext(ctx, "credit deduction failed after successful generation", "user_id", userID, "err", err)
		}
	}

	if s.finalizer != nil {
		img = s.finalizer.Finalize(ctx, img, tier)
	}

	rec := history.Record{
		ID:          uuid.NewString(),
		UserID:      userID,
		CreatedAt:   s.now().UTC(),
		Mode:        compiled.Mode,
		Image:       img,
		Instruction: compiled.Instruction,
		Request:     req.Clone(),
	}
	if s.recorder != nil {
		s.recorder.Enqueue(rec)
	}
	return rec, nil
}

// preprocess pads base geometry to a numeric target ratio and compresses
// every attachment, keeping each image at its ordinal.
func (s *Service) preprocess(ctx context.Context, c *prompt.Compiled) error {
	_, pad := imgprep.ParseRatio(c.AspectRatio)
	g, _ := errgroup.WithContext(ctx)
	for i := range c.Images {
		g.Go(func() error {
			a := &c.Images[i]
			img := a.Image
			var err error
			if pad && (a.Role == prompt.RoleBase || a.Role == prompt.RoleAdditional) {
				if img, err = imgprep.Pad(img, c.AspectRatio); err != nil {
					return &prompt.ConfigError{Field: fmt.Sprintf("image #%d", a.Ordinal), Reason: err.Error()}
				}
			}
			if img, err = imgprep.Compress(img, s.maxDimension, s.quality); err != nil {
				return &prompt.ConfigError{Field: fmt.Sprintf("image #%d", a.Ordinal), Reason: err.Error()}
			}
			a.Image = img
			return nil
		})
	}
	return g.Wait()
}

// outputAspectRatio turns a "Similar to ..." sentinel into the supported
// ratio nearest to that source image.
func (s *Service) outputAspectRatio(c prompt.Compiled) (string, error) {
	if !prompt.IsSentinelAspectRatio(c.AspectRatio) {
		return prompt.NormalizeAspectRatio(c.AspectRatio), nil
	}
	src := c.Images[0]
	if catalog.SameKey(c.AspectRatio, prompt.AspectSimilarToReference) {
		for _, a := range c.Images {
			if a.Role == prompt.RoleReference {
				src = a
				break
			}
		}
	}
	w, h, err := imgprep.Dimensions(src.Image)
	if err != nil {
		return "", &prompt.ConfigError{Field: fmt.Sprintf("image #%d", src.Ordinal), Reason: err.Error()}
	}
	return imgprep.NearestSupportedRatio(w, h), nil
}

func (s *Service) Restore(ctx context.Context, userID, id string) (prompt.Request, error) {
	rec, err := s.history.Get(ctx, userID, id)
	if err != nil {
		return prompt.Request{}, err
	}
	return rec.Restore(), nil
}

func (s *Service) Record(ctx context.Context, userID, id string) (history.Record, error) {
	return s.history.Get(ctx, userID, id)
}

func (s *Service) History(ctx context.Context, userID string, limit int) ([]history.Record, error) {
	return s.history.List(ctx, userID, limit)
}

func (s *Service) noteFallbacks(ctx context.Context, c prompt.Compiled) {
	for _, miss := range c.Fallbacks {
		s.metrics.CatalogFallbacks.WithLabelValues(miss.Catalog).Inc()
		s.logger.DebugContext(ctx, "catalog fallback", "catalog", miss.Catalog, "key", miss.Key, "mode", c.Mode)
	}
}

func (s *Service) acquire(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[userID]; busy {
		return false
	}
	s.inflight[userID] = struct{}{}
	return true
}

func (s *Service) release(userID string) {
	s.mu.Lock()
	delete(s.inflight, userID)
	s.mu.Unlock()
}

func outcome(err error) string {
	var (
		cfg *prompt.ConfigError
		te  *gateway.TransportError
		ge  *gateway.GenerationFailedError
		ne  *gateway.NetworkError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &cfg):
		return "invalid"
	case errors.As(err, &te):
		return "transport_error"
	case errors.As(err, &ge):
		return "generation_failed"
	case errors.As(err, &ne):
		return "network_error"
	default:
		return "error"
	}
}
