// Package watermark finalizes generated images: the lowest access tier gets
// a visible text mark, every other tier gets the image untouched.
package watermark

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"strings"

	"archviz-studio/internal/media"
	"archviz-studio/internal/metrics"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	_ "golang.org/x/image/webp"
)

type Tier string

const (
	TierFree   Tier = "free"
	TierPro    Tier = "pro"
	TierStudio Tier = "studio"
)

// ParseTier maps a header or config value to a Tier; anything unknown is
// treated as the lowest tier.
func ParseTier(s string) Tier {
	switch Tier(strings.ToLower(strings.TrimSpace(s))) {
	case TierPro:
		return TierPro
	case TierStudio:
		return TierStudio
	default:
		return TierFree
	}
}

func (t Tier) Watermarked() bool { return t == TierFree }

const (
	defaultText = "ArchViz Studio"
	// fontRatio is the font size as a fraction of image height.
	fontRatio = 0.045
	minFont   = 12.0
)

type Options struct {
	Text    string
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

type Finalizer struct {
	text    string
	font    *truetype.Font
	fontErr error
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(opts Options) *Finalizer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New(nil)
	}
	text := strings.TrimSpace(opts.Text)
	if text == "" {
		text = defaultText
	}
	f, err := truetype.Parse(goregular.TTF)
	return &Finalizer{text: text, font: f, fontErr: err, logger: logger, metrics: m}
}

// Finalize applies the tier's post-processing. It never fails: if the mark
// cannot be drawn the original image is returned and the failure is logged.
func (f *Finalizer) Finalize(ctx context.Context, img media.Image, tier Tier) media.Image {
	if !tier.Watermarked() {
		return img
	}
	out, err := f.apply(img)
	if err != nil {
		f.metrics.WatermarkFailures.Inc()
		f.logger.WarnContext(ctx, "watermark failed, returning original image", "err", err, "tier", tier)
		return img
	}
	return out
}

func (f *Finalizer) apply(img media.Image) (media.Image, error) {
	if f.fontErr != nil {
		return media.Image{}, fmt.Errorf("parse font: %w", f.fontErr)
	}
	src, _, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return media.Image{}, fmt.Errorf("decode image: %w", err)
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	size := float64(h) * fontRatio
	if size < minFont {
		size = minFont
	}
	face := truetype.NewFace(f.font, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingNone})
	defer face.Close()

	dc := gg.NewContext(w, h)
	dc.DrawImage(src, -b.Min.X, -b.Min.Y)
	dc.SetFontFace(face)

	margin := size * 0.8
	x, y := float64(w)-margin, float64(h)-margin
	shadow := size * 0.06
	if shadow < 1 {
		shadow = 1
	}

	dc.SetColor(color.NRGBA{0, 0, 0, 110})
	dc.DrawStringAnchored(f.text, x+shadow, y+shadow, 1, 0)
	dc.SetColor(color.NRGBA{255, 255, 255, 160})
	dc.DrawStringAnchored(f.text, x, y, 1, 0)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return media.Image{}, fmt.Errorf("encode png: %w", err)
	}
	return media.Image{Data: buf.Bytes(), MIMEType: "image/png"}, nil
}
