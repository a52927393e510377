// Package imgprep prepares uploads for transport: padding to a target aspect
// ratio and lossy downscaling.
package imgprep

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"math"
	"strconv"
	"strings"

	"archviz-studio/internal/media"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// RatioTolerance is the relative difference under which two aspect ratios
// are treated as equal.
const RatioTolerance = 0.01

// SupportedRatios are the output aspect ratios the generation model accepts.
var SupportedRatios = []string{"1:1", "2:3", "3:2", "3:4", "4:3", "4:5", "5:4", "9:16", "16:9", "21:9"}

// ParseRatio parses "W:H" into W/H.
func ParseRatio(ratio string) (float64, bool) {
	w, h, ok := strings.Cut(strings.TrimSpace(ratio), ":")
	if !ok {
		return 0, false
	}
	a, errA := strconv.ParseFloat(strings.TrimSpace(w), 64)
	b, errB := strconv.ParseFloat(strings.TrimSpace(h), 64)
	if errA != nil || errB != nil || a <= 0 || b <= 0 {
		return 0, false
	}
	return a / b, true
}

func Dimensions(img media.Image) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(img.Data))
	if err != nil {
		return 0, 0, fmt.Errorf("decode image config: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// NearestSupportedRatio maps pixel dimensions to the closest supported ratio.
func NearestSupportedRatio(w, h int) string {
	if w <= 0 || h <= 0 {
		return "1:1"
	}
	want := math.Log(float64(w) / float64(h))
	best, bestDiff := SupportedRatios[0], math.Inf(1)
	for _, r := range SupportedRatios {
		v, _ := ParseRatio(r)
		if d := math.Abs(math.Log(v) - want); d < bestDiff {
			best, bestDiff = r, d
		}
	}
	return best
}

// Pad letterboxes or pillarboxes img with a centered white border so that it
// matches ratio. It returns img unchanged when ratio is not numeric or the
// image already matches within RatioTolerance.
func Pad(img media.Image, ratio string) (media.Image, error) {
	target, ok := ParseRatio(ratio)
	if !ok {
		return img, nil
	}
	w, h, err := Dimensions(img)
	if err != nil {
		return media.Image{}, err
	}
	current := float64(w) / float64(h)
	if math.Abs(current-target)/target <= RatioTolerance {
		return img, nil
	}

	src, format, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return media.Image{}, fmt.Errorf("decode image: %w", err)
	}

	nw, nh := w, h
	if current < target {
		nw = int(math.Round(float64(h) * target))
	} else {
		nh = int(math.Round(float64(w) / target))
	}

	canvas := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	offset := image.Pt((nw-w)/2, (nh-h)/2)
	b := src.Bounds()
	draw.Draw(canvas, image.Rectangle{Min: offset, Max: offset.Add(b.Size())}, src, b.Min, draw.Over)

	if format == "png" {
		return encodePNG(canvas)
	}
	return encodeJPEG(canvas, 95)
}

// Compress downsamples img so its longer side is at most maxDimension and
// re-encodes it as JPEG. Output depends only on the inputs.
func Compress(img media.Image, maxDimension, quality int) (media.Image, error) {
	src, _, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return media.Image{}, fmt.Errorf("decode image: %w", err)
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDimension > 0 && (w > maxDimension || h > maxDimension) {
		scale := float64(maxDimension) / float64(max(w, h))
		w = max(1, int(math.Round(float64(w)*scale)))
		h = max(1, int(math.Round(float64(h)*scale)))
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return encodeJPEG(dst, quality)
}

func encodeJPEG(img image.Image, quality int) (media.Image, error) {
	if quality <= 0 || quality > 100 {
		quality = jpeg.DefaultQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return media.Image{}, fmt.Errorf("encode jpeg: %w", err)
	}
	return media.Image{Data: buf.Bytes(), MIMEType: "image/jpeg"}, nil
}

func encodePNG(img image.Image) (media.Image, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return media.Image{}, fmt.Errorf("encode png: %w", err)
	}
	return media.Image{Data: buf.Bytes(), MIMEType: "image/png"}, nil
}
