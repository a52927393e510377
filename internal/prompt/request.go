package prompt

import (
	"fmt"
	"math"
	"strings"

	"archviz-studio/internal/catalog"
	"archviz-studio/internal/media"
)

// Mode is the generation strategy selected for a request.
type Mode string

const (
	ModeExterior Mode = "exterior"
	ModeInterior Mode = "interior"
	ModeIdeation Mode = "ideation"
	ModeDiagram  Mode = "diagram"
)

const (
	CreateExterior = "exterior"
	CreateInterior = "interior"
)

const (
	AspectSimilarToInput     = "Similar to Input"
	AspectSimilarToReference = "Similar to Reference"
)

const MaxAdditionalBaseImages = 4

// Ideation configures operative massing.
type Ideation struct {
	InnovationLevel int    `json:"innovationLevel"`
	Material        string `json:"material,omitempty"`
	Form            string `json:"form,omitempty"`
	ElevationSide   string `json:"elevationSide,omitempty"`
	TimeOfDay       string `json:"timeOfDay,omitempty"`
}

// Request is everything the compiler needs for one generation. Treat it as
// a value: the compiler never mutates the caller's copy.
type Request struct {
	CreateMode string `json:"createMode,omitempty"`

	BaseImage            media.Image   `json:"baseImage"`
	AdditionalBaseImages []media.Image `json:"additionalBaseImages,omitempty"`
	SiteImage            media.Image   `json:"siteImage"`
	ReferenceImages      []media.Image `json:"referenceImages,omitempty"`
	Material1Image       media.Image   `json:"material1Image"`
	Material2Image       media.Image   `json:"material2Image"`

	StyleName        string                `json:"styleName,omitempty"`
	StyleInstruction string                `json:"styleInstruction,omitempty"`
	CustomStyles     []catalog.CustomStyle `json:"customStyles,omitempty"`

	ViewType      string    `json:"viewType,omitempty"`
	Ideation      *Ideation `json:"ideation,omitempty"`
	SelectedVerbs []string  `json:"selectedVerbs,omitempty"`
	DiagramType   string    `json:"diagramType,omitempty"`
	Atmospheres   []string  `json:"atmospheres,omitempty"`

	ElevationSide  string   `json:"elevationSide,omitempty"`
	LightDirection *float64 `json:"lightDirection,omitempty"`
	AspectRatio    string   `json:"aspectRatio,omitempty"`
	ImageSize      string   `json:"imageSize,omitempty"`

	AdditionalPrompt string `json:"additionalPrompt,omitempty"`
}

// Mode picks the generation strategy: Diagram > Ideation > Interior > Exterior.
func (r Request) Mode() Mode {
	switch {
	case strings.TrimSpace(r.DiagramType) != "":
		return ModeDiagram
	case r.Ideation != nil || len(r.SelectedVerbs) > 0:
		return ModeIdeation
	case strings.EqualFold(strings.TrimSpace(r.CreateMode), CreateInterior):
		return ModeInterior
	default:
		return ModeExterior
	}
}

// ConfigError reports a request that cannot be compiled.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Reason)
}

func (r Request) Validate() error {
	if r.BaseImage.IsZero() {
		return &ConfigError{Field: "baseImage", Reason: "a base image is required"}
	}
	if n := len(r.AdditionalBaseImages); n > MaxAdditionalBaseImages {
		return &ConfigError{
			Field:  "additionalBaseImages",
			Reason: fmt.Sprintf("at most %d additional base images are allowed, got %d", MaxAdditionalBaseImages, n),
		}
	}
	for i, img := range r.AdditionalBaseImages {
		if img.IsZero() {
			return &ConfigError{Field: fmt.Sprintf("additionalBaseImages[%d]", i), Reason: "image is empty"}
		}
	}
	for i, img := range r.ReferenceImages {
		if img.IsZero() {
			return &ConfigError{Field: fmt.Sprintf("referenceImages[%d]", i), Reason: "image is empty"}
		}
	}
	switch strings.ToLower(strings.TrimSpace(r.CreateMode)) {
	case "", CreateExterior, CreateInterior:
	default:
		return &ConfigError{Field: "createMode", Reason: fmt.Sprintf("unknown create mode %q", r.CreateMode)}
	}
	if r.LightDirection != nil {
		if d := *r.LightDirection; math.IsNaN(d) || math.IsInf(d, 0) {
			return &ConfigError{Field: "lightDirection", Reason: "not a finite number"}
		}
	}
	return nil
}

// Clone returns a deep copy so callers can keep a request across restores.
func (r Request) Clone() Request {
	out := r
	out.AdditionalBaseImages = cloneImages(r.AdditionalBaseImages)
	out.ReferenceImages = cloneImages(r.ReferenceImages)
	out.BaseImage = cloneImage(r.BaseImage)
	out.SiteImage = cloneImage(r.SiteImage)
	out.Material1Image = cloneImage(r.Material1Image)
	out.Material2Image = cloneImage(r.Material2Image)
	out.CustomStyles = append([]catalog.CustomStyle(nil), r.CustomStyles...)
	out.SelectedVerbs = append([]string(nil), r.SelectedVerbs...)
	out.Atmospheres = append([]string(nil), r.Atmospheres...)
	if r.Ideation != nil {
		id := *r.Ideation
		out.Ideation = &id
	}
	if r.LightDirection != nil {
		d := *r.LightDirection
		out.LightDirection = &d
	}
	return out
}

// normalized clamps and trims the request. It works on a clone.
func (r Request) normalized() Request {
	out := r.Clone()
	out.CreateMode = strings.ToLower(strings.TrimSpace(out.CreateMode))
	out.StyleName = strings.TrimSpace(out.StyleName)
	out.StyleInstruction = strings.TrimSpace(out.StyleInstruction)
	out.ViewType = strings.TrimSpace(out.ViewType)
	out.DiagramType = strings.TrimSpace(out.DiagramType)
	out.ElevationSide = strings.TrimSpace(out.ElevationSide)
	out.AspectRatio = strings.TrimSpace(out.AspectRatio)
	out.ImageSize = strings.TrimSpace(out.ImageSize)
	out.AdditionalPrompt = strings.TrimSpace(out.AdditionalPrompt)
	out.SelectedVerbs = trimEmpty(out.SelectedVerbs)
	out.Atmospheres = trimEmpty(out.Atmospheres)
	if out.Ideation != nil {
		out.Ideation.InnovationLevel = clamp(out.Ideation.InnovationLevel, 0, 100)
	}
	if out.LightDirection != nil {
		d := NormalizeDegrees(*out.LightDirection)
		out.LightDirection = &d
	}
	return out
}

// NormalizeDegrees maps any angle into [0, 360).
func NormalizeDegrees(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	return d
}

func cloneImages(in []media.Image) []media.Image {
	if in == nil {
		return nil
	}
	out := make([]media.Image, len(in))
	for i, img := range in {
		out[i] = cloneImage(img)
	}
	return out
}

func cloneImage(img media.Image) media.Image {
	if img.Data != nil {
		img.Data = append([]byte(nil), img.Data...)
	}
	return img
}

func trimEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
