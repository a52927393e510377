// Package session keeps the per-chat settings of the Telegram front-end and
// turns them into immutable generation requests.
package session

import (
	"time"

	"archviz-studio/internal/media"
	"archviz-studio/internal/prompt"
)

const defaultInnovation = 50

// Images are the photos a chat has uploaded so far.
type Images struct {
	Base       media.Image
	Additional []media.Image
	Site       media.Image
	References []media.Image
	Material1  media.Image
	Material2  media.Image
}

func (im Images) clone() Images {
	r := prompt.Request{
		BaseImage:            im.Base,
		AdditionalBaseImages: im.Additional,
		SiteImage:            im.Site,
		ReferenceImages:      im.References,
		Material1Image:       im.Material1,
		Material2Image:       im.Material2,
	}.Clone()
	return imagesOf(r)
}

func imagesOf(r prompt.Request) Images {
	return Images{
		Base:       r.BaseImage,
		Additional: r.AdditionalBaseImages,
		Site:       r.SiteImage,
		References: r.ReferenceImages,
		Material1:  r.Material1Image,
		Material2:  r.Material2Image,
	}
}

// UIState is the settings panel of one chat member.
type UIState struct {
	Mode prompt.Mode

	StyleName   string
	ViewType    string
	DiagramType string
	Verbs       []string
	Innovation  int
	Material    string
	Form        string
	TimeOfDay   string
	Atmospheres []string

	ElevationSide    string
	LightDirection   *float64
	AspectRatio      string
	ImageSize        string
	AdditionalPrompt string

	Images Images

	// Pending is the role the next single photo fills; "" means base image.
	Pending      prompt.Role
	AwaitingNote bool
	MessageID    int
	Menu         string

	UpdatedAt time.Time
}

// Defaults is the state of a chat that never touched the settings panel.
func Defaults() UIState {
	return defaultState()
}

func defaultState() UIState {
	return UIState{
		Mode:       prompt.ModeExterior,
		Innovation: defaultInnovation,
		Menu:       "main",
		UpdatedAt:  time.Now(),
	}
}

// Settings returns the request without images, usable as ParseArgs defaults.
// Only the fields of the selected mode are carried.
func (s UIState) Settings() prompt.Request {
	req := prompt.Request{
		StyleName:        s.StyleName,
		ViewType:         s.ViewType,
		Atmospheres:      append([]string(nil), s.Atmospheres...),
		ElevationSide:    s.ElevationSide,
		AspectRatio:      s.AspectRatio,
		ImageSize:        s.ImageSize,
		AdditionalPrompt: s.AdditionalPrompt,
	}
	if s.LightDirection != nil {
		d := *s.LightDirection
		req.LightDirection = &d
	}

	switch s.Mode {
	case prompt.ModeInterior:
		req.CreateMode = prompt.CreateInterior
	case prompt.ModeIdeation:
		req.CreateMode = prompt.CreateExterior
		req.Ideation = &prompt.Ideation{
			InnovationLevel: s.Innovation,
			Material:        s.Material,
			Form:            s.Form,
			ElevationSide:   s.ElevationSide,
			TimeOfDay:       s.TimeOfDay,
		}
		req.SelectedVerbs = append([]string(nil), s.Verbs...)
	case prompt.ModeDiagram:
		req.DiagramType = s.DiagramType
		if req.DiagramType == "" {
			req.DiagramType = "Exploded Axonometric"
		}
	default:
		req.CreateMode = prompt.CreateExterior
	}
	return req
}

// Request materializes an immutable request from the settings and the given
// images. The state is not referenced by the result.
func (s UIState) Request(images Images) prompt.Request {
	req := s.Settings()
	im := images.clone()
	req.BaseImage = im.Base
	req.AdditionalBaseImages = im.Additional
	req.SiteImage = im.Site
	req.ReferenceImages = im.References
	req.Material1Image = im.Material1
	req.Material2Image = im.Material2
	return req
}

// Apply loads settings and images from a restored request.
func (s *UIState) Apply(req prompt.Request) {
	req = req.Clone()
	s.ApplySettings(req)
	s.Images = imagesOf(req)
}

// ApplySettings loads every non-image field of req, switching to its mode.
func (s *UIState) ApplySettings(req prompt.Request) {
	req = req.Clone()
	s.Mode = req.Mode()
	s.StyleName = req.StyleName
	s.ViewType = req.ViewType
	s.DiagramType = req.DiagramType
	s.Verbs = req.SelectedVerbs
	s.Atmospheres = req.Atmospheres
	s.ElevationSide = req.ElevationSide
	s.LightDirection = req.LightDirection
	s.AspectRatio = req.AspectRatio
	s.ImageSize = req.ImageSize
	s.AdditionalPrompt = req.AdditionalPrompt
	s.Innovation = defaultInnovation
	s.Material, s.Form, s.TimeOfDay = "", "", ""
	if id := req.Ideation; id != nil {
		s.Innovation = id.InnovationLevel
		s.Material = id.Material
		s.Form = id.Form
		s.TimeOfDay = id.TimeOfDay
		if id.ElevationSide != "" {
			s.ElevationSide = id.ElevationSide
		}
	}
}

// Attach stores an auxiliary photo under role. References accumulate; the
// other roles are replaced.
func (s *UIState) Attach(role prompt.Role, img media.Image) {
	switch role {
	case prompt.RoleSite:
		s.Images.Site = img
	case prompt.RoleReference:
		s.Images.References = append(s.Images.References, img)
	case prompt.RoleMaterial1:
		s.Images.Material1 = img
	case prompt.RoleMaterial2:
		s.Images.Material2 = img
	}
}

// SetBase replaces the base geometry, keeping at most
// prompt.MaxAdditionalBaseImages extra views. It reports how many were dropped.
func (s *UIState) SetBase(base media.Image, additional []media.Image) int {
	dropped := 0
	if len(additional) > prompt.MaxAdditionalBaseImages {
		dropped = len(additional) - prompt.MaxAdditionalBaseImages
		additional = additional[:prompt.MaxAdditionalBaseImages]
	}
	s.Images.Base = base
	s.Images.Additional = additional
	return dropped
}

func (s *UIState) ClearAuxiliary() {
	s.Images.Site = media.Image{}
	s.Images.References = nil
	s.Images.Material1 = media.Image{}
	s.Images.Material2 = media.Image{}
	s.Pending = ""
}

// ToggleVerb adds or removes a spatial operation, keeping selection order.
func (s *UIState) ToggleVerb(verb string) {
	for i, v := range s.Verbs {
		if v == verb {
			s.Verbs = append(s.Verbs[:i:i], s.Verbs[i+1:]...)
			return
		}
	}
	s.Verbs = append(s.Verbs, verb)
}

func (s *UIState) ToggleAtmosphere(a string) {
	for i, v := range s.Atmospheres {
		if v == a {
			s.Atmospheres = append(s.Atmospheres[:i:i], s.Atmospheres[i+1:]...)
			return
		}
	}
	s.Atmospheres = append(s.Atmospheres, a)
}
