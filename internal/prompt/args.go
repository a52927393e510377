package prompt

import (
	"fmt"
	"strconv"
	"strings"

	"archviz-studio/internal/catalog"
)

// ParseArgs applies key=value tokens from a free-form caption on top of
// defaults. Unrecognized tokens become the free-text refinement. Multi-word
// catalog keys are written with underscores: style=pencil_sketch.
func ParseArgs(raw string, defaults Request) Request {
	req := defaults.Clone()
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return req
	}

	var custom []string
	for _, tok := range strings.Fields(raw) {
		orig := tok
		tok = strings.ToLower(tok)

		switch tok {
		case "exterior", "ext":
			setMode(&req, "exterior")
			continue
		case "interior", "int":
			setMode(&req, "interior")
			continue
		case "ideation", "massing":
			setMode(&req, "ideation")
			continue
		}

		key, value, ok := strings.Cut(tok, "=")
		if !ok || value == "" {
			if norm := NormalizeAspectRatio(tok); norm != "" {
				req.AspectRatio = norm
				continue
			}
			custom = append(custom, orig)
			continue
		}
		_, origValue, _ := strings.Cut(orig, "=")

		if !applyArg(&req, key, value, origValue) {
			custom = append(custom, orig)
		}
	}

	if text := strings.TrimSpace(strings.Join(custom, " ")); text != "" {
		req.AdditionalPrompt = text
	}
	return req
}

func applyArg(req *Request, key, value, origValue string) bool {
	switch key {
	case "mode":
		return setMode(req, value)
	case "style":
		req.StyleName = canonical(value, origValue, "exterior_style", "interior_style")
	case "view":
		req.ViewType = canonical(value, origValue, "view")
	case "ar", "aspect":
		switch value {
		case "input", "similar_to_input":
			req.AspectRatio = AspectSimilarToInput
		case "reference", "ref", "similar_to_reference":
			req.AspectRatio = AspectSimilarToReference
		default:
			norm := NormalizeAspectRatio(value)
			if norm == "" {
				return false
			}
			req.AspectRatio = norm
		}
	case "diagram":
		req.DiagramType = canonical(value, origValue, "diagram")
	case "verbs", "verb":
		for _, v := range strings.Split(origValue, ",") {
			if v = strings.TrimSpace(v); v != "" {
				req.SelectedVerbs = append(req.SelectedVerbs, canonical(strings.ToLower(v), v, "verb"))
			}
		}
		ensureIdeation(req)
	case "material":
		ensureIdeation(req).Material = canonical(value, origValue, "material")
	case "form":
		ensureIdeation(req).Form = canonical(value, origValue, "form")
	case "time":
		ensureIdeation(req).TimeOfDay = canonical(value, origValue, "time_of_day")
	case "innovation":
		n, err := strconv.Atoi(value)
		if err != nil {
			return false
		}
		ensureIdeation(req).InnovationLevel = clamp(n, 0, 100)
	case "side":
		req.ElevationSide = canonical(value, origValue, "elevation_side")
	case "light":
		d, err := strconv.ParseFloat(strings.TrimSuffix(value, "deg"), 64)
		if err != nil {
			return false
		}
		d = NormalizeDegrees(d)
		req.LightDirection = &d
	case "size":
		req.ImageSize = strings.ToUpper(value)
	case "atmo", "atmosphere":
		for _, a := range strings.Split(origValue, ",") {
			if a = strings.TrimSpace(a); a != "" {
				req.Atmospheres = append(req.Atmospheres, canonical(strings.ToLower(a), a, "atmosphere"))
			}
		}
	default:
		return false
	}
	return true
}

func setMode(req *Request, mode string) bool {
	switch mode {
	case "exterior", "interior":
		req.CreateMode = mode
		req.Ideation = nil
		req.SelectedVerbs = nil
		req.DiagramType = ""
	case "ideation":
		ensureIdeation(req)
		req.DiagramType = ""
	case "diagram":
		if req.DiagramType == "" {
			req.DiagramType = "Exploded Axonometric"
		}
	default:
		return false
	}
	return true
}

func ensureIdeation(req *Request) *Ideation {
	if req.Ideation == nil {
		req.Ideation = &Ideation{InnovationLevel: 50}
	}
	return req.Ideation
}

// canonical maps value onto the first catalog that knows it, or keeps the
// user's spelling with underscores turned into spaces.
func canonical(value, orig string, kinds ...string) string {
	for _, k := range kinds {
		if key, ok := catalog.Canonical(k, value); ok {
			return key
		}
	}
	return strings.ReplaceAll(strings.TrimSpace(orig), "_", " ")
}

// NormalizeAspectRatio returns "W:H" for a valid numeric ratio, else "".
func NormalizeAspectRatio(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return ""
	}
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return ""
	}
	a, errA := strconv.Atoi(strings.TrimSpace(parts[0]))
	b, errB := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errA != nil || errB != nil || a <= 0 || b <= 0 {
		return ""
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// IsSentinelAspectRatio reports whether ar means "keep a source image's ratio".
func IsSentinelAspectRatio(ar string) bool {
	return catalog.SameKey(ar, AspectSimilarToInput) || catalog.SameKey(ar, AspectSimilarToReference)
}
