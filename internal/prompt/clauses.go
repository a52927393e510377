package prompt

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"archviz-studio/internal/catalog"
)

// Guardrails present in every exterior instruction.
const (
	GeometryClause        = "Do not alter existing geometry: keep every volume, opening, edge and proportion of the base image exactly as it is, and never add or remove building parts."
	NoHallucinationClause = "Do not hallucinate new elements: add no objects, structures or details that are not present in the input images."
	TransformOnlyClause   = "Apply only the style, material and lighting transformation described below."
	OutpaintClause        = "If the base image shows white padding bars at its edges, outpaint them seamlessly with matching surroundings instead of leaving them blank."
	PerspectiveClause     = "Keep the exact camera perspective, room layout and architectural elements of the base image."
	ParallelClause        = "The view must not be perspective: use a true parallel projection with no vanishing points and no foreshortening."
)

func manifestClause() clause {
	return clause{name: "manifest", text: func(s *state) string {
		var b strings.Builder
		b.WriteString("Attached images, in order:")
		for _, a := range s.att.list {
			fmt.Fprintf(&b, "\n- %s: %s", Ref(a.Ordinal), a.Role.Label())
		}
		return b.String()
	}}
}

// subjectRefs names the base image and any additional views of it.
func subjectRefs(s *state) string {
	if s.additionalCount == 0 {
		return Ref(1)
	}
	return fmt.Sprintf("%s (additional views of the same subject: %s)", Ref(1), RefRun(s.additionalFirst, s.additionalCount))
}

func rulesClause(name string, rules ...string) clause {
	return clause{name: name, text: func(*state) string {
		var b strings.Builder
		b.WriteString("Rules:")
		for _, r := range rules {
			b.WriteString("\n- " + r)
		}
		return b.String()
	}}
}

func aspectClause() clause {
	return clause{name: "aspect_ratio", when: func(s *state) bool { return s.req.AspectRatio != "" }, text: func(s *state) string {
		ar := s.req.AspectRatio
		switch {
		case catalog.SameKey(ar, AspectSimilarToInput):
			return fmt.Sprintf("Aspect ratio: preserve the native aspect ratio of %s; do not crop or stretch it to another format.", Ref(1))
		case catalog.SameKey(ar, AspectSimilarToReference):
			src := Ref(1)
			if s.refCount > 0 {
				src = Ref(s.refFirst)
			}
			return fmt.Sprintf("Aspect ratio: preserve the native aspect ratio of the reference image %s; do not crop or stretch it to another format.", src)
		}
		if norm := NormalizeAspectRatio(ar); norm != "" {
			return "Output aspect ratio: " + norm + "."
		}
		return ""
	}}
}

var userRefPattern = regexp.MustCompile(`(?i)\bimage\s*#\s*(\d+)`)

func refinementClause() clause {
	return clause{name: "refinement", when: func(s *state) bool { return s.req.AdditionalPrompt != "" }, text: func(s *state) string {
		return "Additional instructions: " + fenceRefs(s.req.AdditionalPrompt, s.att.Len())
	}}
}

// fenceRefs rewrites image references in user text so only attached
// ordinals survive in the "Image #N" form.
func fenceRefs(text string, attached int) string {
	return userRefPattern.ReplaceAllStringFunc(text, func(m string) string {
		n, err := strconv.Atoi(userRefPattern.FindStringSubmatch(m)[1])
		if err == nil && n >= 1 && n <= attached {
			return Ref(n)
		}
		return "an image that is not attached"
	})
}

// viewInstruction applies the override table before falling back to the
// view catalog.
func viewInstruction(s *state, side string) string {
	view := s.req.ViewType
	switch {
	case catalog.SameKey(view, catalog.ViewElevation) && side != "":
		e := s.resolve(catalog.ElevationSide(side))
		return fmt.Sprintf("Strict 2D orthographic elevation of the %s side of the building, no perspective: flat facade projection with no vanishing points.", e.Fragment)
	case catalog.SameKey(view, catalog.ViewSimilarToReference):
		if s.refCount > 0 {
			return fmt.Sprintf("Match the camera angle, perspective and composition of the reference image %s.", Ref(s.refFirst))
		}
		return fmt.Sprintf("Match the camera angle, perspective and composition of %s.", Ref(1))
	case catalog.SameKey(view, catalog.ViewSimilarToInput):
		return fmt.Sprintf("Match the camera angle, perspective and composition of %s.", Ref(1))
	case catalog.SameKey(view, catalog.ViewPlan):
		return "Strict 2D top-down floor plan, no perspective."
	case catalog.SameKey(view, catalog.ViewSection):
		return "Strict 2D vertical section cut, no perspective."
	}
	return s.lookup(catalog.View, view).Fragment
}

func parallelClause() clause {
	return clause{name: "parallel_projection", when: func(s *state) bool {
		return catalog.IsParallelProjection(s.req.ViewType)
	}, text: func(*state) string { return ParallelClause }}
}
