package prompt

import (
	"fmt"
	"strings"

	"archviz-studio/internal/catalog"
)

func attachExterior(s *state) {
	s.attachBase()
	if !s.req.SiteImage.IsZero() {
		s.site = s.att.Attach(RoleSite, s.req.SiteImage)
	}
	s.refFirst, s.refCount = s.att.AttachRun(RoleReference, s.req.ReferenceImages)
	if !s.req.Material1Image.IsZero() {
		s.material1 = s.att.Attach(RoleMaterial1, s.req.Material1Image)
	}
	if !s.req.Material2Image.IsZero() {
		s.material2 = s.att.Attach(RoleMaterial2, s.req.Material2Image)
	}
}

var exteriorClauses = []clause{
	manifestClause(),
	{name: "role", text: func(s *state) string {
		return fmt.Sprintf("You are an expert architectural visualizer. Turn the building in %s into a finished exterior visualization.", subjectRefs(s))
	}},
	rulesClause("guardrails", GeometryClause, NoHallucinationClause, TransformOnlyClause, OutpaintClause),
	{name: "style", text: func(s *state) string {
		name := s.req.StyleName
		if name == "" || matchesMissingReference(s) {
			name = "Default"
		}
		return fmt.Sprintf("Style: %s. %s", name, fenceRefs(exteriorStyle(s), s.att.Len()))
	}},
	{name: "view", text: func(s *state) string {
		return "View: " + viewInstruction(s, s.req.ElevationSide)
	}},
	parallelClause(),
	{name: "atmosphere", when: func(s *state) bool { return len(s.req.Atmospheres) > 0 }, text: func(s *state) string {
		frags := make([]string, 0, len(s.req.Atmospheres))
		for _, a := range s.req.Atmospheres {
			frags = append(frags, s.resolve(catalog.Atmosphere(a)).Fragment)
		}
		return "Atmosphere: combine these moods into one coherent scene: " + strings.Join(frags, " + ") + "."
	}},
	lightClause(),
	{name: "site", when: func(s *state) bool { return s.site > 0 }, text: func(s *state) string {
		if catalog.SameKey(s.req.StyleName, catalog.StyleSatelliteToDrone) {
			return fmt.Sprintf("Site (%s): transform this flat satellite map into a photorealistic 3D drone shot of the location and place the building from %s into it at its true position and scale.", Ref(s.site), Ref(1))
		}
		return fmt.Sprintf("Site (%s): place the building into this site context, matching its lighting, perspective and scale.", Ref(s.site))
	}},
	{name: "references", when: func(s *state) bool { return s.refCount > 0 }, text: func(s *state) string {
		refs := RefRun(s.refFirst, s.refCount)
		switch {
		case catalog.SameKey(s.req.ViewType, catalog.ViewSimilarToReference):
			return fmt.Sprintf("Reference images (%s): take the camera angle and composition from them, plus their materials and mood, while keeping the geometry of %s.", refs, Ref(1))
		case catalog.SameKey(s.req.StyleName, catalog.StyleMatchReference):
			return fmt.Sprintf("Reference images (%s): strictly match their rendering style, color grading, materials, lighting and mood so the result looks like part of the same set.", refs)
		default:
			return fmt.Sprintf("Reference images (%s): apply their materials and mood only; ignore their geometry and composition.", refs)
		}
	}},
	{name: "material1", when: func(s *state) bool { return s.material1 > 0 }, text: func(s *state) string {
		return fmt.Sprintf("Primary material (%s): apply the texture of this image as the primary exterior material.", Ref(s.material1))
	}},
	{name: "material2", when: func(s *state) bool { return s.material2 > 0 }, text: func(s *state) string {
		return fmt.Sprintf("Secondary material (%s): apply the texture of this image as the secondary exterior material.", Ref(s.material2))
	}},
	aspectClause(),
	refinementClause(),
}

// exteriorStyle prefers an explicit instruction, then the catalog and the
// user's custom styles.
func exteriorStyle(s *state) string {
	if s.req.StyleInstruction != "" {
		return s.req.StyleInstruction
	}
	if s.req.StyleName == "" {
		return catalog.DefaultStyleFragment
	}
	if matchesMissingReference(s) {
		return catalog.DefaultStyleFragment
	}
	return s.resolve(catalog.ResolveStyle(s.req.StyleName, s.req.CustomStyles)).Fragment
}

// matchesMissingReference reports a "match the reference" style with no
// reference images to match.
func matchesMissingReference(s *state) bool {
	return catalog.SameKey(s.req.StyleName, catalog.StyleMatchReference) && s.refCount == 0
}
