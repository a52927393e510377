package prompt

import (
	"fmt"

	"archviz-studio/internal/catalog"
)

func attachInterior(s *state) {
	s.attachBase()
	s.refFirst, s.refCount = s.att.AttachRun(RoleReference, s.req.ReferenceImages)
}

var interiorClauses = []clause{
	manifestClause(),
	{name: "role", text: func(s *state) string {
		return fmt.Sprintf("You are an expert interior visualizer. Turn the space in %s into a finished, photorealistic interior visualization.", subjectRefs(s))
	}},
	rulesClause("guardrails", PerspectiveClause, NoHallucinationClause),
	{name: "style", text: func(s *state) string {
		return "Interior style: " + fenceRefs(interiorStyle(s), s.att.Len()) + "."
	}},
	{name: "references", when: func(s *state) bool { return s.refCount > 0 }, text: func(s *state) string {
		refs := RefRun(s.refFirst, s.refCount)
		if catalog.SameKey(s.req.StyleName, catalog.StyleMatchReference) {
			return fmt.Sprintf("Reference images (%s): strictly match their style, mood, furniture and materials.", refs)
		}
		return fmt.Sprintf("Reference images (%s): extract only their color palette and material cues; do not copy their layout or furniture.", refs)
	}},
	aspectClause(),
	refinementClause(),
}

// interiorStyle resolves the interior catalog, then custom styles, then the
// explicit instruction, then the generic default.
func interiorStyle(s *state) string {
	name := s.req.StyleName
	if name == "" {
		if s.req.StyleInstruction != "" {
			return s.req.StyleInstruction
		}
		return catalog.DefaultStyleFragment
	}
	if matchesMissingReference(s) {
		if s.req.StyleInstruction != "" {
			return s.req.StyleInstruction
		}
		return catalog.DefaultStyleFragment
	}
	e, miss := catalog.ResolveInteriorStyle(name, s.req.CustomStyles)
	if miss != nil && s.req.StyleInstruction != "" {
		return s.req.StyleInstruction
	}
	return s.resolve(e, miss).Fragment
}
