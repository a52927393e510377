package prompt

import (
	"fmt"
	"strings"

	"archviz-studio/internal/catalog"
)

var ideationClauses = []clause{
	manifestClause(),
	{name: "role", text: func(s *state) string {
		return fmt.Sprintf("You are an architectural concept designer exploring operative massing. Use the volume in %s as the starting mass and transform it with the spatial operations below.", subjectRefs(s))
	}},
	{name: "parameters", text: func(s *state) string {
		cfg := ideation(s)
		form := s.lookup(catalog.Form, cfg.Form)
		lines := []string{
			fmt.Sprintf("Innovation level: %d/100 (%s)", cfg.InnovationLevel, innovationBand(cfg.InnovationLevel)),
			"Form language: " + form.Fragment,
			"View: " + viewInstruction(s, ideationSide(s)),
		}
		return "Parameters:\n- " + strings.Join(lines, "\n- ")
	}},
	parallelClause(),
	{name: "operations", when: func(s *state) bool { return len(s.req.SelectedVerbs) > 0 }, text: func(s *state) string {
		var b strings.Builder
		b.WriteString("Apply these spatial operations in order:")
		for i, v := range uniqVerbs(s.req.SelectedVerbs) {
			fmt.Fprintf(&b, "\n%d. %s", i+1, s.resolve(catalog.Verb(v)).Fragment)
		}
		return b.String()
	}},
	{name: "aesthetic", text: func(s *state) string {
		cfg := ideation(s)
		line := "Aesthetic: " + s.lookup(catalog.Material, cfg.Material).Fragment + "."
		if cfg.TimeOfDay != "" {
			line += " Lighting: " + s.resolve(catalog.TimeOfDay(cfg.TimeOfDay)).Fragment + "."
		}
		return line
	}},
	lightClause(),
	aspectClause(),
	refinementClause(),
}

// ideation returns the request's ideation config, or defaults when only verbs
// selected the mode.
func ideation(s *state) Ideation {
	if s.req.Ideation != nil {
		return *s.req.Ideation
	}
	return Ideation{InnovationLevel: 50}
}

func ideationSide(s *state) string {
	if side := strings.TrimSpace(ideation(s).ElevationSide); side != "" {
		return side
	}
	return s.req.ElevationSide
}

func innovationBand(level int) string {
	switch {
	case level <= 33:
		return "conservative: stay close to the original volume"
	case level <= 66:
		return "balanced: clear transformation that keeps the original footprint readable"
	default:
		return "radical: bold, experimental reinterpretation of the mass"
	}
}

// uniqVerbs drops repeated verbs, keeping the first occurrence, so applying
// the same operation twice has the effect of applying it once.
func uniqVerbs(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		k := catalog.NormalizeKey(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}
