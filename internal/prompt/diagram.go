package prompt

import (
	"fmt"

	"archviz-studio/internal/catalog"
)

var diagramClauses = []clause{
	manifestClause(),
	{name: "role", text: func(s *state) string {
		e := s.resolve(catalog.Diagram(s.req.DiagramType))
		return fmt.Sprintf("You are an architectural diagram illustrator. Using the building in %s, create a diagram of type %s: %s.", subjectRefs(s), s.req.DiagramType, e.Fragment)
	}},
	rulesClause("guardrails",
		"Keep the building's massing and proportions recognisable from the base image.",
		"Use clean graphic language suitable for a presentation board; keep any text labels minimal.",
	),
	aspectClause(),
	refinementClause(),
}
