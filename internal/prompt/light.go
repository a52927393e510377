package prompt

import (
	"fmt"
	"math"
)

var compass = [8]string{
	"front (north)",
	"front-right (north-east)",
	"right (east)",
	"back-right (south-east)",
	"back (south)",
	"back-left (south-west)",
	"left (west)",
	"front-left (north-west)",
}

// LightSentence describes where sunlight comes from for a direction in
// degrees, 0 being the front (north) and increasing clockwise.
func LightSentence(deg float64) string {
	deg = NormalizeDegrees(deg)
	from := int(math.Floor((deg+22.5)/45)) % 8
	to := (from + 4) % 8
	return fmt.Sprintf("Light direction: sunlight comes from the %s at %.0f degrees; cast shadows fall toward the %s.", compass[from], deg, compass[to])
}

func lightClause() clause {
	return clause{name: "light_direction", when: func(s *state) bool { return s.req.LightDirection != nil }, text: func(s *state) string {
		return LightSentence(*s.req.LightDirection)
	}}
}
