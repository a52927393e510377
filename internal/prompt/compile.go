package prompt

import (
	"strings"

	"archviz-studio/internal/catalog"
)

// Compiled is the output of Compile: the instruction text and the images it
// refers to, in ordinal order.
type Compiled struct {
	Mode        Mode           `json:"mode"`
	Instruction string         `json:"instruction"`
	Images      []Attachment   `json:"images"`
	Clauses     []string       `json:"clauses"`
	Fallbacks   []catalog.Miss `json:"fallbacks,omitempty"`
	AspectRatio string         `json:"aspectRatio,omitempty"`
	ImageSize   string         `json:"imageSize,omitempty"`
}

// clause is one rule of a mode's instruction. when may be nil (always on).
type clause struct {
	name string
	when func(*state) bool
	text func(*state) string
}

type plan struct {
	attach  func(*state)
	clauses []clause
}

// state carries the normalized request and the ordinals recorded while
// attaching images. Zero ordinals mean the image is absent.
type state struct {
	req  Request
	mode Mode
	att  Attachments

	additionalFirst, additionalCount int
	site                             int
	refFirst, refCount               int
	material1, material2             int

	misses []catalog.Miss
}

func (s *state) resolve(e catalog.Entry, miss *catalog.Miss) catalog.Entry {
	if miss != nil {
		s.misses = append(s.misses, *miss)
	}
	return e
}

// lookup resolves key in a catalog; an empty key takes the default silently.
func (s *state) lookup(fn func(string) (catalog.Entry, *catalog.Miss), key string) catalog.Entry {
	e, miss := fn(key)
	if key == "" {
		return e
	}
	return s.resolve(e, miss)
}

func (s *state) attachBase() {
	s.att.Attach(RoleBase, s.req.BaseImage)
	s.additionalFirst, s.additionalCount = s.att.AttachRun(RoleAdditional, s.req.AdditionalBaseImages)
}

var plans = map[Mode]plan{
	ModeDiagram:  {attach: (*state).attachBase, clauses: diagramClauses},
	ModeIdeation: {attach: (*state).attachBase, clauses: ideationClauses},
	ModeInterior: {attach: attachInterior, clauses: interiorClauses},
	ModeExterior: {attach: attachExterior, clauses: exteriorClauses},
}

// Compile turns a request into an instruction string plus the ordered list
// of images it references. It is pure and safe for concurrent use.
func Compile(req Request) (Compiled, error) {
	if err := req.Validate(); err != nil {
		return Compiled{}, err
	}
	s := &state{req: req.normalized()}
	s.mode = s.req.Mode()

	p := plans[s.mode]
	p.attach(s)

	var (
		b       strings.Builder
		applied []string
	)
	for _, c := range p.clauses {
		if c.when != nil && !c.when(s) {
			continue
		}
		text := strings.TrimSpace(c.text(s))
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(text)
		applied = append(applied, c.name)
	}

	return Compiled{
		Mode:        s.mode,
		Instruction: b.String(),
		Images:      s.att.List(),
		Clauses:     applied,
		Fallbacks:   s.misses,
		AspectRatio: s.req.AspectRatio,
		ImageSize:   s.req.ImageSize,
	}, nil
}
