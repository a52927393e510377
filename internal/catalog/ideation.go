package catalog

import "fmt"

var verbs = newTable("verb", Entry{},
	Entry{Key: "Extrude", Fragment: "Extrude: pull selected faces of the volume outward to create projecting masses."},
	Entry{Key: "Twist", Fragment: "Twist: rotate the floor plates progressively around the vertical axis so the volume twists as it rises."},
	Entry{Key: "Cantilever", Fragment: "Cantilever: push part of the upper volume out over the ground with no visible support."},
	Entry{Key: "Subtract", Fragment: "Subtract: carve voids out of the solid mass to form courtyards, terraces or openings."},
	Entry{Key: "Stack", Fragment: "Stack: split the mass into boxes and stack them with shifted offsets."},
	Entry{Key: "Shift", Fragment: "Shift: slide horizontal slices of the volume against each other."},
	Entry{Key: "Split", Fragment: "Split: cut the volume into separate parts divided by a clear gap."},
	Entry{Key: "Taper", Fragment: "Taper: narrow the volume towards the top."},
	Entry{Key: "Bend", Fragment: "Bend: curve the volume along its length as if it were flexible."},
	Entry{Key: "Lift", Fragment: "Lift: raise the main volume off the ground on pilotis to free the ground plane."},
	Entry{Key: "Terrace", Fragment: "Terrace: step the volume back floor by floor to create terraces."},
	Entry{Key: "Interlock", Fragment: "Interlock: make two volumes penetrate and lock into each other."},
)

// Verb resolves a spatial operation. An unknown verb still yields a usable
// instruction naming the operation.
func Verb(name string) (Entry, *Miss) {
	e, miss := verbs.lookup(name)
	if miss != nil {
		e = Entry{Key: name, Name: name, Fragment: fmt.Sprintf("%s: apply the spatial operation %q to the base volume.", name, name)}
	}
	return e, miss
}

func Verbs() []NamedOption { return verbs.options() }

var materials = newTable("material", Entry{
	Key:      "Concrete",
	Name:     "Concrete",
	Fragment: "smooth exposed concrete with fine formwork marks",
},
	Entry{Key: "Concrete", Fragment: "smooth exposed concrete with fine formwork marks"},
	Entry{Key: "Wood Block", Fragment: "solid wood block model aesthetic: warm light timber, visible grain, physical study model look"},
	Entry{Key: "White Foam", Fragment: "white foam board study model with crisp cut edges"},
	Entry{Key: "Glass", Fragment: "fully glazed volume with reflective and transparent glass"},
	Entry{Key: "Corten Steel", Fragment: "weathered Corten steel panels with rust-orange patina"},
	Entry{Key: "Brick", Fragment: "red clay brick with detailed bonding patterns"},
	Entry{Key: "Rammed Earth", Fragment: "layered rammed earth walls in warm ochre strata"},
	Entry{Key: "Metal Mesh", Fragment: "perforated metal mesh skin with a light, veiled appearance"},
)

// Material resolves an ideation material, defaulting to Concrete.
func Material(name string) (Entry, *Miss) {
	return materials.lookup(name)
}

func Materials() []NamedOption { return materials.options() }

var forms = newTable("form", Entry{
	Key:      "Orthogonal",
	Name:     "Orthogonal",
	Fragment: "orthogonal form language: right angles, rectilinear volumes and a strict grid",
},
	Entry{Key: "Orthogonal", Fragment: "orthogonal form language: right angles, rectilinear volumes and a strict grid"},
	Entry{Key: "Organic", Fragment: "organic form language: flowing curves, soft continuous surfaces and shapes inspired by nature"},
	Entry{Key: "Faceted", Fragment: "faceted form language: angular planar facets like a cut crystal"},
	Entry{Key: "Deconstructivist", Fragment: "deconstructivist form language: fragmented, tilted and colliding planes"},
	Entry{Key: "Curvilinear", Fragment: "curvilinear form language: sweeping arcs and rounded corners"},
	Entry{Key: "Monolithic", Fragment: "monolithic form language: one heavy unified mass with few deep openings"},
)

// Form resolves a form language, defaulting to Orthogonal.
func Form(name string) (Entry, *Miss) {
	return forms.lookup(name)
}

func Forms() []NamedOption { return forms.options() }

var timesOfDay = newTable("time_of_day", Entry{
	Key:      "Midday",
	Name:     "Midday",
	Fragment: "bright midday sun with short crisp shadows",
},
	Entry{Key: "Sunrise", Fragment: "soft pink sunrise light with long low shadows"},
	Entry{Key: "Morning", Fragment: "fresh morning light, clear and slightly cool"},
	Entry{Key: "Midday", Fragment: "bright midday sun with short crisp shadows"},
	Entry{Key: "Golden Hour", Fragment: "warm golden hour light with long soft shadows"},
	Entry{Key: "Dusk", Fragment: "blue hour dusk with glowing interiors"},
	Entry{Key: "Night", Fragment: "night scene lit by artificial lighting"},
)

func TimeOfDay(name string) (Entry, *Miss) {
	return timesOfDay.lookup(name)
}

func TimesOfDay() []NamedOption { return timesOfDay.options() }
