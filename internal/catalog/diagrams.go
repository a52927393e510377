package catalog

var diagrams = newTable("diagram", Entry{
	Name:     "Concept Diagram",
	Fragment: "a clean architectural concept diagram with simplified massing, white background, thin black linework and one accent color for annotations",
},
	Entry{Key: "Exploded Axonometric", Fragment: "an exploded axonometric diagram separating floors, structure and envelope vertically with dashed alignment lines"},
	Entry{Key: "Circulation", Fragment: "a circulation diagram with colored arrows tracing vertical and horizontal movement through the building"},
	Entry{Key: "Program", Fragment: "a program diagram with each function zone filled in a distinct flat color and a small legend"},
	Entry{Key: "Structural", Fragment: "a structural diagram highlighting columns, beams, cores and load paths in red over a grey ghosted volume"},
	Entry{Key: "Sun Path", Fragment: "a sun path diagram with the solar arc, sun positions at key hours and the resulting shadows on site"},
	Entry{Key: "Massing Evolution", Fragment: "a step-by-step massing evolution diagram showing the volume transform in numbered stages from left to right"},
	Entry{Key: "Sustainability", Fragment: "a sustainability diagram with arrows for ventilation, daylight, rainwater and heat flows"},
	Entry{Key: "Site Analysis", Fragment: "a site analysis diagram marking access, views, noise, wind and neighbouring context"},
	Entry{Key: "Zoning", Fragment: "a zoning diagram separating public, semi-public and private areas with translucent color fields"},
)

// Diagram resolves a diagram type. Unknown types produce a generic concept diagram.
func Diagram(name string) (Entry, *Miss) {
	return diagrams.lookup(name)
}

func Diagrams() []NamedOption { return diagrams.options() }
