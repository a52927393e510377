package catalog

const (
	ViewSimilarToInput     = "Similar to Input"
	ViewSimilarToReference = "Similar to Reference"
	ViewPerspective        = "Perspective"
	ViewElevation          = "Elevation"
	ViewPlan               = "Plan"
	ViewSection            = "Section"
	ViewAxonometric        = "Axonometric"
	ViewIsometric          = "Isometric"
)

var views = newTable("view", Entry{
	Name:     "Default",
	Fragment: "Keep the camera position, angle and framing of the base image.",
},
	Entry{Key: ViewSimilarToInput, Fragment: "Keep the camera angle, perspective and composition of the base image."},
	Entry{Key: ViewSimilarToReference, Fragment: "Use the camera angle, perspective and composition of the reference image."},
	Entry{Key: ViewPerspective, Fragment: "Two-point perspective view at human eye level with vertical lines kept vertical."},
	Entry{Key: "Eye Level", Fragment: "Street-level view from 1.6 m eye height, as a pedestrian would see the building."},
	Entry{Key: "Aerial", Fragment: "High aerial view showing the building within its surroundings."},
	Entry{Key: "Bird's Eye", Fragment: "Bird's-eye view from about 45 degrees above, showing the roof and the full massing."},
	Entry{Key: "Worm's Eye", Fragment: "Low worm's-eye view looking up at the building, emphasising height."},
	Entry{Key: "Close-up Detail", Fragment: "Close-up detail view of the facade, focused on materials and joints."},
	Entry{Key: ViewElevation, Fragment: "Orthographic front elevation."},
	Entry{Key: ViewPlan, Fragment: "Top-down floor plan."},
	Entry{Key: ViewSection, Fragment: "Vertical section through the building."},
	Entry{Key: ViewAxonometric, Fragment: "Axonometric projection with parallel projection lines, seen from above at an angle."},
	Entry{Key: ViewIsometric, Fragment: "Isometric projection with equal 120 degree axes and parallel projection lines."},
)

func View(name string) (Entry, *Miss) {
	return views.lookup(name)
}

func Views() []NamedOption { return views.options() }

// IsParallelProjection reports whether the view is axonometric or isometric.
func IsParallelProjection(view string) bool {
	return SameKey(view, ViewAxonometric) || SameKey(view, ViewIsometric)
}

const (
	SideFront = "Front"
	SideBack  = "Back"
	SideLeft  = "Left"
	SideRight = "Right"
)

var elevationSides = newTable("elevation_side", Entry{Key: SideFront, Name: SideFront, Fragment: "front"},
	Entry{Key: SideFront, Fragment: "front"},
	Entry{Key: SideBack, Fragment: "back (rear)"},
	Entry{Key: SideLeft, Fragment: "left"},
	Entry{Key: SideRight, Fragment: "right"},
)

// ElevationSide resolves a facade side; unknown sides fall back to the front.
func ElevationSide(name string) (Entry, *Miss) {
	return elevationSides.lookup(name)
}

func ElevationSides() []NamedOption { return elevationSides.options() }
