package catalog

var atmospheres = newTable("atmosphere", Entry{
	Name:     "Balanced",
	Fragment: "balanced natural daylight",
},
	Entry{Key: "Sunny", Fragment: "clear sunny day with a deep blue sky"},
	Entry{Key: "Overcast", Fragment: "soft overcast sky with diffuse shadowless light"},
	Entry{Key: "Foggy", Fragment: "light morning fog softening the background"},
	Entry{Key: "Rainy", Fragment: "rain with wet reflective surfaces and puddles"},
	Entry{Key: "Snowy", Fragment: "fresh snow on the ground and roofs"},
	Entry{Key: "Golden Hour", Fragment: "warm golden hour sunlight with long shadows"},
	Entry{Key: "Blue Hour", Fragment: "blue hour twilight with warm interior lights"},
	Entry{Key: "Night", Fragment: "night with artificial facade and landscape lighting"},
	Entry{Key: "Autumn", Fragment: "autumn vegetation in orange and red tones"},
	Entry{Key: "Lush Spring", Fragment: "lush green spring vegetation and blossoming trees"},
	Entry{Key: "Lively", Fragment: "lively scene with people walking, cyclists and outdoor seating"},
)

func Atmosphere(name string) (Entry, *Miss) {
	return atmospheres.lookup(name)
}

func Atmospheres() []NamedOption { return atmospheres.options() }

// Options returns the UI option list of the named catalog, or nil for an
// unknown kind.
func Options(kind string) []NamedOption {
	t, ok := tables[NormalizeKey(kind)]
	if !ok {
		return nil
	}
	return t.options()
}

// Kinds lists the catalog names accepted by Options.
func Kinds() []string {
	return []string{
		exteriorStyles.name, interiorStyles.name, views.name, elevationSides.name, diagrams.name,
		verbs.name, materials.name, forms.name, timesOfDay.name, atmospheres.name,
	}
}

var tables = map[string]table{
	NormalizeKey(exteriorStyles.name): exteriorStyles,
	NormalizeKey(interiorStyles.name): interiorStyles,
	NormalizeKey(views.name):          views,
	NormalizeKey(elevationSides.name): elevationSides,
	NormalizeKey(diagrams.name):       diagrams,
	NormalizeKey(verbs.name):          verbs,
	NormalizeKey(materials.name):      materials,
	NormalizeKey(forms.name):          forms,
	NormalizeKey(timesOfDay.name):     timesOfDay,
	NormalizeKey(atmospheres.name):    atmospheres,
}

// Known reports whether key is a built-in entry of the named catalog.
func Known(kind, key string) bool {
	t, ok := tables[NormalizeKey(kind)]
	return ok && t.has(key)
}

// Canonical maps a loosely typed key to the built-in entry's key.
func Canonical(kind, key string) (string, bool) {
	t, ok := tables[NormalizeKey(kind)]
	if !ok {
		return "", false
	}
	e, ok := t.entries[NormalizeKey(key)]
	if !ok {
		return "", false
	}
	return e.Key, true
}
