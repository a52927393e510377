package catalog

import "strings"

const (
	StyleMatchReference   = "Similar to Reference Image"
	StyleSatelliteToDrone = "Satellite to Drone"
	DefaultStyleFragment  = "architectural render"
)

// CustomStyle is a user-defined style. Custom styles extend the built-in
// catalogs and never shadow them.
type CustomStyle struct {
	Name        string `json:"name"`
	Instruction string `json:"instruction"`
}

var fallbackStyle = Entry{Key: "", Name: "Default", Fragment: DefaultStyleFragment}

var exteriorStyles = newTable("exterior_style", fallbackStyle,
	Entry{Key: "Photorealistic", Fragment: "Photorealistic architectural photography: physically accurate materials, natural global illumination, crisp detail, realistic vegetation and sky, shot on a full-frame camera with a tilt-shift lens."},
	Entry{Key: StyleMatchReference, Fragment: "Match the rendering style of the reference images exactly: same color grading, material palette, lighting mood and level of realism."},
	Entry{Key: StyleSatelliteToDrone, Fragment: "Photorealistic oblique drone photography reconstructed from a flat satellite map, with believable terrain, trees, roads and neighbouring buildings in 3D."},
	Entry{Key: "Cinematic", Fragment: "Cinematic architectural still: dramatic contrast, filmic color grade, shallow haze, anamorphic lens feel, storytelling light."},
	Entry{Key: "Watercolor", Fragment: "Loose architectural watercolor: transparent washes, soft bleeding edges, visible paper texture, restrained ink linework."},
	Entry{Key: "Pencil Sketch", Fragment: "Hand-drawn graphite sketch: confident construction lines, hatching for shade, white paper background, no color."},
	Entry{Key: "Clay Model", Fragment: "Monochrome clay model render: uniform matte off-white material, soft ambient occlusion, studio sky light, no textures."},
	Entry{Key: "Minimalist White", Fragment: "Minimalist white architecture: pure white surfaces, clean glass, soft diffuse daylight, calm and gallery-like."},
	Entry{Key: "Night Render", Fragment: "Night-time architectural render: warm interior glow through glazing, accent facade lighting, deep blue sky, reflective wet ground."},
	Entry{Key: "Brutalist", Fragment: "Brutalist character: board-marked raw concrete, heavy shadows, overcast sky, weathered textures."},
	Entry{Key: "Scandinavian", Fragment: "Scandinavian architecture: light timber cladding, black window frames, muted northern daylight, birch and grass landscape."},
	Entry{Key: "Parametric", Fragment: "Parametric futurism: smooth continuous surfaces, white composite and glass, sharp specular highlights, clean futuristic context."},
	Entry{Key: "Competition Board", Fragment: "Architecture competition image: vivid but natural colors, people and life in the scene, lush landscape, slightly stylized atmosphere."},
	Entry{Key: "Blueprint", Fragment: "Technical blueprint rendering: white linework on deep blue, precise line weights, subtle grid, no shading."},
)

var interiorStyles = newTable("interior_style", fallbackStyle,
	Entry{Key: "Modern Minimalist", Fragment: "modern minimalist interior: clean lines, neutral palette, concealed storage, soft indirect lighting"},
	Entry{Key: "Scandinavian", Fragment: "Scandinavian interior: pale oak, white walls, wool and linen textiles, cosy daylight"},
	Entry{Key: "Japandi", Fragment: "Japandi interior: natural wood, paper and stone, low furniture, muted earth tones, calm balance"},
	Entry{Key: "Industrial Loft", Fragment: "industrial loft interior: exposed brick and concrete, black steel, leather, large factory windows"},
	Entry{Key: "Mid-Century Modern", Fragment: "mid-century modern interior: walnut furniture, tapered legs, mustard and teal accents, graphic lighting"},
	Entry{Key: "Luxury Classic", Fragment: "luxury classic interior: marble, brass details, wall mouldings, velvet upholstery, chandeliers"},
	Entry{Key: "Biophilic", Fragment: "biophilic interior: abundant indoor plants, natural materials, daylight, organic shapes"},
	Entry{Key: "Photorealistic", Fragment: "photorealistic interior photography: accurate materials, balanced exposure, natural light"},
	Entry{Key: StyleMatchReference, Fragment: "the exact style, mood and furnishing of the reference images"},
)

func ExteriorStyle(name string) (Entry, *Miss) {
	return exteriorStyles.lookup(name)
}

func InteriorStyle(name string) (Entry, *Miss) {
	return interiorStyles.lookup(name)
}

func ExteriorStyles() []NamedOption { return exteriorStyles.options() }
func InteriorStyles() []NamedOption { return interiorStyles.options() }

// ResolveStyle looks a style up in the exterior catalog, then in the user's
// custom styles, then falls back to DefaultStyleFragment.
func ResolveStyle(name string, custom []CustomStyle) (Entry, *Miss) {
	return resolveStyle(exteriorStyles, name, custom)
}

func ResolveInteriorStyle(name string, custom []CustomStyle) (Entry, *Miss) {
	return resolveStyle(interiorStyles, name, custom)
}

func resolveStyle(t table, name string, custom []CustomStyle) (Entry, *Miss) {
	if e, miss := t.lookup(name); miss == nil {
		return e, nil
	}
	for _, c := range custom {
		if SameKey(c.Name, name) && strings.TrimSpace(c.Instruction) != "" {
			return Entry{Key: c.Name, Name: c.Name, Fragment: strings.TrimSpace(c.Instruction)}, nil
		}
	}
	return t.fallback, &Miss{Catalog: t.name, Key: name}
}
