package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeKey(t *testing.T) {
	tests := map[string]string{
		"Wood Block":     "wood block",
		"wood_block":     "wood block",
		"  WOOD-block  ": "wood block",
		"Bird's  Eye":    "bird's eye",
		"":               "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeKey(in), in)
	}
}

func TestLookupsAreTotal(t *testing.T) {
	lookups := map[string]func(string) (Entry, *Miss){
		"exterior":   ExteriorStyle,
		"interior":   InteriorStyle,
		"view":       View,
		"side":       ElevationSide,
		"diagram":    Diagram,
		"verb":       Verb,
		"material":   Material,
		"form":       Form,
		"time":       TimeOfDay,
		"atmosphere": Atmosphere,
	}
	for name, fn := range lookups {
		t.Run(name, func(t *testing.T) {
			e, miss := fn("definitely-not-a-key")
			require.NotNil(t, miss)
			assert.Equal(t, "definitely-not-a-key", miss.Key)
			assert.NotEmpty(t, e.Fragment)
		})
	}
}

func TestIdeationDefaults(t *testing.T) {
	m, miss := Material("unobtainium")
	require.NotNil(t, miss)
	assert.Equal(t, "Concrete", m.Key)

	f, miss := Form("blobby")
	require.NotNil(t, miss)
	assert.Equal(t, "Orthogonal", f.Key)

	v, miss := Verb("Melt")
	require.NotNil(t, miss)
	assert.Contains(t, v.Fragment, "Melt")
}

func TestLookupHits(t *testing.T) {
	e, miss := Material("wood_block")
	assert.Nil(t, miss)
	assert.Equal(t, "Wood Block", e.Name)
	assert.Contains(t, e.Fragment, "wood block")

	e, miss = ExteriorStyle("photorealistic")
	assert.Nil(t, miss)
	assert.Equal(t, "Photorealistic", e.Key)
}

func TestResolveStyle(t *testing.T) {
	custom := []CustomStyle{
		{Name: "Photorealistic", Instruction: "should never win over the catalog"},
		{Name: "Vaporwave", Instruction: "pink and teal neon grid"},
		{Name: "Empty", Instruction: "   "},
	}

	e, miss := ResolveStyle("Photorealistic", custom)
	assert.Nil(t, miss)
	assert.NotEqual(t, "should never win over the catalog", e.Fragment)

	e, miss = ResolveStyle("vaporwave", custom)
	assert.Nil(t, miss)
	assert.Equal(t, "pink and teal neon grid", e.Fragment)

	e, miss = ResolveStyle("Empty", custom)
	require.NotNil(t, miss)
	assert.Equal(t, DefaultStyleFragment, e.Fragment)

	e, miss = ResolveInteriorStyle("Unknown", nil)
	require.NotNil(t, miss)
	assert.Equal(t, DefaultStyleFragment, e.Fragment)
	assert.Equal(t, "interior_style", miss.Catalog)
}

func TestOptions(t *testing.T) {
	for _, kind := range Kinds() {
		opts := Options(kind)
		assert.NotEmpty(t, opts, kind)
	}
	assert.Nil(t, Options("nope"))

	views := Options("view")
	require.NotEmpty(t, views)
	assert.Equal(t, ViewSimilarToInput, views[0].Key)

	assert.True(t, Known("material", "wood-block"))
	assert.False(t, Known("material", "unobtainium"))
	assert.True(t, IsParallelProjection("isometric"))
	assert.False(t, IsParallelProjection(ViewPerspective))
}
