package walk

import (
	"testing"

	"github.com/speakeasy-api/serverlessworkflow/jsonpointer"
	"github.com/stretchr/testify/assert"
)

func TestLocations_ToJSONPointer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		locations Locations
		expected  jsonpointer.JSONPointer
	}{
		{name: "root", locations: nil, expected: "/"},
		{name: "single field", locations: Locations{Field("items")}, expected: "/items"},
		{name: "map entry", locations: Locations{Key("properties", "a/b")}, expected: "/properties/a~1b"},
		{name: "nested", locations: Locations{Key("properties", "user"), Index("allOf", 1), Field("not")}, expected: "/properties/user/allOf/1/not"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, tt.locations.ToJSONPointer())
		})
	}
}

func TestLocations_Append_DoesNotShareBacking(t *testing.T) {
	t.Parallel()

	base := make(Locations, 0, 4)
	base = append(base, Field("items"))

	a := base.Append(Index("allOf", 0))
	b := base.Append(Index("anyOf", 1))

	assert.Equal(t, jsonpointer.JSONPointer("/items/allOf/0"), a.ToJSONPointer())
	assert.Equal(t, jsonpointer.JSONPointer("/items/anyOf/1"), b.ToJSONPointer())
}
