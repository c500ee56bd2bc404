package datastructure

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagsIndexInterning(t *testing.T) {
	idx := NewTagsIndex()
	assert.Equal(t, EmptyTagsID, idx.Add(TagsCollection{}))

	a := idx.Add(NewTagsCollection("highway", "residential", "name", "Jalan Kaliurang"))
	b := idx.Add(NewTagsCollection("name", "Jalan Kaliurang", "highway", "residential"))
	c := idx.Add(NewTagsCollection("highway", "footway"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, "residential", idx.Get(a).Find("highway"))
	assert.Empty(t, idx.Get(9999))
	assert.Equal(t, 3, idx.Len())
}

func TestTagsIndexConcurrentAdd(t *testing.T) {
	idx := NewTagsIndex()
	var wg sync.WaitGroup
	ids := make([]uint32, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = idx.Add(NewTagsCollection("highway", "primary"))
		}(i)
	}
	wg.Wait()
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestTagsCollectionSet(t *testing.T) {
	tags := NewTagsCollection("highway", "primary", "oneway", "yes")
	updated := tags.Set("oneway", "no").Set("maxspeed", "50")

	assert.Equal(t, "yes", tags.Find("oneway"), "Set must not modify the receiver")
	assert.Equal(t, "no", updated.Find("oneway"))
	assert.Equal(t, "50", updated.Find("maxspeed"))
	assert.Len(t, updated, 3)
	assert.True(t, updated.Has("maxspeed"))
	assert.False(t, tags.Has("maxspeed"))
}

func TestRouteOutputs(t *testing.T) {
	r := Route{
		Vehicle: "car",
		Points: []RoutePoint{
			{Coord: NewCoordinate(38.5, -120.2)},
			{Coord: NewCoordinate(40.7, -120.95), Distance: 10, Time: 1},
			{Coord: NewCoordinate(43.252, -126.453), Distance: 20, Time: 2},
		},
		TotalDistance: 20,
		TotalTime:     2,
	}

	assert.Equal(t, "_p~iF~ps|U_ulLnnqC_mqNvxq`@", r.Polyline())

	raw, err := r.GeoJSON()
	require.NoError(t, err)

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type        string      `json:"type"`
				Coordinates [][]float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]interface{} `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(raw, &fc))
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "LineString", fc.Features[0].Geometry.Type)
	assert.Equal(t, []float64{-120.2, 38.5}, fc.Features[0].Geometry.Coordinates[0])
	assert.Equal(t, "car", fc.Features[0].Properties["vehicle"])
}
