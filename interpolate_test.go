package terrainrgb_test

import (
	"context"
	"math"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/terrainrgb/go-terrainrgb"
)

type testRaster struct {
	scaleX  int
	scaleY  int
	samples [][]float64
}

func (t *testRaster) Samples(ctx context.Context, coords []terrainrgb.Coord) ([]float64, error) {
	samples := make([]float64, len(coords))
	for i, coord := range coords {
		samples[i] = t.samples[coord.Y/t.scaleY][coord.X/t.scaleX]
	}
	return samples, nil
}

func (t *testRaster) Scale() (int, int) {
	return t.scaleX, t.scaleY
}

func TestInterpolateBilinear(t *testing.T) {
	simpleRaster := &testRaster{
		scaleX: 10,
		scaleY: 10,
		samples: [][]float64{
			{0, 1, 2},
			{2, 3, 4},
			{4, 5, 6},
		},
	}
	for _, tc := range []struct {
		raster   terrainrgb.Raster
		coords   [][]float64
		expected []float64
	}{
		{
			raster: simpleRaster,
			coords: [][]float64{
				{0, 0},
				{10, 0},
				{0, 10},
				{10, 10},
				{5, 5},
				{5, 0},
				{0, 5},
				{10, 5},
				{5, 10},
			},
			expected: []float64{
				0,
				1,
				2,
				3,
				1.5,
				0.5,
				1,
				2,
				2.5,
			},
		},
		{
			raster: &testRaster{
				scaleX: 1,
				scaleY: 1,
				samples: [][]float64{
					{0, 10},
					{20, 30},
				},
			},
			coords: [][]float64{
				{0.5, 0.5},
				{0.25, 0},
				{0, 0.75},
			},
			expected: []float64{
				15,
				2.5,
				15,
			},
		},
	} {
		actual, err := terrainrgb.InterpolateBilinear(t.Context(), tc.raster, tc.coords)
		assert.NoError(t, err)
		assert.Equal(t, tc.expected, actual)
	}
}

func TestInterpolateBilinear_Edges(t *testing.T) {
	raster := &testRaster{
		scaleX: 1,
		scaleY: 1,
		samples: [][]float64{
			{0, 10},
			{20, math.NaN()},
		},
	}
	actual, err := terrainrgb.InterpolateBilinear(t.Context(), raster, [][]float64{
		{0, 0},
		{0.5, 0},
		{0, 0.5},
		{1, 0},
		{0, 1},
	})
	assert.NoError(t, err)
	assert.Equal(t, []float64{0, 5, 10, 10, 20}, actual)

	actual, err = terrainrgb.InterpolateBilinear(t.Context(), raster, [][]float64{{0.5, 0.5}})
	assert.NoError(t, err)
	assert.True(t, math.IsNaN(actual[0]))
}
