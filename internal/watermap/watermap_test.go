package watermap

import (
	"image"
	"image/color"
	"testing"

	"golang.org/x/image/draw"
)

// synthetic builds a 360x180 raster that is pure black (water) in the
// left half and pure white (land) in the right half, scaled up with
// draw.NearestNeighbor the way a real basemap resample pipeline would.
func synthetic(t *testing.T) *Map {
	t.Helper()
	small := image.NewGray(image.Rect(0, 0, 2, 1))
	small.SetGray(0, 0, color.Gray{Y: 0})   // left half: water
	small.SetGray(1, 0, color.Gray{Y: 255}) // right half: land

	big := image.NewRGBA(image.Rect(0, 0, 360, 180))
	draw.NearestNeighbor.Scale(big, big.Bounds(), small, small.Bounds(), draw.Over, nil)
	return NewMap(big)
}

func TestWaterProbability(t *testing.T) {
	m := synthetic(t)

	// longitude -90 lands in the left (water) half, +90 in the right
	// (land) half, for any latitude.
	waterProb := m.WaterProbability(0, -90)
	landProb := m.WaterProbability(0, 90)

	if waterProb <= landProb {
		t.Fatalf("expected the water half to score higher probability than the land half, got water=%v land=%v", waterProb, landProb)
	}
	if !m.IsOnWater(0, -90, DefaultThreshold) {
		t.Errorf("expected (-90) to be classified on water")
	}
	if !m.IsOnLand(0, 90, DefaultThreshold) {
		t.Errorf("expected (90) to be classified on land")
	}
}
