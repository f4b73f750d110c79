// Package watermap answers "is this point on water or land?" from a
// bundled equirectangular raster, the same lookup the original
// implementation's PhysicalEnvironmentLimit method makes before trusting
// a device's reported position.
package watermap

import (
	"fmt"
	"image"
	_ "image/png"
	"os"
)

// DefaultThreshold is the water-probability cutoff used by IsOnWater and
// IsOnLand when none is given.
const DefaultThreshold = 0.25

// Map is a grayscale raster where darker pixels mean "more likely
// water". Position lookup treats the image as an equirectangular
// projection of the whole globe.
type Map struct {
	img    image.Image
	width  int
	height int
}

// Load decodes the PNG at path into a Map.
func Load(path string) (*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("watermap: opening %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("watermap: decoding %s: %w", path, err)
	}
	return NewMap(img), nil
}

// NewMap wraps an already-decoded image, for tests and callers that
// build the raster in memory.
func NewMap(img image.Image) *Map {
	bounds := img.Bounds()
	return &Map{img: img, width: bounds.Dx(), height: bounds.Dy()}
}

// IsOnLand reports whether latitude/longitude's water probability is
// below 1-threshold.
func (m *Map) IsOnLand(latitude, longitude, threshold float64) bool {
	return !m.IsOnWater(latitude, longitude, 1-threshold)
}

// IsOnWater reports whether latitude/longitude's water probability
// exceeds threshold.
func (m *Map) IsOnWater(latitude, longitude, threshold float64) bool {
	return m.WaterProbability(latitude, longitude) > threshold
}

// WaterProbability returns a value in [0, 1]: 1 for the darkest pixel at
// this position, 0 for the brightest.
func (m *Map) WaterProbability(latitude, longitude float64) float64 {
	x, y := m.pixelPosition(latitude, longitude)
	r, g, b, _ := m.img.At(x, y).RGBA()
	// RGBA() returns 16-bit-per-channel premultiplied values; scale to
	// the 0-255 range the grayscale formula expects.
	grayscale := (float64(r>>8) + float64(g>>8) + float64(b>>8)) / 3
	return 1 - grayscale/255
}

func (m *Map) pixelPosition(latitude, longitude float64) (x, y int) {
	fx := float64(m.width) * (180 + longitude) / 360
	fy := float64(m.height) * (90 - latitude) / 180
	x = int(fx) % m.width
	y = int(fy) % m.height
	if x < 0 {
		x += m.width
	}
	if y < 0 {
		y += m.height
	}
	return x, y
}
