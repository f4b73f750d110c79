package orbit

import (
	"strings"
	"testing"
	"time"
)

// A real GPS TLE (PRN 1 / NORAD 32711), used only to sanity check that
// parsing and propagation produce plausible, stable numbers -- not
// validated against an ephemeris.
const sampleCatalog = `1
1 32711U 08012A   24001.00000000  .00000023  00000-0  00000-0 0  9991
2 32711  55.0000  40.0000 0050000  90.0000 270.0000  2.00561130123456
`

func TestParseCatalog(t *testing.T) {
	tles, err := ParseCatalog(strings.NewReader(sampleCatalog))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tles) != 1 {
		t.Fatalf("expected 1 tle, got %d", len(tles))
	}
	tle := tles[0]
	if tle.PRN != 1 {
		t.Errorf("PRN = %d, want 1", tle.PRN)
	}
	if tle.InclinationRad <= 0 {
		t.Errorf("expected a positive inclination in radians")
	}
	if tle.MeanMotionRadPerSec <= 0 {
		t.Errorf("expected a positive mean motion")
	}
}

func TestCatalogLookup(t *testing.T) {
	tles, err := ParseCatalog(strings.NewReader(sampleCatalog))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	catalog := NewCatalog(tles)
	if catalog.TLE(1) == nil {
		t.Errorf("expected catalog to contain prn 1")
	}
	if catalog.TLE(99) != nil {
		t.Errorf("expected catalog to not contain prn 99")
	}
}

func TestObserverViewIsStableAndBounded(t *testing.T) {
	tles, err := ParseCatalog(strings.NewReader(sampleCatalog))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tle := tles[0]

	at := tle.Epoch.Add(2 * time.Hour)
	elevation, azimuth := tle.ObserverView(at, 48.1, 11.6, 500)

	if elevation < -90 || elevation > 90 {
		t.Errorf("elevation out of range: %v", elevation)
	}
	if azimuth < 0 || azimuth >= 360 {
		t.Errorf("azimuth out of range: %v", azimuth)
	}

	elevation2, azimuth2 := tle.ObserverView(at, 48.1, 11.6, 500)
	if elevation != elevation2 || azimuth != azimuth2 {
		t.Errorf("ObserverView should be deterministic for the same inputs")
	}
}
