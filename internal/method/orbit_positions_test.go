package method

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/relabs-tech/spoofwatch/internal/navstate"
	"github.com/relabs-tech/spoofwatch/internal/orbit"
)

// orbitTestCatalog carries four copies of one real GPS element set under
// different PRNs; the test only needs each PRN to have a deterministic
// expected view, not a distinct orbit.
func orbitTestCatalog(t *testing.T) *orbit.Catalog {
	t.Helper()
	var b strings.Builder
	for prn := 1; prn <= 4; prn++ {
		fmt.Fprintf(&b, "%d\n", prn)
		b.WriteString("1 32711U 08012A   24001.00000000  .00000023  00000-0  00000-0 0  9991\n")
		b.WriteString("2 32711  55.0000  40.0000 0050000  90.0000 270.0000  2.00561130123456\n")
	}
	tles, err := orbit.ParseCatalog(strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("parsing test catalog: %v", err)
	}
	return orbit.NewCatalog(tles)
}

func TestOrbitPositionsAnomalousRatio(t *testing.T) {
	catalog := orbitTestCatalog(t)
	m := &OrbitPositions{
		Catalog:                   catalog,
		MinElevation:              -91, // reported elevations may be below the horizon here
		AllowedAzimuthDeviation:   5,
		AllowedElevationDeviation: 5,
	}

	at := time.Date(2024, 1, 1, 2, 0, 0, 0, time.UTC)
	lat, lon, height := 48.1, 11.6, 500.0
	state := &navstate.NavState{
		UpdateTime:          navTime(at),
		Latitude:            &lat,
		Longitude:           &lon,
		HeightAboveSeaLevel: &height,
	}

	// Three satellites report exactly where their elements put them; the
	// fourth reports an azimuth 90 degrees off.
	for prn := 1; prn <= 4; prn++ {
		elevation, azimuth := catalog.TLE(prn).ObserverView(at, lat, lon, height)
		if prn == 4 {
			azimuth += 90
			if azimuth >= 360 {
				azimuth -= 360
			}
		}
		sat := state.UpsertSatellite(prn)
		sat.Elevation = &elevation
		sat.Azimuth = &azimuth
		sat.IsVisible = true
	}

	if got := m.SpoofingIndicator(Context{Latest: state}); got != 0.25 {
		t.Errorf("indicator = %v, want 0.25 (one of four satellites anomalous)", got)
	}
}

func TestOrbitPositionsIgnoresUncataloguedSatellites(t *testing.T) {
	m := &OrbitPositions{Catalog: orbitTestCatalog(t), MinElevation: -91}

	at := time.Date(2024, 1, 1, 2, 0, 0, 0, time.UTC)
	lat, lon, height := 48.1, 11.6, 500.0
	state := &navstate.NavState{
		UpdateTime:          navTime(at),
		Latitude:            &lat,
		Longitude:           &lon,
		HeightAboveSeaLevel: &height,
	}
	sat := state.UpsertSatellite(99) // not in the catalog
	sat.Elevation = floatp(45)
	sat.Azimuth = floatp(180)
	sat.IsVisible = true

	if got := m.SpoofingIndicator(Context{Latest: state}); got != 0 {
		t.Errorf("expected 0 with no matching catalog entries, got %v", got)
	}
}
