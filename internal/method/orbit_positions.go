package method

import (
	"github.com/relabs-tech/spoofwatch/internal/geo"
	"github.com/relabs-tech/spoofwatch/internal/navstate"
	"github.com/relabs-tech/spoofwatch/internal/orbit"
)

// requiredOrbitSatelliteFields is the set of per-satellite fields
// OrbitPositions needs before it will trust a GSV/GSA-derived entry.
var requiredOrbitSatelliteFields = []navstate.SatelliteField{
	navstate.SatFieldPRN, navstate.SatFieldIsVisible, navstate.SatFieldAzimuth, navstate.SatFieldElevation,
}

// OrbitPositions cross-checks every visible satellite's reported
// azimuth/elevation against where its published orbital elements say it
// should actually be, from the device's claimed position and time.
type OrbitPositions struct {
	Catalog                   *orbit.Catalog
	MinElevation              float64
	AllowedAzimuthDeviation   float64
	AllowedElevationDeviation float64
}

func (m *OrbitPositions) Gating() Gating {
	return Gating{
		RequiredStateFields: []navstate.Field{
			navstate.FieldUpdateTime, navstate.FieldLatitude, navstate.FieldLongitude,
			navstate.FieldHeightAboveSeaLevel, navstate.FieldSatellites,
		},
		VariableStateFields:              []navstate.Field{navstate.FieldSatellites},
		RequiredSatelliteStateFields:     requiredOrbitSatelliteFields,
		MinSufficientSatelliteStateCount: 1,
	}
}

func (m *OrbitPositions) SpoofingIndicator(ctx Context) float64 {
	state := ctx.Latest
	score, count := 0, 0
	for _, sat := range state.Satellites {
		if !navstate.IsSatelliteSufficientlyDefined(sat, requiredOrbitSatelliteFields) {
			continue
		}
		if !sat.IsVisible {
			continue
		}
		tle := m.Catalog.TLE(*sat.PRN)
		if tle == nil {
			continue
		}
		elevation, azimuth := tle.ObserverView(*state.UpdateTime, *state.Latitude, *state.Longitude, *state.HeightAboveSeaLevel)
		azimuthDiff := geo.MinimumAngleDifference(azimuth, *sat.Azimuth)
		elevationDiff := geo.MinimumAngleDifference(elevation, *sat.Elevation)

		if *sat.Elevation < m.MinElevation ||
			azimuthDiff > m.AllowedAzimuthDeviation ||
			elevationDiff > m.AllowedElevationDeviation {
			score++
		}
		count++
	}
	if count == 0 {
		return 0
	}
	return float64(score) / float64(count)
}
