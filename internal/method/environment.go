package method

import (
	"github.com/relabs-tech/spoofwatch/internal/navstate"
	"github.com/relabs-tech/spoofwatch/internal/watermap"
)

// PhysicalEnvironmentLimit flags a reported position that contradicts
// the class of terrain the device is expected to operate on (e.g. a
// marine receiver reporting a position on land).
type PhysicalEnvironmentLimit struct {
	OnLand, OnWater bool
	Map             *watermap.Map
	Calibrating     bool

	measurementsOnLand  []bool
	measurementsOnWater []bool
}

func (m *PhysicalEnvironmentLimit) Gating() Gating {
	return Gating{
		RequiredStateFields: []navstate.Field{navstate.FieldLatitude, navstate.FieldLongitude},
		VariableStateFields: []navstate.Field{navstate.FieldLatitude, navstate.FieldLongitude},
	}
}

func (m *PhysicalEnvironmentLimit) SpoofingIndicator(ctx Context) float64 {
	if m.OnWater && m.OnLand && !m.Calibrating {
		return 0
	}
	if !m.OnWater && !m.OnLand && !m.Calibrating {
		return 1
	}

	lat, lon := *ctx.Latest.Latitude, *ctx.Latest.Longitude
	isOnWater := m.Map.IsOnWater(lat, lon, watermap.DefaultThreshold)
	isOnLand := m.Map.IsOnLand(lat, lon, watermap.DefaultThreshold)
	if m.Calibrating {
		m.measurementsOnLand = append(m.measurementsOnLand, isOnLand)
		m.measurementsOnWater = append(m.measurementsOnWater, isOnWater)
	}
	if (m.OnWater && !isOnWater) || (m.OnLand && !isOnLand) {
		return 1
	}
	return 0
}

func (m *PhysicalEnvironmentLimit) CalculateParameters() (map[string]any, bool) {
	if !m.Calibrating {
		return nil, false
	}
	return map[string]any{
		"on_land":  anyTrue(m.measurementsOnLand),
		"on_water": anyTrue(m.measurementsOnWater),
	}, true
}

func anyTrue(vs []bool) bool {
	for _, v := range vs {
		if v {
			return true
		}
	}
	return false
}
