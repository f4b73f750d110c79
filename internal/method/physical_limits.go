package method

import (
	"github.com/relabs-tech/spoofwatch/internal/geo"
	"github.com/relabs-tech/spoofwatch/internal/navstate"
)

func findMinMax(measurements []float64) (min, max float64) {
	if len(measurements) == 0 {
		return 0, 0
	}
	min, max = measurements[0], measurements[0]
	for _, v := range measurements[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// PhysicalSpeedLimit flags any reported speed above MaxSpeed.
type PhysicalSpeedLimit struct {
	MaxSpeed     float64
	Calibrating  bool
	measurements []float64
}

func (m *PhysicalSpeedLimit) Gating() Gating {
	return Gating{
		RequiredStateFields: []navstate.Field{navstate.FieldUpdateTime, navstate.FieldSpeed},
		VariableStateFields: []navstate.Field{navstate.FieldUpdateTime, navstate.FieldSpeed},
	}
}

func (m *PhysicalSpeedLimit) SpoofingIndicator(ctx Context) float64 {
	speed := *ctx.Latest.Speed
	if m.Calibrating {
		m.measurements = append(m.measurements, speed)
	}
	if speed > m.MaxSpeed {
		return 1
	}
	return 0
}

func (m *PhysicalSpeedLimit) CalculateParameters() (map[string]any, bool) {
	if !m.Calibrating {
		return nil, false
	}
	_, max := findMinMax(m.measurements)
	return map[string]any{"max_speed": max}, true
}

// PhysicalRateOfTurnLimit flags a course change per second that exceeds
// MaxRateOfTurn, but only while moving faster than
// MinSpeedToDetermineRateOfTurn (course is meaningless standing still).
type PhysicalRateOfTurnLimit struct {
	MaxRateOfTurn                 float64
	MinSpeedToDetermineRateOfTurn float64
	Calibrating                   bool
	measurements                  []float64
}

func (m *PhysicalRateOfTurnLimit) Gating() Gating {
	return Gating{
		RequiredStateFields: []navstate.Field{navstate.FieldUpdateTime, navstate.FieldCourse, navstate.FieldSpeed},
		VariableStateFields: []navstate.Field{navstate.FieldUpdateTime},
	}
}

func (m *PhysicalRateOfTurnLimit) SpoofingIndicator(ctx Context) float64 {
	speed := *ctx.Latest.Speed
	if speed < m.MinSpeedToDetermineRateOfTurn {
		return 0
	}
	delta := ctx.Latest.UpdateTime.Sub(*ctx.Previous.UpdateTime).Seconds()
	if delta == 0 {
		return 0
	}
	courseDiff := geo.MinimumAngleDifference(*ctx.Latest.Course, *ctx.Previous.Course)
	rateOfTurn := courseDiff / delta
	if rateOfTurn < 0 {
		rateOfTurn = -rateOfTurn
	}
	if m.Calibrating {
		m.measurements = append(m.measurements, rateOfTurn)
	}
	if rateOfTurn > m.MaxRateOfTurn {
		return 1
	}
	return 0
}

func (m *PhysicalRateOfTurnLimit) CalculateParameters() (map[string]any, bool) {
	if !m.Calibrating {
		return nil, false
	}
	_, max := findMinMax(m.measurements)
	return map[string]any{"max_rate_of_turn": max}, true
}

// PhysicalHeightLimit flags a reported height outside [MinHeight,
// MaxHeight].
type PhysicalHeightLimit struct {
	MinHeight, MaxHeight float64
	Calibrating          bool
	measurements         []float64
}

func (m *PhysicalHeightLimit) Gating() Gating {
	return Gating{
		RequiredStateFields: []navstate.Field{navstate.FieldHeightAboveSeaLevel},
		VariableStateFields: []navstate.Field{navstate.FieldHeightAboveSeaLevel},
	}
}

func (m *PhysicalHeightLimit) SpoofingIndicator(ctx Context) float64 {
	height := *ctx.Latest.HeightAboveSeaLevel
	if m.Calibrating {
		m.measurements = append(m.measurements, height)
	}
	if height < m.MinHeight || height > m.MaxHeight {
		return 1
	}
	return 0
}

func (m *PhysicalHeightLimit) CalculateParameters() (map[string]any, bool) {
	if !m.Calibrating {
		return nil, false
	}
	min, max := findMinMax(m.measurements)
	return map[string]any{"min_height": min, "max_height": max}, true
}

// CarrierToNoiseDensity reports the fraction of visible satellites whose
// carrier-to-noise density lies outside [MinCN0, MaxCN0].
type CarrierToNoiseDensity struct {
	MinCN0, MaxCN0 float64
}

func (m *CarrierToNoiseDensity) Gating() Gating {
	return Gating{
		RequiredStateFields:               []navstate.Field{navstate.FieldSatellites},
		VariableStateFields:               []navstate.Field{navstate.FieldSatellites},
		RequiredSatelliteStateFields:      []navstate.SatelliteField{navstate.SatFieldIsVisible, navstate.SatFieldCN0},
		MinSufficientSatelliteStateCount: 1,
	}
}

func (m *CarrierToNoiseDensity) SpoofingIndicator(ctx Context) float64 {
	score, count := 0, 0
	for _, sat := range ctx.Latest.Satellites {
		if !navstate.IsSatelliteSufficientlyDefined(sat, []navstate.SatelliteField{navstate.SatFieldIsVisible, navstate.SatFieldCN0}) {
			continue
		}
		if !sat.IsVisible {
			continue
		}
		cn0 := *sat.CN0
		if cn0 < m.MinCN0 || cn0 > m.MaxCN0 {
			score++
		}
		count++
	}
	if count == 0 {
		return 0
	}
	return float64(score) / float64(count)
}
