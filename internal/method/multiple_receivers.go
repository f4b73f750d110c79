package method

import (
	"fmt"
	"strings"
	"time"

	"github.com/relabs-tech/spoofwatch/internal/geo"
	"github.com/relabs-tech/spoofwatch/internal/navstate"
)

// DevicePair names the two devices a MultipleReceivers expected distance
// applies to. Order does not matter for lookup. On the wire (config and
// calibration output) a pair is the string "A,B".
type DevicePair struct {
	A, B string
}

func (p DevicePair) MarshalText() ([]byte, error) {
	return []byte(p.A + "," + p.B), nil
}

func (p *DevicePair) UnmarshalText(text []byte) error {
	a, b, found := strings.Cut(string(text), ",")
	if !found || a == "" || b == "" {
		return fmt.Errorf(`method: device pair %q is not of the form "A,B"`, text)
	}
	p.A, p.B = a, b
	return nil
}

func normalizePair(p DevicePair) DevicePair {
	if p.A > p.B {
		return DevicePair{A: p.B, B: p.A}
	}
	return p
}

// pairValue looks p up in values under either device order.
func pairValue(values map[DevicePair]float64, p DevicePair) float64 {
	if v, ok := values[p]; ok {
		return v
	}
	return values[DevicePair{A: p.B, B: p.A}]
}

var multipleReceiversRequiredFields = []navstate.Field{
	navstate.FieldGPSTime, navstate.FieldUpdateTime, navstate.FieldLatitude, navstate.FieldLongitude,
}

// MultipleReceivers (PDM, positional drift monitoring) flags a device
// whose smoothed distance to a co-located sibling device has drifted
// well below the expected separation -- the signature of one receiver
// being spoofed onto the other's position while the other stays honest.
type MultipleReceivers struct {
	Distances               map[DevicePair]float64
	DistanceRatioThresholds map[DevicePair]float64
	NewMeasurementWeight    float64
	Calibrating             bool

	pastMeasurements map[DevicePair]float64
	measurements     map[DevicePair][]float64
}

func (m *MultipleReceivers) Gating() Gating {
	return Gating{
		RequiredStateFields: multipleReceiversRequiredFields,
		VariableStateFields: []navstate.Field{navstate.FieldGPSTime, navstate.FieldLatitude, navstate.FieldLongitude},
	}
}

func (m *MultipleReceivers) weight() float64 {
	if m.NewMeasurementWeight == 0 {
		return 0.1
	}
	return m.NewMeasurementWeight
}

func (m *MultipleReceivers) SpoofingIndicator(ctx Context) float64 {
	if m.pastMeasurements == nil {
		m.pastMeasurements = make(map[DevicePair]float64)
		if m.Calibrating {
			m.measurements = make(map[DevicePair][]float64)
		}
	}

	for pair, expectedDistance := range m.Distances {
		if ctx.DeviceID != pair.A && ctx.DeviceID != pair.B {
			continue
		}
		otherDeviceID := pair.A
		if pair.A == ctx.DeviceID {
			otherDeviceID = pair.B
		}
		otherHistory := ctx.Devices.StateHistory(otherDeviceID)
		if otherHistory == nil {
			continue
		}
		otherLatest := otherHistory.Latest()
		if !navstate.IsSufficientlyDefined(otherLatest, multipleReceiversRequiredFields) {
			continue
		}

		// Whichever device's latest reading is older becomes the
		// reference point in time; the other device's history supplies
		// an interpolated position at that instant.
		var targetHistory *navstate.StateHistory
		var referenceState *navstate.NavState
		if ctx.Latest.UpdateTime.Before(*otherLatest.UpdateTime) {
			targetHistory, referenceState = otherHistory, ctx.Latest
		} else {
			targetHistory, referenceState = ctx.History, otherLatest
		}

		estimated := estimateState(targetHistory, *referenceState.UpdateTime)
		if !navstate.IsSufficientlyDefined(estimated, multipleReceiversRequiredFields) {
			continue
		}

		measuredDistance := geo.Haversine(*referenceState.Latitude, *referenceState.Longitude, *estimated.Latitude, *estimated.Longitude)

		normalized := normalizePair(pair)
		previous, seen := m.pastMeasurements[normalized]
		if !seen {
			previous = expectedDistance
		}
		weight := m.weight()
		average := (1-weight)*previous + weight*measuredDistance
		m.pastMeasurements[normalized] = average

		if m.Calibrating {
			m.measurements[normalized] = append(m.measurements[normalized], average)
		}

		distanceRatio := average / expectedDistance
		if distanceRatio < pairValue(m.DistanceRatioThresholds, pair) {
			return 1
		}
	}
	return 0
}

// estimateState linearly interpolates latitude/longitude between the
// snapshots immediately before and after referenceTime in history, so a
// device's position can be compared against another device's reading
// even when neither sampled at exactly the same instant.
func estimateState(history *navstate.StateHistory, referenceTime time.Time) *navstate.NavState {
	after := history.StateAfter(referenceTime)
	before := history.StateBefore(referenceTime)
	if !navstate.IsSufficientlyDefined(after, multipleReceiversRequiredFields) ||
		!navstate.IsSufficientlyDefined(before, multipleReceiversRequiredFields) {
		return nil
	}

	oldDelta := after.UpdateTime.Sub(*before.UpdateTime).Seconds()
	newDelta := referenceTime.Sub(*before.UpdateTime).Seconds()
	fraction := 0.0
	if oldDelta != 0 {
		fraction = newDelta / oldDelta
	}

	lat := *before.Latitude + (*after.Latitude-*before.Latitude)*fraction
	lon := *before.Longitude + (*after.Longitude-*before.Longitude)*fraction

	estimated := before.Clone()
	estimated.UpdateTime = &referenceTime
	estimated.Latitude = &lat
	estimated.Longitude = &lon
	return estimated
}

func (m *MultipleReceivers) CalculateParameters() (map[string]any, bool) {
	if !m.Calibrating {
		return nil, false
	}
	thresholds := make(map[DevicePair]float64, len(m.measurements))
	for pair, measurements := range m.measurements {
		expected := pairValue(m.Distances, pair)
		min, _ := findMinMax(measurements)
		thresholds[pair] = min / expected
	}
	return map[string]any{
		"distances":                 m.Distances,
		"distance_ratio_thresholds": thresholds,
	}, true
}
