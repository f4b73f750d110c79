// Package method implements the spoofing-indicator framework: the four
// gating declarations every detector makes, the group combinators that
// build composite detectors out of simpler ones, and the eight concrete
// detectors themselves.
package method

import "github.com/relabs-tech/spoofwatch/internal/navstate"

// Gating is the set of declarations a Method makes about when the
// detection engine should even bother calling it: which NavState fields
// must be present, which of those must have changed since the last
// evaluation, and how many satellites must carry the required satellite
// fields.
type Gating struct {
	RequiredStateFields              []navstate.Field
	VariableStateFields              []navstate.Field
	RequiredSatelliteStateFields     []navstate.SatelliteField
	MinSufficientSatelliteStateCount int
}

// Merge folds other's declarations into g, taking the union of every
// field list and the max of the satellite-count threshold. Used by group
// combinators to advertise the combined gating of their members.
func (g Gating) Merge(other Gating) Gating {
	g.RequiredStateFields = append(g.RequiredStateFields, other.RequiredStateFields...)
	g.VariableStateFields = append(g.VariableStateFields, other.VariableStateFields...)
	g.RequiredSatelliteStateFields = append(g.RequiredSatelliteStateFields, other.RequiredSatelliteStateFields...)
	if other.MinSufficientSatelliteStateCount > g.MinSufficientSatelliteStateCount {
		g.MinSufficientSatelliteStateCount = other.MinSufficientSatelliteStateCount
	}
	return g
}

// DeviceLookup resolves a device's own StateHistory by id. Methods that
// reason about more than one device (MultipleReceivers) use it to reach
// across devices without the engine exposing its whole device table.
type DeviceLookup interface {
	StateHistory(deviceID string) *navstate.StateHistory
}

// Context carries everything a Method needs to score one evaluation: the
// device being evaluated, its latest and last-evaluated snapshots, its
// full history, and a way to reach other devices' histories.
type Context struct {
	DeviceID string
	Latest   *navstate.NavState
	Previous *navstate.NavState
	History  *navstate.StateHistory
	Devices  DeviceLookup
}

// Method is a single spoofing-indicator computation. Implementations
// return a value in [0, 1]; the engine fires an alert when it exceeds the
// configured detection threshold.
type Method interface {
	Gating() Gating
	SpoofingIndicator(ctx Context) float64
}

// Calibratable is implemented by methods that can summarize their
// observed measurements into tuned parameters. Not every method supports
// calibration; callers should check the ok return.
type Calibratable interface {
	CalculateParameters() (map[string]any, bool)
}
