// Package detect wires the NMEA parser, the per-device state history,
// and the method framework together into the actual gating pipeline: for
// every sentence handled, decide which methods should even run, and fire
// an alert callback when one of them crosses the configured threshold.
package detect

import (
	"log"
	"reflect"
	"sync"
	"time"

	"github.com/relabs-tech/spoofwatch/internal/method"
	"github.com/relabs-tech/spoofwatch/internal/navstate"
	"github.com/relabs-tech/spoofwatch/internal/nmea"
)

// Alert describes one spoofing detection fired by the engine.
type Alert struct {
	DeviceID          string
	Time              time.Time
	SpoofingIndicator float64
	Method            method.Method
	State             *navstate.NavState
}

// OnAlert is called once per crossed threshold. Implementations must not
// block the engine for long; slow sinks should buffer internally.
type OnAlert func(Alert)

// device is the engine's bookkeeping for one tracked device id.
type device struct {
	id      string
	history *navstate.StateHistory
}

// Engine folds incoming sentences into per-device state and evaluates
// every configured method against each update, exactly as
// DetectionHandler does in the system this was modeled on. A single
// mutex guards every mutable field below -- the device list, the
// previous-states map, and (transitively, through method.Context) each
// method's own internal memory -- so sources that call Handle
// concurrently (multiple serial ports, a packet sniffer racing a
// calibration replay) never need to coordinate among themselves.
type Engine struct {
	mu sync.Mutex

	devices   map[string]*device
	methods   []method.Method
	threshold float64
	onAlert   OnAlert

	// previousStates remembers, per (device id, method), the last
	// NavState that passed every gate -- including the satellite-count
	// gate -- so the next call can test is_state_different against it.
	previousStates map[previousStateKey]*navstate.NavState

	logger *log.Logger
}

type previousStateKey struct {
	deviceID   string
	methodType reflect.Type
}

// NewEngine builds a detection engine that tracks deviceIDs, evaluates
// methods in order, and calls onAlert whenever a method's indicator
// exceeds threshold.
func NewEngine(deviceIDs []string, methods []method.Method, threshold float64, onAlert OnAlert, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	e := &Engine{
		devices:        make(map[string]*device, len(deviceIDs)),
		methods:        methods,
		threshold:      threshold,
		onAlert:        onAlert,
		previousStates: make(map[previousStateKey]*navstate.NavState),
		logger:         logger,
	}
	for _, id := range deviceIDs {
		e.devices[id] = &device{id: id, history: navstate.NewStateHistory(0)}
	}
	return e
}

// StateHistory implements method.DeviceLookup so methods like
// MultipleReceivers can reach across devices. It must only be called
// while e.mu is already held -- i.e. from within a method's
// SpoofingIndicator, itself only ever invoked from inside Handle -- so
// it does not lock e.mu itself.
func (e *Engine) StateHistory(deviceID string) *navstate.StateHistory {
	d, ok := e.devices[deviceID]
	if !ok {
		return nil
	}
	return d.history
}

// Handle folds one NMEA sentence, received from deviceID at t, into that
// device's state and runs the gating pipeline. Unknown devices, invalid
// sentences, unsupported sentence types, and inactive fixes are all
// silently dropped, matching the error taxonomy this engine is built
// against: none of them are failures the caller needs to react to.
func (e *Engine) Handle(deviceID string, t time.Time, sentence string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	d, ok := e.devices[deviceID]
	if !ok {
		return
	}

	// Parse mutates the state it is given, so it gets a clone: the
	// history's stored snapshot must not change when a sentence folds in
	// (or is dropped).
	updated, err := nmea.Parse(d.history.Latest().Clone(), t, sentence)
	if err != nil {
		return
	}
	d.history.Add(updated)
	e.evaluate(deviceID, updated, d.history)
}

func (e *Engine) evaluate(deviceID string, latest *navstate.NavState, history *navstate.StateHistory) {
	for _, m := range e.methods {
		gating := m.Gating()
		if !navstate.IsSufficientlyDefined(latest, gating.RequiredStateFields) {
			continue
		}

		key := previousStateKey{deviceID: deviceID, methodType: reflect.TypeOf(m)}
		previous := e.previousStates[key]
		if previous != nil && !navstate.IsDifferent(latest, previous, gating.VariableStateFields) {
			continue
		}

		sufficientSatellites := 0
		for _, sat := range latest.Satellites {
			if navstate.IsSatelliteSufficientlyDefined(sat, gating.RequiredSatelliteStateFields) {
				sufficientSatellites++
			}
		}
		if sufficientSatellites < gating.MinSufficientSatelliteStateCount {
			continue
		}

		e.previousStates[key] = latest
		if previous == nil {
			continue // first sighting for this method establishes the baseline only
		}

		indicator := m.SpoofingIndicator(method.Context{
			DeviceID: deviceID,
			Latest:   latest,
			Previous: previous,
			History:  history,
			Devices:  e,
		})
		if indicator <= e.threshold {
			continue
		}
		if e.onAlert != nil {
			e.onAlert(Alert{
				DeviceID:          deviceID,
				Time:              *latest.UpdateTime,
				SpoofingIndicator: indicator,
				Method:            m,
				State:             latest,
			})
		}
	}
}
