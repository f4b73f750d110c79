package method

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/relabs-tech/spoofwatch/internal/navstate"
)

const (
	minPastMeasurements   = 10
	maxPastMeasurements   = 60
	ransacIterations      = 50
	ransacInlierThreshold = 0.01
)

type timeDriftSample struct {
	timeSinceStart float64
	clockDrift     float64
}

// TimeDrift flags a device whose GPS-time-minus-update-time clock drift
// has stepped away from the linear trend a stable local clock would
// follow. It fits a robust line through the drift history (excluding
// the newest sample) and compares the newest sample against the line's
// prediction.
type TimeDrift struct {
	MaxClockDriftDeviation float64
	Calibrating            bool

	baseline         map[string]time.Time
	pastMeasurements map[string][]timeDriftSample
	measurements     map[string][]timeDriftSample
}

func (m *TimeDrift) Gating() Gating {
	return Gating{
		RequiredStateFields: []navstate.Field{navstate.FieldUpdateTime, navstate.FieldGPSTime},
		VariableStateFields: []navstate.Field{navstate.FieldGPSTime},
	}
}

func (m *TimeDrift) SpoofingIndicator(ctx Context) float64 {
	if m.baseline == nil {
		m.baseline = make(map[string]time.Time)
		m.pastMeasurements = make(map[string][]timeDriftSample)
		if m.Calibrating {
			m.measurements = make(map[string][]timeDriftSample)
		}
	}

	updateTime := *ctx.Latest.UpdateTime
	gpsTime := *ctx.Latest.GPSTime

	base, seen := m.baseline[ctx.DeviceID]
	if !seen {
		base = updateTime
		m.baseline[ctx.DeviceID] = base
	}

	sample := timeDriftSample{
		timeSinceStart: updateTime.Sub(base).Seconds(),
		clockDrift:     gpsTime.Sub(updateTime).Seconds(),
	}
	m.pastMeasurements[ctx.DeviceID] = append(m.pastMeasurements[ctx.DeviceID], sample)
	if m.Calibrating {
		m.measurements[ctx.DeviceID] = append(m.measurements[ctx.DeviceID], sample)
	}

	samples := m.pastMeasurements[ctx.DeviceID]
	if len(samples) < minPastMeasurements {
		return 0
	}

	fitSamples := samples[:len(samples)-1]
	slope, intercept, ok := ransacLinearFit(fitSamples)

	if len(samples) > maxPastMeasurements {
		m.pastMeasurements[ctx.DeviceID] = samples[len(samples)-maxPastMeasurements:]
	}

	if !ok {
		return 0
	}

	expectedDrift := intercept + slope*sample.timeSinceStart
	if expectedDrift-sample.clockDrift > m.MaxClockDriftDeviation {
		return 1
	}
	return 0
}

// ransacLinearFit fits a line through samples using a small RANSAC loop:
// repeatedly fit a line through a pair of samples, score it by inlier
// count, and refine the winner with an ordinary least-squares fit over
// its inliers only, so an outlier inside the window cannot drag the
// trend. Unlike the sklearn-based original, gonum's least-squares fit
// tolerates a perfectly flat (zero-variance) sample set, so no synthetic
// jitter is needed to keep the fit well-defined.
func ransacLinearFit(samples []timeDriftSample) (slope, intercept float64, ok bool) {
	if len(samples) < 2 {
		return 0, 0, false
	}
	xs := make([]float64, len(samples))
	ys := make([]float64, len(samples))
	for i, s := range samples {
		xs[i] = s.timeSinceStart
		ys[i] = s.clockDrift
	}

	bestInliers := -1
	for iter := 0; iter < ransacIterations; iter++ {
		i, j := iter%len(samples), (iter*7+3)%len(samples)
		if i == j {
			continue
		}
		candSlope, candIntercept := lineThrough(xs[i], ys[i], xs[j], ys[j])
		inliers := countInliers(xs, ys, candSlope, candIntercept, ransacInlierThreshold)
		if inliers > bestInliers {
			bestInliers = inliers
			slope, intercept = candSlope, candIntercept
		}
	}

	// Refine over the winning candidate's inlier subset. Samples the
	// candidate already rejected stay out of the refit; the candidate
	// line itself stands when the inlier-only fit is degenerate.
	inX := make([]float64, 0, len(xs))
	inY := make([]float64, 0, len(ys))
	for i := range xs {
		if math.Abs(intercept+slope*xs[i]-ys[i]) <= ransacInlierThreshold {
			inX = append(inX, xs[i])
			inY = append(inY, ys[i])
		}
	}
	if len(inX) >= 2 {
		fitIntercept, fitSlope := stat.LinearRegression(inX, inY, nil, false)
		if !math.IsNaN(fitSlope) && !math.IsNaN(fitIntercept) {
			slope, intercept = fitSlope, fitIntercept
		}
	}
	return slope, intercept, true
}

func lineThrough(x1, y1, x2, y2 float64) (slope, intercept float64) {
	if x1 == x2 {
		return 0, y1
	}
	slope = (y2 - y1) / (x2 - x1)
	intercept = y1 - slope*x1
	return slope, intercept
}

func countInliers(xs, ys []float64, slope, intercept, threshold float64) int {
	count := 0
	for i := range xs {
		predicted := intercept + slope*xs[i]
		if math.Abs(predicted-ys[i]) <= threshold {
			count++
		}
	}
	return count
}

func (m *TimeDrift) CalculateParameters() (map[string]any, bool) {
	if !m.Calibrating {
		return nil, false
	}
	maxSlope, maxIntercept := -math.MaxFloat64, -math.MaxFloat64
	for _, samples := range m.measurements {
		xs := make([]float64, len(samples))
		ys := make([]float64, len(samples))
		for i, s := range samples {
			xs[i] = s.timeSinceStart
			ys[i] = s.clockDrift
		}
		intercept, slope := stat.LinearRegression(xs, ys, nil, false)
		if math.Abs(slope) > maxSlope {
			maxSlope = math.Abs(slope)
		}
		if math.Abs(intercept) > maxIntercept {
			maxIntercept = math.Abs(intercept)
		}
	}
	return map[string]any{
		"start_clock_drift":               maxIntercept,
		"expected_clock_drift_per_second": maxSlope,
	}, true
}
