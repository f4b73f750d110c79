package app

import (
	"context"
	"log"
	"os"
	"reflect"

	"github.com/goccy/go-json"

	"github.com/relabs-tech/spoofwatch/internal/config"
	"github.com/relabs-tech/spoofwatch/internal/detect"
	"github.com/relabs-tech/spoofwatch/internal/method"
)

// RunCalibrate replays the configured sources through every method in
// calibration mode, then writes the tuned parameters of every method
// that reports them as JSON to calibration_output (stdout when unset),
// keyed by method type name. Most parameter names are the method's
// option names; TimeDrift reports its fitted start drift and drift rate,
// which are not options.
func RunCalibrate() error {
	cfg := config.Get()
	logger := log.New(os.Stderr, "calibrate: ", log.LstdFlags)

	methods, err := buildMethods(cfg, true)
	if err != nil {
		return err
	}

	// A threshold above 1 keeps every indicator below the alert line, so
	// the replay only accumulates measurements.
	engine := detect.NewEngine(cfg.DeviceIDs, methods, 1.1, nil, logger)
	if err := runSources(context.Background(), cfg, engine, logger); err != nil {
		return err
	}

	parameters := make(map[string]map[string]any)
	for _, m := range methods {
		calibratable, ok := m.(method.Calibratable)
		if !ok {
			continue
		}
		params, ok := calibratable.CalculateParameters()
		if !ok {
			continue
		}
		parameters[typeName(m)] = params
	}

	out := os.Stdout
	if cfg.CalibrationOutput != "" {
		f, err := os.Create(cfg.CalibrationOutput)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(parameters)
}

func typeName(v any) string {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
