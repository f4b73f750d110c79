// Package app wires configuration, sources, the detection engine, and
// alert sinks into the runnable spoofwatch processes: the detector
// itself, the raw-sentence recorder, the calibration replay, the GPS
// producer, and the web dashboard.
package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/spoofwatch/internal/alert"
	"github.com/relabs-tech/spoofwatch/internal/config"
	"github.com/relabs-tech/spoofwatch/internal/detect"
)

// RunDetect runs the detection pipeline: every configured source feeds
// the engine, and alerts go to the console plus, when a broker is
// configured, MQTT. Blocks until the sources stop or the process is
// interrupted.
func RunDetect() error {
	cfg := config.Get()
	logger := log.New(os.Stderr, "detect: ", log.LstdFlags)

	methods, err := buildMethods(cfg, false)
	if err != nil {
		return err
	}

	sinks := alert.MultiSink{alert.NewConsoleSink(os.Stdout)}
	if cfg.MQTTBroker != "" {
		mqttSink, err := alert.NewMQTTSink(cfg.MQTTBroker, cfg.MQTTClientIDDetect, cfg.TopicAlerts, logger)
		if err != nil {
			return err
		}
		defer mqttSink.Close()
		sinks = append(sinks, mqttSink)
	}

	engine := detect.NewEngine(cfg.DeviceIDs, methods, cfg.AlertThreshold, sinks.Alert, logger)
	logger.Printf("tracking %d device(s) with %d method(s), threshold %.2f",
		len(cfg.DeviceIDs), len(methods), cfg.AlertThreshold)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = runSources(ctx, cfg, engine, logger)
	if ctx.Err() != nil {
		return nil // interrupted, not a failure
	}
	return err
}
