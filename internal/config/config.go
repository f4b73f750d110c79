// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package config loads the detector's JSON configuration file: which
// devices to track, which detection methods to run with which options,
// where sentences come from (serial ports, packet capture, recorded
// logs, MQTT), and where alerts go.
package config

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/goccy/go-json"

	"github.com/relabs-tech/spoofwatch/internal/method"
)

// DefaultPath is the config file every command falls back to when no
// path is given on its command line.
const DefaultPath = "spoofwatch.json"

// MethodNames is the fixed catalog of configurable detection methods.
// Lookup is case-insensitive; a name may also be prefixed with
// "averaged" to wrap the method in a moving-average ring.
var MethodNames = []string{
	"MultipleReceivers",
	"PhysicalSpeedLimit",
	"PhysicalRateOfTurnLimit",
	"PhysicalHeightLimit",
	"PhysicalEnvironmentLimit",
	"OrbitPositions",
	"TimeDrift",
	"CarrierToNoiseDensity",
}

// SerialPortConfig names one serial port the detector reads NMEA
// sentences from. The port name doubles as the device id.
type SerialPortConfig struct {
	Name     string `json:"name"`
	BaudRate uint   `json:"baud_rate"`
}

// Options carries every method's tunable parameters in one flat object,
// mirroring the parameters object the calibration run emits. Pair-keyed
// maps use "A,B" strings as keys on the wire; method.DevicePair's text
// unmarshalling turns them back into pairs, and a pair's entries are
// matched in either device order.
type Options struct {
	// MultipleReceivers
	Distances               map[method.DevicePair]float64 `json:"distances"`
	DistanceRatioThresholds map[method.DevicePair]float64 `json:"distance_ratio_thresholds"`
	NewMeasurementWeight    float64                       `json:"new_measurement_weight"`

	// PhysicalSpeedLimit
	MaxSpeed float64 `json:"max_speed"`

	// PhysicalRateOfTurnLimit
	MaxRateOfTurn                 float64 `json:"max_rate_of_turn"`
	MinSpeedToDetermineRateOfTurn float64 `json:"min_speed_to_determine_rate_of_turn"`

	// PhysicalHeightLimit
	MinHeight float64 `json:"min_height"`
	MaxHeight float64 `json:"max_height"`

	// PhysicalEnvironmentLimit
	OnLand  bool `json:"on_land"`
	OnWater bool `json:"on_water"`

	// OrbitPositions
	MinElevation              float64 `json:"min_elevation"`
	AllowedAzimuthDeviation   float64 `json:"allowed_azimuth_deviation"`
	AllowedElevationDeviation float64 `json:"allowed_elevation_deviation"`

	// TimeDrift
	MaxClockDriftDeviation float64 `json:"max_clock_drift_deviation"`

	// CarrierToNoiseDensity
	MinCN0 float64 `json:"min_cn0"`
	MaxCN0 float64 `json:"max_cn0"`

	// Ring size for "averaged"-prefixed methods; 0 keeps the default.
	AverageWindow int `json:"average_window"`
}

// Config holds all application configuration values.
type Config struct {
	DeviceIDs      []string `json:"device_ids"`
	Methods        []string `json:"methods"`
	Options        Options  `json:"options"`
	AlertThreshold float64  `json:"alert_threshold"`

	// Static resources
	WaterMapPath   string `json:"water_map_path"`
	TLECatalogPath string `json:"tle_catalog_path"`

	// Sources. Any combination may be configured; the detector runs
	// them all concurrently.
	LogPath          string             `json:"log_path"`
	PcapFile         string             `json:"pcap_file"`
	CaptureInterface string             `json:"capture_interface"`
	SerialPorts      []SerialPortConfig `json:"serial_ports"`
	MQTTSource       bool               `json:"mqtt_source"`

	// MQTT
	MQTTBroker         string `json:"mqtt_broker"`
	MQTTClientIDDetect string `json:"mqtt_client_id_detect"`
	MQTTClientIDGPS    string `json:"mqtt_client_id_gps"`
	MQTTClientIDWeb    string `json:"mqtt_client_id_web"`
	TopicNMEA          string `json:"topic_nmea"`
	TopicAlerts        string `json:"topic_alerts"`

	// GPS producer
	GPSSerialPort string `json:"gps_serial_port"`
	GPSBaudRate   int    `json:"gps_baud_rate"`

	// Web server
	WebServerPort int `json:"web_server_port"`

	// Recording / calibration
	RecordPath        string `json:"record_path"`
	CalibrationOutput string `json:"calibration_output"`
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: unexported so other packages cannot access it
//     directly; external code must use InitGlobal() to set and Get() to
//     read.
//   - configOnce: ensures InitGlobal() only runs once, even if called
//     multiple times.
//   - configMu: write lock for initialization, read lock for Get().
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.AlertThreshold == 0 {
		c.AlertThreshold = 0.5
	}
	if c.GPSBaudRate == 0 {
		c.GPSBaudRate = 9600
	}
	if c.WebServerPort == 0 {
		c.WebServerPort = 8080
	}
	if c.MQTTClientIDDetect == "" {
		c.MQTTClientIDDetect = "spoofwatch-detect"
	}
	if c.MQTTClientIDGPS == "" {
		c.MQTTClientIDGPS = "spoofwatch-gps"
	}
	if c.MQTTClientIDWeb == "" {
		c.MQTTClientIDWeb = "spoofwatch-web"
	}
	if c.TopicNMEA == "" {
		c.TopicNMEA = "spoofwatch/nmea"
	}
	if c.TopicAlerts == "" {
		c.TopicAlerts = "spoofwatch/alerts"
	}
}

// NormalizeMethodName lowercases name and reports whether it asks for
// the moving-average wrapper, returning the bare catalog name.
func NormalizeMethodName(name string) (normalized string, averaged bool) {
	normalized = strings.ToLower(strings.TrimSpace(name))
	if bare, found := strings.CutPrefix(normalized, "averaged"); found && bare != "" {
		return bare, true
	}
	return normalized, false
}

// KnownMethod reports whether name (case-insensitive, optionally
// "averaged"-prefixed) is in the catalog.
func KnownMethod(name string) bool {
	normalized, _ := NormalizeMethodName(name)
	for _, known := range MethodNames {
		if strings.ToLower(known) == normalized {
			return true
		}
	}
	return false
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if len(c.DeviceIDs) == 0 {
		return fmt.Errorf("device_ids is required")
	}
	if len(c.Methods) == 0 {
		return fmt.Errorf("methods is required")
	}
	for _, name := range c.Methods {
		if !KnownMethod(name) {
			return fmt.Errorf("unknown method %q (catalog: %s)", name, strings.Join(MethodNames, ", "))
		}
		normalized, _ := NormalizeMethodName(name)
		switch normalized {
		case "physicalenvironmentlimit":
			if c.WaterMapPath == "" {
				return fmt.Errorf("PhysicalEnvironmentLimit requires water_map_path")
			}
		case "orbitpositions":
			if c.TLECatalogPath == "" {
				return fmt.Errorf("OrbitPositions requires tle_catalog_path")
			}
		case "multiplereceivers":
			if len(c.Options.Distances) == 0 {
				return fmt.Errorf("MultipleReceivers requires options.distances")
			}
			for pair := range c.Options.Distances {
				_, ok := c.Options.DistanceRatioThresholds[pair]
				if !ok {
					_, ok = c.Options.DistanceRatioThresholds[method.DevicePair{A: pair.B, B: pair.A}]
				}
				if !ok {
					return fmt.Errorf("MultipleReceivers pair %s,%s has a distance but no distance_ratio_threshold", pair.A, pair.B)
				}
			}
		}
	}
	if c.AlertThreshold < 0 || c.AlertThreshold > 1 {
		return fmt.Errorf("alert_threshold must be in [0, 1], got %v", c.AlertThreshold)
	}
	if c.MQTTSource && c.MQTTBroker == "" {
		return fmt.Errorf("mqtt_source requires mqtt_broker")
	}
	return nil
}

// InitGlobal initializes the global configuration from file. Uses
// sync.Once so only the first call loads; later calls are no-ops.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance. InitGlobal must be
// called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
