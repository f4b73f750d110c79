// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bufio"
	"errors"
	"log"
	"os"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/goccy/go-json"

	"github.com/relabs-tech/spoofwatch/internal/config"
	"github.com/relabs-tech/spoofwatch/internal/gps"
	"github.com/relabs-tech/spoofwatch/internal/navstate"
	"github.com/relabs-tech/spoofwatch/internal/nmea"
)

// RunGPSProducer opens the GPS serial port and publishes every
// well-formed, checksum-valid NMEA sentence as a raw report to MQTT, where a
// detector's MQTT source or the web dashboard picks it up. The producer
// deliberately forwards sentences the detector would ignore
// (unsupported types, inactive fixes): filtering is the detector's
// decision, not the feed's.
func RunGPSProducer() error {
	cfg := config.Get()
	logger := log.New(os.Stderr, "gps: ", log.LstdFlags)

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDGPS)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	logger.Printf("connected to MQTT broker at %s", cfg.MQTTBroker)

	port, err := serial.Open(serial.OpenOptions{
		PortName:              cfg.GPSSerialPort,
		BaudRate:              uint(cfg.GPSBaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	})
	if err != nil {
		return err
	}
	defer port.Close()
	logger.Printf("serial port opened on %s at %d baud", cfg.GPSSerialPort, cfg.GPSBaudRate)

	// Track the receiver's own reconstructed state alongside publishing,
	// purely so the log shows what the feed is reporting.
	state := newNavStateLogger(logger)

	reader := bufio.NewReader(port)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			logger.Printf("serial read error: %v", err)
			return err
		}

		sentence := strings.TrimSpace(line)
		if sentence == "" || !strings.HasPrefix(sentence, "$") {
			continue
		}

		now := time.Now().UTC()
		if !state.fold(now, sentence) {
			continue // structural or checksum failure; line noise
		}

		payload, err := json.Marshal(gps.Report{
			DeviceID: cfg.GPSSerialPort,
			Time:     now,
			Sentence: sentence,
		})
		if err != nil {
			logger.Printf("report marshal error: %v", err)
			continue
		}
		token := client.Publish(cfg.TopicNMEA, 0, false, payload)
		token.Wait()
		if token.Error() != nil {
			logger.Printf("publish error: %v", token.Error())
		}
	}
}

// navStateLogger folds published sentences into a NavState and logs a
// position summary whenever the fix moves.
type navStateLogger struct {
	logger  *log.Logger
	state   *navstate.NavState
	lastLat float64
	lastLon float64
}

func newNavStateLogger(logger *log.Logger) *navStateLogger {
	return &navStateLogger{logger: logger}
}

// fold reports whether the sentence passed structural validation.
// Unsupported sentence types and inactive fixes still count as valid
// feed data.
func (l *navStateLogger) fold(t time.Time, sentence string) bool {
	updated, err := nmea.Parse(l.state, t, sentence)
	if err != nil {
		if errors.Is(err, nmea.ErrInvalidSentence) {
			return false
		}
		return true
	}
	l.state = updated
	if updated.Latitude != nil && updated.Longitude != nil &&
		(*updated.Latitude != l.lastLat || *updated.Longitude != l.lastLon) {
		l.lastLat, l.lastLon = *updated.Latitude, *updated.Longitude
		l.logger.Printf("fix lat=%.6f lon=%.6f satellites=%d", l.lastLat, l.lastLon, len(updated.Satellites))
	}
	return true
}
