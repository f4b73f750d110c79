// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package gps defines the JSON payloads the spoofwatch processes
// exchange over MQTT: raw NMEA reports from the producer, the alert
// records the web dashboard keeps, and a flattened snapshot view of a
// receiver's reconstructed state.
package gps

import (
	"time"

	"github.com/relabs-tech/spoofwatch/internal/navstate"
)

// Report is one raw NMEA sentence captured from a receiver, published
// by the GPS producer and consumed by the detector's MQTT source and
// the web dashboard.
type Report struct {
	DeviceID string    `json:"device_id"`
	Time     time.Time `json:"time"`
	Sentence string    `json:"sentence"`
}

// AlertRecord mirrors the alert payload the detector publishes, so the
// dashboard can decode and re-serve it without importing the detection
// engine.
type AlertRecord struct {
	DeviceID          string    `json:"device_id"`
	Time              time.Time `json:"time"`
	SpoofingIndicator float64   `json:"spoofing_indicator"`
	Method            string    `json:"method"`
}

// Satellite is the JSON view of one satellite entry.
type Satellite struct {
	PRN       *int     `json:"prn"`
	Elevation *float64 `json:"elevation,omitempty"`
	Azimuth   *float64 `json:"azimuth,omitempty"`
	CN0       *float64 `json:"cn0,omitempty"`
	IsVisible bool     `json:"is_visible"`
	IsActive  bool     `json:"is_active"`
}

// Snapshot is the JSON view of a device's reconstructed navigation
// state. Fields the receiver has not reported yet are omitted.
type Snapshot struct {
	DeviceID            string     `json:"device_id"`
	UpdateTime          *time.Time `json:"update_time,omitempty"`
	GPSTime             *time.Time `json:"gps_time,omitempty"`
	Latitude            *float64   `json:"latitude,omitempty"`
	Longitude           *float64   `json:"longitude,omitempty"`
	HeightAboveSeaLevel *float64   `json:"height_above_sea_level,omitempty"`
	Speed               *float64   `json:"speed,omitempty"`
	Course              *float64   `json:"course,omitempty"`
	PositionalDOP       *float64   `json:"pdop,omitempty"`
	HorizontalDOP       *float64   `json:"hdop,omitempty"`
	VerticalDOP         *float64   `json:"vdop,omitempty"`
	GPSQuality          *int       `json:"gps_quality,omitempty"`
	Satellites          []Satellite `json:"satellites,omitempty"`
}

// FromNavState flattens a NavState into a Snapshot for deviceID. The
// snapshot aliases the state's pointers, so callers should pass a
// history snapshot rather than a state still being mutated.
func FromNavState(deviceID string, s *navstate.NavState) Snapshot {
	snap := Snapshot{DeviceID: deviceID}
	if s == nil {
		return snap
	}
	snap.UpdateTime = s.UpdateTime
	snap.GPSTime = s.GPSTime
	snap.Latitude = s.Latitude
	snap.Longitude = s.Longitude
	snap.HeightAboveSeaLevel = s.HeightAboveSeaLevel
	snap.Speed = s.Speed
	snap.Course = s.Course
	snap.PositionalDOP = s.PositionalDOP
	snap.HorizontalDOP = s.HorizontalDOP
	snap.VerticalDOP = s.VerticalDOP
	snap.GPSQuality = s.GPSQuality
	for _, sat := range s.Satellites {
		if sat == nil {
			continue
		}
		snap.Satellites = append(snap.Satellites, Satellite{
			PRN:       sat.PRN,
			Elevation: sat.Elevation,
			Azimuth:   sat.Azimuth,
			CN0:       sat.CN0,
			IsVisible: sat.IsVisible,
			IsActive:  sat.IsActive,
		})
	}
	return snap
}
