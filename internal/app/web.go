// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"sort"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/goccy/go-json"

	"github.com/relabs-tech/spoofwatch/internal/config"
	"github.com/relabs-tech/spoofwatch/internal/gps"
	"github.com/relabs-tech/spoofwatch/internal/navstate"
	"github.com/relabs-tech/spoofwatch/internal/nmea"
)

// maxRecentAlerts bounds the alert list the dashboard serves.
const maxRecentAlerts = 100

var webUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // dashboard is served same-origin or behind a trusted proxy
	},
}

// RunWeb serves the spoofing dashboard: it subscribes to the raw NMEA
// and alert topics, folds each device's sentences into a navigation
// state, and exposes both over a JSON API plus a websocket alert feed.
func RunWeb() error {
	cfg := config.Get()
	logger := log.New(os.Stderr, "web: ", log.LstdFlags)

	var (
		mu           sync.RWMutex
		states       = make(map[string]*navstate.NavState)
		recentAlerts []gps.AlertRecord

		wsMu      sync.Mutex
		wsClients = make(map[*websocket.Conn]struct{})
	)

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWeb)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	logger.Printf("connected to MQTT broker at %s", cfg.MQTTBroker)

	// Raw NMEA reports: fold into the per-device state the API serves.
	nmeaToken := client.Subscribe(cfg.TopicNMEA, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var report gps.Report
		if err := json.Unmarshal(msg.Payload(), &report); err != nil {
			logger.Printf("report unmarshal error: %v", err)
			return
		}
		mu.Lock()
		defer mu.Unlock()
		updated, err := nmea.Parse(states[report.DeviceID], report.Time, report.Sentence)
		if err != nil {
			return
		}
		states[report.DeviceID] = updated
	})
	nmeaToken.Wait()
	if nmeaToken.Error() != nil {
		return nmeaToken.Error()
	}
	logger.Printf("subscribed to MQTT topic %s", cfg.TopicNMEA)

	// Alerts: keep the most recent ones and fan each out to every
	// connected websocket client.
	alertToken := client.Subscribe(cfg.TopicAlerts, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var record gps.AlertRecord
		if err := json.Unmarshal(msg.Payload(), &record); err != nil {
			logger.Printf("alert unmarshal error: %v", err)
			return
		}
		mu.Lock()
		recentAlerts = append(recentAlerts, record)
		if len(recentAlerts) > maxRecentAlerts {
			recentAlerts = recentAlerts[len(recentAlerts)-maxRecentAlerts:]
		}
		mu.Unlock()

		wsMu.Lock()
		for conn := range wsClients {
			if err := conn.WriteJSON(record); err != nil {
				logger.Printf("websocket write error: %v", err)
				conn.Close()
				delete(wsClients, conn)
			}
		}
		wsMu.Unlock()
	})
	alertToken.Wait()
	if alertToken.Error() != nil {
		return alertToken.Error()
	}
	logger.Printf("subscribed to MQTT topic %s", cfg.TopicAlerts)

	// JSON API: every device's latest reconstructed state.
	http.HandleFunc("/api/devices", func(w http.ResponseWriter, r *http.Request) {
		mu.RLock()
		snapshots := make([]gps.Snapshot, 0, len(states))
		for id, state := range states {
			snapshots = append(snapshots, gps.FromNavState(id, state.Clone()))
		}
		mu.RUnlock()
		sort.Slice(snapshots, func(i, j int) bool { return snapshots[i].DeviceID < snapshots[j].DeviceID })

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(snapshots); err != nil {
			logger.Printf("devices JSON encode error: %v", err)
		}
	})

	// JSON API: one device's latest reconstructed state.
	http.HandleFunc("/api/device", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		mu.RLock()
		state, ok := states[id]
		var snapshot gps.Snapshot
		if ok {
			snapshot = gps.FromNavState(id, state.Clone())
		}
		mu.RUnlock()

		if !ok {
			http.Error(w, "no data for device yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(snapshot); err != nil {
			logger.Printf("device JSON encode error: %v", err)
		}
	})

	// JSON API: recent alerts, newest last.
	http.HandleFunc("/api/alerts", func(w http.ResponseWriter, r *http.Request) {
		mu.RLock()
		alerts := make([]gps.AlertRecord, len(recentAlerts))
		copy(alerts, recentAlerts)
		mu.RUnlock()

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(alerts); err != nil {
			logger.Printf("alerts JSON encode error: %v", err)
		}
	})

	// Live alert feed for the dashboard.
	http.HandleFunc("/api/alerts/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := webUpgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Printf("websocket upgrade error: %v", err)
			return
		}
		wsMu.Lock()
		wsClients[conn] = struct{}{}
		wsMu.Unlock()

		defer func() {
			wsMu.Lock()
			delete(wsClients, conn)
			wsMu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	// Static UI from ./web
	http.Handle("/", http.FileServer(http.Dir("web")))

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	logger.Printf("listening on %s", addr)
	return http.ListenAndServe(addr, nil)
}
