package source

import (
	"context"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/goccy/go-json"

	"github.com/relabs-tech/spoofwatch/internal/gps"
)

// MQTTSource subscribes to the topic the GPS producer publishes raw
// sentence reports on and feeds each report to a handler. Malformed
// payloads are logged and dropped; a live broker feed may interleave
// traffic from producers running older payload versions.
type MQTTSource struct {
	Broker   string
	ClientID string
	Topic    string
	Logger   *log.Logger
}

// Run connects, subscribes, and blocks until ctx is cancelled.
func (s *MQTTSource) Run(ctx context.Context, h Handler) error {
	logger := s.Logger
	if logger == nil {
		logger = log.Default()
	}

	opts := mqtt.NewClientOptions().
		AddBroker(s.Broker).
		SetClientID(s.ClientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	logger.Printf("source: connected to MQTT broker at %s", s.Broker)

	token := client.Subscribe(s.Topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var report gps.Report
		if err := json.Unmarshal(msg.Payload(), &report); err != nil {
			logger.Printf("source: report unmarshal error: %v", err)
			return
		}
		h.Handle(report.DeviceID, report.Time, report.Sentence)
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	logger.Printf("source: subscribed to MQTT topic %s", s.Topic)

	<-ctx.Done()
	return ctx.Err()
}
