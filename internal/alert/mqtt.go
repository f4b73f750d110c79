package alert

import (
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/goccy/go-json"

	"github.com/relabs-tech/spoofwatch/internal/detect"
)

// mqttAlert is the wire payload published for every alert: detect.Alert
// itself is not marshalable as-is because its Method field is an
// interface, so it is reduced to the fields a subscriber actually needs.
type mqttAlert struct {
	DeviceID          string    `json:"device_id"`
	Time              time.Time `json:"time"`
	SpoofingIndicator float64   `json:"spoofing_indicator"`
	Method            string    `json:"method"`
}

// MQTTSink publishes every alert as a JSON message to a fixed topic.
type MQTTSink struct {
	client mqtt.Client
	topic  string
	qos    byte
	logger *log.Logger
}

// NewMQTTSink connects to broker with clientID and returns a sink that
// publishes to topic. The connection is established eagerly so
// configuration errors surface at startup rather than on the first
// alert.
func NewMQTTSink(broker, clientID, topic string, logger *log.Logger) (*MQTTSink, error) {
	if logger == nil {
		logger = log.Default()
	}
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	logger.Printf("alert: connected to MQTT broker at %s", broker)

	return &MQTTSink{client: client, topic: topic, qos: 0, logger: logger}, nil
}

func (s *MQTTSink) Alert(a detect.Alert) {
	payload, err := json.Marshal(mqttAlert{
		DeviceID:          a.DeviceID,
		Time:              a.Time,
		SpoofingIndicator: a.SpoofingIndicator,
		Method:            methodName(a.Method),
	})
	if err != nil {
		s.logger.Printf("alert: MQTT payload marshal error: %v", err)
		return
	}
	token := s.client.Publish(s.topic, s.qos, false, payload)
	token.Wait()
	if token.Error() != nil {
		s.logger.Printf("alert: MQTT publish error: %v", token.Error())
	}
}

// Close disconnects from the broker, waiting up to 250ms to flush.
func (s *MQTTSink) Close() {
	s.client.Disconnect(250)
}
