// Package alert turns detection-engine alerts into output: console
// lines, MQTT publications, websocket broadcasts, or a plain recorded
// log of every sentence handled, independent of whether it alerted.
package alert

import (
	"github.com/relabs-tech/spoofwatch/internal/detect"
)

// Sink receives every alert the engine fires. Implementations must not
// block the caller for long; the engine calls sinks synchronously from
// inside its single-threaded evaluation loop.
type Sink interface {
	Alert(a detect.Alert)
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc func(detect.Alert)

func (f SinkFunc) Alert(a detect.Alert) { f(a) }

// MultiSink fans one alert out to every member sink, in order. A panic
// in one member does not stop the others from receiving the alert.
type MultiSink []Sink

func (m MultiSink) Alert(a detect.Alert) {
	for _, s := range m {
		func() {
			defer func() { recover() }()
			s.Alert(a)
		}()
	}
}
