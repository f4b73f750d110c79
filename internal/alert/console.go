package alert

import (
	"fmt"
	"io"
	"reflect"

	"github.com/relabs-tech/spoofwatch/internal/detect"
)

// ConsoleSink writes one human-readable line per alert to w.
type ConsoleSink struct {
	w io.Writer
}

func NewConsoleSink(w io.Writer) *ConsoleSink {
	return &ConsoleSink{w: w}
}

func (c *ConsoleSink) Alert(a detect.Alert) {
	fmt.Fprintf(c.w, "%s  device=%s  method=%s  indicator=%.3f\n",
		a.Time.Format("2006-01-02 15:04:05.000"), a.DeviceID, methodName(a.Method), a.SpoofingIndicator)
}

// methodName strips the pointer and package qualifier off a method's
// dynamic type, e.g. "*method.PhysicalSpeedLimit" becomes
// "PhysicalSpeedLimit".
func methodName(m any) string {
	t := reflect.TypeOf(m)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
