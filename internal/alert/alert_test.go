package alert

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/relabs-tech/spoofwatch/internal/detect"
	"github.com/relabs-tech/spoofwatch/internal/method"
	"github.com/relabs-tech/spoofwatch/internal/navstate"
)

func TestConsoleSinkFormatsOneLinePerAlert(t *testing.T) {
	var buf bytes.Buffer
	s := NewConsoleSink(&buf)

	s.Alert(detect.Alert{
		DeviceID:          "d1",
		Time:              time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		SpoofingIndicator: 0.875,
		Method:            &method.PhysicalSpeedLimit{MaxSpeed: 50},
		State:             &navstate.NavState{},
	})

	got := buf.String()
	if !strings.Contains(got, "PhysicalSpeedLimit") {
		t.Errorf("expected method name in output, got %q", got)
	}
	if !strings.Contains(got, "d1") {
		t.Errorf("expected device id in output, got %q", got)
	}
	if !strings.Contains(got, "0.875") {
		t.Errorf("expected indicator in output, got %q", got)
	}
}

func TestMultiSinkFansOutToEveryMember(t *testing.T) {
	var a, b int
	m := MultiSink{
		SinkFunc(func(detect.Alert) { a++ }),
		SinkFunc(func(detect.Alert) { b++ }),
	}
	m.Alert(detect.Alert{})
	if a != 1 || b != 1 {
		t.Errorf("expected every member to receive the alert exactly once, got a=%d b=%d", a, b)
	}
}

func TestMethodNameStripsPointerAndPackage(t *testing.T) {
	if got := methodName(&method.PhysicalHeightLimit{}); got != "PhysicalHeightLimit" {
		t.Errorf("expected PhysicalHeightLimit, got %q", got)
	}
}

func TestRecordingSinkAppendsOneLinePerSentence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.log")

	r, err := NewRecordingSink(path)
	if err != nil {
		t.Fatalf("NewRecordingSink: %v", err)
	}

	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := r.Record("d1", at, "$GPRMC,...*00"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	line := string(contents)
	if !strings.Contains(line, "d1") || !strings.Contains(line, "$GPRMC,...*00") {
		t.Errorf("unexpected log line: %q", line)
	}
	if !strings.HasSuffix(line, "\r\n") {
		t.Errorf("expected CRLF line ending, got %q", line)
	}
}
