package source

import (
	"strings"
	"testing"
	"time"
)

type recordedCall struct {
	deviceID string
	t        time.Time
	sentence string
}

type recordingHandler struct {
	calls []recordedCall
}

func (r *recordingHandler) Handle(deviceID string, t time.Time, sentence string) {
	r.calls = append(r.calls, recordedCall{deviceID, t, sentence})
}

func TestLogSourceMatchesWellFormedLines(t *testing.T) {
	input := "2024-01-01 00:00:00.000000 d1 $GPRMC,...*00\n" +
		"this line does not match the expected format\n" +
		"2024-01-01 00:00:01.500000 d2 $GPGGA,...*11\n"

	h := &recordingHandler{}
	s := &LogSource{R: strings.NewReader(input)}
	if err := s.Run(h); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(h.calls) != 2 {
		t.Fatalf("expected 2 matched lines, got %d", len(h.calls))
	}
	if h.calls[0].deviceID != "d1" || h.calls[0].sentence != "$GPRMC,...*00" {
		t.Errorf("unexpected first call: %+v", h.calls[0])
	}
	if h.calls[1].deviceID != "d2" || h.calls[1].sentence != "$GPGGA,...*11" {
		t.Errorf("unexpected second call: %+v", h.calls[1])
	}
	if !h.calls[1].t.After(h.calls[0].t) {
		t.Errorf("expected timestamps to be parsed in order")
	}
}

func TestLogSourceSkipsMalformedLinesEntirely(t *testing.T) {
	h := &recordingHandler{}
	s := &LogSource{R: strings.NewReader("not a log line\n\n")}
	if err := s.Run(h); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(h.calls) != 0 {
		t.Errorf("expected no calls for unmatched input, got %d", len(h.calls))
	}
}

func TestParseLogTimeAcceptsSecondResolutionFallback(t *testing.T) {
	got, err := parseLogTime("2024-01-01 00:00:00")
	if err != nil {
		t.Fatalf("parseLogTime: %v", err)
	}
	if got.Year() != 2024 {
		t.Errorf("unexpected parsed time: %v", got)
	}
}
