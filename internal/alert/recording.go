package alert

import (
	"fmt"
	"os"
	"time"
)

// RecordingSink writes every sentence handled by a source -- independent
// of whether it ultimately alerted -- to a plain text log, one line per
// sentence: "<time> <device_id> <sentence>\r\n". It is meant to be
// called from a source's handle loop (see cmd/record), not registered
// as an alert.Sink, since it records raw input rather than detection
// output.
type RecordingSink struct {
	file *os.File
}

// NewRecordingSink opens path for append, creating it if necessary. An
// empty path derives a name from the current time, matching the
// original's default `<timestamp>.log` behavior.
func NewRecordingSink(path string) (*RecordingSink, error) {
	if path == "" {
		path = time.Now().Format("20060102150405") + ".log"
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &RecordingSink{file: f}, nil
}

// Record appends one handled sentence to the log, flushing immediately
// so a crash does not lose the tail of the file.
func (r *RecordingSink) Record(deviceID string, t time.Time, sentence string) error {
	_, err := fmt.Fprintf(r.file, "%s %s %s\r\n", t.Format("2006-01-02 15:04:05.000000"), deviceID, sentence)
	if err != nil {
		return err
	}
	return r.file.Sync()
}

func (r *RecordingSink) Close() error {
	return r.file.Close()
}
