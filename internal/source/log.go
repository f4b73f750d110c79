package source

import (
	"bufio"
	"io"
	"regexp"
	"strings"
	"time"
)

var logLineFormat = regexp.MustCompile(`^([0-9-]+ +[0-9:.]+) +(\S+) +(.+)$`)

// logTimeLayout parses the "YYYY-MM-DD HH:MM:SS.ffffff" timestamp every
// LogSource line starts with, matching the format RecordingSink writes.
const logTimeLayout = "2006-01-02 15:04:05.000000"

// LogSource replays a recorded session: one sentence per line of the
// form "<time> <device_id> <sentence>". Lines that do not match are
// silently skipped, so a log that interleaves unrelated output is safe
// to replay as-is.
type LogSource struct {
	R io.Reader
}

// Run reads every line from the source and feeds matching entries to h.
func (s *LogSource) Run(h Handler) error {
	scanner := bufio.NewScanner(s.R)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		match := logLineFormat.FindStringSubmatch(scanner.Text())
		if match == nil {
			continue
		}
		t, err := parseLogTime(match[1])
		if err != nil {
			continue
		}
		h.Handle(match[2], t, match[3])
	}
	return scanner.Err()
}

// parseLogTime accepts the canonical layout plus the shorter
// second-resolution form, since a hand-edited log might drop the
// fractional seconds.
func parseLogTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(logTimeLayout, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", s)
}
