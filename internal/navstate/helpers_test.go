package navstate

import (
	"testing"
	"time"
)

func mustTime(t *testing.T, rfc3339 string) time.Time {
	t.Helper()
	tm, err := time.Parse(time.RFC3339, rfc3339)
	if err != nil {
		t.Fatalf("parsing test time %q: %v", rfc3339, err)
	}
	return tm
}

func timeAt(base time.Time, offsetSeconds int) *time.Time {
	tm := base.Add(time.Duration(offsetSeconds) * time.Second)
	return &tm
}
