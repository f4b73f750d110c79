package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relabs-tech/spoofwatch/internal/alert"
	"github.com/relabs-tech/spoofwatch/internal/config"
)

// recordingHandler feeds every sentence a source produces straight into
// a RecordingSink, without running detection.
type recordingHandler struct {
	sink   *alert.RecordingSink
	logger *log.Logger
}

func (h *recordingHandler) Handle(deviceID string, t time.Time, sentence string) {
	if err := h.sink.Record(deviceID, t, sentence); err != nil {
		h.logger.Printf("record error: %v", err)
	}
}

// RunRecord captures every sentence from the configured sources into a
// replayable log file, independent of detection. The resulting file is
// what log_path replays and what a calibration run consumes.
func RunRecord() error {
	cfg := config.Get()
	logger := log.New(os.Stderr, "record: ", log.LstdFlags)

	sink, err := alert.NewRecordingSink(cfg.RecordPath)
	if err != nil {
		return err
	}
	defer sink.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = runSources(ctx, cfg, &recordingHandler{sink: sink, logger: logger}, logger)
	if ctx.Err() != nil {
		return nil
	}
	return err
}
