package app

import (
	"context"
	"fmt"
	"log"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/relabs-tech/spoofwatch/internal/config"
	"github.com/relabs-tech/spoofwatch/internal/source"
)

// runSources starts every source the config names and blocks feeding h
// until ctx is cancelled or a source fails. Replay sources (log file,
// pcap file) ending normally does not stop the live ones.
func runSources(ctx context.Context, cfg *config.Config, h source.Handler, logger *log.Logger) error {
	g, ctx := errgroup.WithContext(ctx)
	started := 0

	if cfg.LogPath != "" {
		started++
		g.Go(func() error {
			f, err := os.Open(cfg.LogPath)
			if err != nil {
				return err
			}
			defer f.Close()
			logger.Printf("replaying log %s", cfg.LogPath)
			return (&source.LogSource{R: f}).Run(h)
		})
	}
	if cfg.PcapFile != "" {
		started++
		g.Go(func() error {
			logger.Printf("replaying capture %s", cfg.PcapFile)
			return (&source.PacketSource{File: cfg.PcapFile}).Run(h)
		})
	}
	if cfg.CaptureInterface != "" {
		started++
		g.Go(func() error {
			logger.Printf("capturing on %s", cfg.CaptureInterface)
			return (&source.PacketSource{Interface: cfg.CaptureInterface}).Run(h)
		})
	}
	if len(cfg.SerialPorts) > 0 {
		started++
		ports := make([]source.SerialPort, len(cfg.SerialPorts))
		for i, p := range cfg.SerialPorts {
			ports[i] = source.SerialPort{Name: p.Name, BaudRate: p.BaudRate}
		}
		g.Go(func() error {
			logger.Printf("reading %d serial port(s)", len(ports))
			return (&source.SerialSource{Ports: ports}).Run(ctx, h)
		})
	}
	if cfg.MQTTSource {
		started++
		g.Go(func() error {
			s := &source.MQTTSource{
				Broker:   cfg.MQTTBroker,
				ClientID: cfg.MQTTClientIDDetect + "-source",
				Topic:    cfg.TopicNMEA,
				Logger:   logger,
			}
			return s.Run(ctx, h)
		})
	}

	if started == 0 {
		return fmt.Errorf("no source configured: set log_path, pcap_file, capture_interface, serial_ports, or mqtt_source")
	}
	return g.Wait()
}
