package source

import (
	"bufio"
	"context"
	"strings"
	"time"

	serial "github.com/jacobsa/go-serial/serial"
	"golang.org/x/sync/errgroup"
)

// DefaultBaudRate is the bps rate used when a SerialSource port does not
// specify one, matching common GPS receiver defaults.
const DefaultBaudRate = 9600

// SerialPort names one port to read and the baud rate to open it at. The
// device id reported to the handler is the port name itself.
type SerialPort struct {
	Name     string
	BaudRate uint
}

// SerialSource reads line-terminated NMEA sentences from one or more
// serial ports, one independent worker goroutine per port. Decode
// errors are ignored and the offending bytes dropped, matching a live
// GPS feed's tolerance for line noise.
type SerialSource struct {
	Ports []SerialPort
}

// Run opens every configured port and blocks reading from all of them
// until ctx is cancelled or any port's read loop returns an error.
func (s *SerialSource) Run(ctx context.Context, h Handler) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, port := range s.Ports {
		port := port
		g.Go(func() error {
			return runSerialPort(ctx, port, h)
		})
	}
	return g.Wait()
}

func runSerialPort(ctx context.Context, port SerialPort, h Handler) error {
	baud := port.BaudRate
	if baud == 0 {
		baud = DefaultBaudRate
	}

	opened, err := serial.Open(serial.OpenOptions{
		PortName:              port.Name,
		BaudRate:              baud,
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	})
	if err != nil {
		return err
	}
	defer opened.Close()

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			opened.Close()
		case <-done:
		}
	}()
	defer close(done)

	reader := bufio.NewReader(opened)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		sentence := strings.TrimSpace(strings.ToValidUTF8(line, ""))
		if sentence == "" {
			continue
		}
		h.Handle(port.Name, time.Now(), sentence)
	}
}
