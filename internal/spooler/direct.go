// internal/spooler/direct.go
package spooler

import (
	"context"
	"net"
	"net/url"
	"strconv"

	"go.bug.st/serial"
	"go.uber.org/zap"
)

const defaultBaudRate = 9600

// directDispatcher delivers a buffer straight to the device, skipping the
// OS spooler. Targets are encoded in the printer name:
//
//	tcp://192.168.1.50:9100      JetDirect-style network printer
//	serial:///dev/ttyUSB0?baud=19200
//	serial://COM3
type directDispatcher struct {
	opts   Options
	logger *zap.Logger
}

func newDirectDispatcher(opts Options, logger *zap.Logger) *directDispatcher {
	return &directDispatcher{opts: opts, logger: logger}
}

func (d *directDispatcher) Send(ctx context.Context, target string, data []byte) error {
	u, err := url.Parse(target)
	if err != nil {
		return &PrintDispatchError{Printer: target, Diag: "invalid device target", Err: err}
	}

	switch u.Scheme {
	case "tcp":
		return d.sendTCP(ctx, u, data)
	case "serial":
		return d.sendSerial(u, data)
	default:
		return &PrintDispatchError{Printer: target, Diag: "unsupported device scheme " + u.Scheme}
	}
}

func (d *directDispatcher) sendTCP(ctx context.Context, u *url.URL, data []byte) error {
	timeout := d.opts.timeout()

	conn, err := net.DialTimeout("tcp", u.Host, timeout)
	if err != nil {
		return &PrintDispatchError{Printer: u.String(), Diag: "device connection failed", Err: err}
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetWriteDeadline(deadline)
	}

	if _, err := conn.Write(data); err != nil {
		return &PrintDispatchError{Printer: u.String(), Diag: "device write failed", Err: err}
	}

	d.logger.Info("Raw job sent to network device",
		zap.String("target", u.Host),
		zap.Int("bytes", len(data)),
	)
	return nil
}

func (d *directDispatcher) sendSerial(u *url.URL, data []byte) error {
	port := u.Host + u.Path
	baud := defaultBaudRate
	if v := u.Query().Get("baud"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			baud = parsed
		}
	}

	dev, err := serial.Open(port, &serial.Mode{BaudRate: baud})
	if err != nil {
		return &PrintDispatchError{Printer: u.String(), Diag: "serial port open failed", Err: err}
	}
	defer dev.Close()

	if _, err := dev.Write(data); err != nil {
		return &PrintDispatchError{Printer: u.String(), Diag: "serial write failed", Err: err}
	}

	d.logger.Info("Raw job sent to serial device",
		zap.String("port", port),
		zap.Int("baud", baud),
		zap.Int("bytes", len(data)),
	)
	return nil
}
