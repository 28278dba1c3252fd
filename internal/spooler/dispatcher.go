// internal/spooler/dispatcher.go
package spooler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"print-bridge/internal/model"
)

// Dispatcher lists the host's printers and delivers finished command
// buffers to one of them as a raw byte stream, bypassing the OS document
// formatting pipeline. One implementation exists per platform and is
// selected at build time.
type Dispatcher interface {
	// ListPrinters returns the printers known to the OS in the order the
	// OS reports them. A failed query yields an empty list, never an
	// error: "no printers" is a legitimate status.
	ListPrinters(ctx context.Context) []model.PrinterDescriptor

	// Send submits data to the named printer. Failures are reported as
	// *PrintDispatchError carrying the OS diagnostic text.
	Send(ctx context.Context, printer string, data []byte) error
}

// PrintDispatchError reports a raw print job the OS refused or failed.
type PrintDispatchError struct {
	Printer string
	Diag    string
	Err     error
}

func (e *PrintDispatchError) Error() string {
	msg := fmt.Sprintf("print dispatch to %q failed", e.Printer)
	if e.Diag != "" {
		msg += ": " + e.Diag
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PrintDispatchError) Unwrap() error { return e.Err }

// Options configures dispatch behavior.
type Options struct {
	// DispatchTimeout bounds the OS spooler call so a hung printer queue
	// cannot hang the bridge process.
	DispatchTimeout time.Duration

	// TempDir overrides the staging directory for spool files. Empty
	// selects the OS default.
	TempDir string
}

const defaultDispatchTimeout = 15 * time.Second

func (o Options) timeout() time.Duration {
	if o.DispatchTimeout <= 0 {
		return defaultDispatchTimeout
	}
	return o.DispatchTimeout
}

// New builds the dispatcher for the current platform, with direct
// raw-device delivery layered in front for tcp:// and serial:// targets.
func New(opts Options, logger *zap.Logger) Dispatcher {
	return &router{
		os:     newPlatformDispatcher(opts, logger),
		direct: newDirectDispatcher(opts, logger),
	}
}

// router picks between the OS spooler and direct device delivery based on
// the printer name scheme.
type router struct {
	os     Dispatcher
	direct *directDispatcher
}

func (r *router) ListPrinters(ctx context.Context) []model.PrinterDescriptor {
	return r.os.ListPrinters(ctx)
}

func (r *router) Send(ctx context.Context, printer string, data []byte) error {
	if isDirectTarget(printer) {
		return r.direct.Send(ctx, printer, data)
	}
	return r.os.Send(ctx, printer, data)
}

func isDirectTarget(printer string) bool {
	return strings.HasPrefix(printer, "tcp://") || strings.HasPrefix(printer, "serial://")
}
