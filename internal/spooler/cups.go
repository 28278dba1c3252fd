// internal/spooler/cups.go
//go:build !windows

package spooler

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"print-bridge/internal/model"
)

// cupsDispatcher talks to the CUPS queue manager through lpstat/lp.
// Thermal printers need their control bytes verbatim, so every job is
// submitted with the raw passthrough option.
type cupsDispatcher struct {
	opts   Options
	logger *zap.Logger

	// Binary paths are fields so tests can point them at stubs.
	lpPath     string
	lpstatPath string
}

func newPlatformDispatcher(opts Options, logger *zap.Logger) Dispatcher {
	return &cupsDispatcher{
		opts:       opts,
		logger:     logger,
		lpPath:     "lp",
		lpstatPath: "lpstat",
	}
}

func (d *cupsDispatcher) ListPrinters(ctx context.Context) []model.PrinterDescriptor {
	out, err := exec.CommandContext(ctx, d.lpstatPath, "-e").Output()
	if err != nil {
		d.logger.Warn("Printer enumeration failed", zap.Error(err))
		return []model.PrinterDescriptor{}
	}

	defaultName := d.defaultPrinter(ctx)

	printers := []model.PrinterDescriptor{}
	for _, line := range strings.Split(string(out), "\n") {
		name := strings.TrimSpace(line)
		if name == "" {
			continue
		}
		printers = append(printers, model.PrinterDescriptor{
			Name:      name,
			IsDefault: name == defaultName,
		})
	}
	return printers
}

// defaultPrinter parses `lpstat -d`, which prints either
// "system default destination: NAME" or "no system default destination".
func (d *cupsDispatcher) defaultPrinter(ctx context.Context) string {
	out, err := exec.CommandContext(ctx, d.lpstatPath, "-d").Output()
	if err != nil {
		return ""
	}
	line := strings.TrimSpace(string(out))
	idx := strings.LastIndex(line, ":")
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(line[idx+1:])
}

func (d *cupsDispatcher) Send(ctx context.Context, printer string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, d.opts.timeout())
	defer cancel()

	tmpDir := d.opts.TempDir
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}

	// Unique per request: concurrent jobs must never share a spool file.
	tmpFile := filepath.Join(tmpDir, fmt.Sprintf("escpos-%s.bin", uuid.NewString()))
	if err := os.WriteFile(tmpFile, data, 0o600); err != nil {
		return &PrintDispatchError{Printer: printer, Diag: "failed to stage spool file", Err: err}
	}
	defer os.Remove(tmpFile)

	out, err := exec.CommandContext(ctx, d.lpPath, "-d", printer, "-o", "raw", tmpFile).CombinedOutput()
	if err != nil {
		return &PrintDispatchError{
			Printer: printer,
			Diag:    strings.TrimSpace(string(out)),
			Err:     err,
		}
	}

	d.logger.Info("Raw job submitted to print queue",
		zap.String("printer", printer),
		zap.Int("bytes", len(data)),
	)
	return nil
}
