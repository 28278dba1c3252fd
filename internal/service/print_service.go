// internal/service/print_service.go
package service

import (
	"context"
	"encoding/base64"
	"runtime"

	"go.uber.org/zap"

	"print-bridge/internal/config"
	"print-bridge/internal/escpos"
	"print-bridge/internal/model"
	"print-bridge/internal/spooler"
	"print-bridge/internal/utils"
)

// PrintService orchestrates the command builder, the raster encoder and
// the platform dispatcher. It holds no per-request state; every job is
// built, dispatched and discarded.
type PrintService struct {
	builder    *escpos.Builder
	dispatcher spooler.Dispatcher
	config     *config.Config
	logger     *zap.Logger
}

// NewPrintService creates a new print service
func NewPrintService(builder *escpos.Builder, dispatcher spooler.Dispatcher, cfg *config.Config, logger *zap.Logger) *PrintService {
	return &PrintService{
		builder:    builder,
		dispatcher: dispatcher,
		config:     cfg,
		logger:     logger,
	}
}

// Status reports bridge identity and printer availability. It never
// fails: an unreachable queue manager simply yields a zero printer count.
func (s *PrintService) Status(ctx context.Context) model.BridgeStatus {
	return model.BridgeStatus{
		Version:      s.config.App.Version,
		Platform:     runtime.GOOS,
		PrinterCount: len(s.dispatcher.ListPrinters(ctx)),
		ImageSupport: true,
	}
}

// ListPrinters re-queries the OS on every call; nothing is cached.
func (s *PrintService) ListPrinters(ctx context.Context) []model.PrinterDescriptor {
	return s.dispatcher.ListPrinters(ctx)
}

// Print validates the job, renders its payload into a command buffer and
// dispatches it. Validation failures come back as *ValidationError,
// dispatch failures as *spooler.PrintDispatchError.
func (s *PrintService) Print(ctx context.Context, job *model.PrintJob) error {
	if job.PrinterName == "" {
		return &ValidationError{Field: "printer_name", Reason: "required"}
	}
	if n := job.PayloadCount(); n != 1 {
		if n == 0 {
			return &ValidationError{Field: "payload", Reason: "one of raw, receipt or text is required"}
		}
		return &ValidationError{Field: "payload", Reason: "raw, receipt and text are mutually exclusive"}
	}

	var buffer []byte
	var kind string
	switch {
	case job.Raw != "":
		kind = "raw"
		data, err := base64.StdEncoding.DecodeString(job.Raw)
		if err != nil {
			return &ValidationError{Field: "raw", Reason: "payload is not valid base64"}
		}
		buffer = data
	case job.Receipt != nil:
		kind = "receipt"
		buffer = s.builder.BuildReceipt(job.Receipt)
		if job.Receipt.OpenCashDrawer {
			buffer = append(buffer, escpos.DrawerKick(s.config.Printing.DrawerPin)...)
		}
	default:
		kind = "text"
		buffer = s.builder.BuildText(job.Text)
	}

	return s.dispatch(ctx, kind, job.PrinterName, buffer)
}

// PrintRaw dispatches pre-encoded bytes, skipping the command builder.
func (s *PrintService) PrintRaw(ctx context.Context, job *model.RawPrintJob) error {
	if job.PrinterName == "" {
		return &ValidationError{Field: "printer_name", Reason: "required"}
	}
	if job.Data == "" {
		return &ValidationError{Field: "data", Reason: "required"}
	}

	data, err := base64.StdEncoding.DecodeString(job.Data)
	if err != nil {
		return &ValidationError{Field: "data", Reason: "payload is not valid base64"}
	}

	return s.dispatch(ctx, "raw", job.PrinterName, data)
}

// OpenDrawer sends the drawer kick pulse as a standalone job.
func (s *PrintService) OpenDrawer(ctx context.Context, job *model.DrawerJob) error {
	if job.PrinterName == "" {
		return &ValidationError{Field: "printer_name", Reason: "required"}
	}

	pin := s.config.Printing.DrawerPin
	if job.Pin != nil {
		pin = *job.Pin
	}

	return s.dispatch(ctx, "drawer-kick", job.PrinterName, s.builder.BuildDrawerKick(pin))
}

func (s *PrintService) dispatch(ctx context.Context, kind, printer string, buffer []byte) error {
	jobLogger := utils.NewJobLogger(s.logger, kind, printer)

	if err := s.dispatcher.Send(ctx, printer, buffer); err != nil {
		jobLogger.Error(err)
		return err
	}

	jobLogger.Success(len(buffer))
	return nil
}
