// internal/spooler/winspool.go
//go:build windows

package spooler

import (
	"context"
	"unsafe"

	"go.uber.org/zap"
	"golang.org/x/sys/windows"

	"print-bridge/internal/model"
)

var (
	winspool = windows.NewLazySystemDLL("winspool.drv")

	procOpenPrinter       = winspool.NewProc("OpenPrinterW")
	procClosePrinter      = winspool.NewProc("ClosePrinter")
	procStartDocPrinter   = winspool.NewProc("StartDocPrinterW")
	procEndDocPrinter     = winspool.NewProc("EndDocPrinter")
	procStartPagePrinter  = winspool.NewProc("StartPagePrinter")
	procEndPagePrinter    = winspool.NewProc("EndPagePrinter")
	procWritePrinter      = winspool.NewProc("WritePrinter")
	procEnumPrinters      = winspool.NewProc("EnumPrintersW")
	procGetDefaultPrinter = winspool.NewProc("GetDefaultPrinterW")
)

const (
	printerEnumLocal       = 0x00000002
	printerEnumConnections = 0x00000004
)

// printerInfo4 mirrors PRINTER_INFO_4W.
type printerInfo4 struct {
	printerName *uint16
	serverName  *uint16
	attributes  uint32
}

// docInfo1 mirrors DOC_INFO_1W.
type docInfo1 struct {
	docName    *uint16
	outputFile *uint16
	datatype   *uint16
}

// winspoolDispatcher writes jobs through the Windows spooler's low-level
// byte interface with the RAW datatype, so the driver does not reformat
// the ESC/POS stream.
type winspoolDispatcher struct {
	opts   Options
	logger *zap.Logger
}

func newPlatformDispatcher(opts Options, logger *zap.Logger) Dispatcher {
	return &winspoolDispatcher{opts: opts, logger: logger}
}

func (d *winspoolDispatcher) ListPrinters(ctx context.Context) []model.PrinterDescriptor {
	var needed, returned uint32
	flags := uintptr(printerEnumLocal | printerEnumConnections)

	procEnumPrinters.Call(flags, 0, 4, 0, 0,
		uintptr(unsafe.Pointer(&needed)), uintptr(unsafe.Pointer(&returned)))
	if needed == 0 {
		return []model.PrinterDescriptor{}
	}

	buf := make([]byte, needed)
	r1, _, err := procEnumPrinters.Call(flags, 0, 4,
		uintptr(unsafe.Pointer(&buf[0])), uintptr(needed),
		uintptr(unsafe.Pointer(&needed)), uintptr(unsafe.Pointer(&returned)))
	if r1 == 0 {
		d.logger.Warn("Printer enumeration failed", zap.Error(err))
		return []model.PrinterDescriptor{}
	}

	defaultName := defaultPrinterName()

	infos := unsafe.Slice((*printerInfo4)(unsafe.Pointer(&buf[0])), returned)
	printers := []model.PrinterDescriptor{}
	for _, info := range infos {
		name := windows.UTF16PtrToString(info.printerName)
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

func defaultPrinterName() string {
	var size uint32
	procGetDefaultPrinter.Call(0, uintptr(unsafe.Pointer(&size)))
	if size == 0 {
		return ""
	}
	buf := make([]uint16, size)
	r1, _, _ := procGetDefaultPrinter.Call(
		uintptr(unsafe.Pointer(&buf[0])), uintptr(unsafe.Pointer(&size)))
	if r1 == 0 {
		return ""
	}
	return windows.UTF16ToString(buf)
}

func (d *winspoolDispatcher) Send(ctx context.Context, printer string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, d.opts.timeout())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- d.writeRaw(printer, data)
	}()

	// The spooler API has no cancellation hook. On timeout the write
	// goroutine is abandoned and the job may still land, but the bridge
	// process must not hang on it.
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return &PrintDispatchError{Printer: printer, Diag: "spooler call timed out", Err: ctx.Err()}
	}
}

func (d *winspoolDispatcher) writeRaw(printer string, data []byte) error {
	name, err := windows.UTF16PtrFromString(printer)
	if err != nil {
		return &PrintDispatchError{Printer: printer, Diag: "invalid printer name", Err: err}
	}

	var handle windows.Handle
	r1, _, callErr := procOpenPrinter.Call(
		uintptr(unsafe.Pointer(name)), uintptr(unsafe.Pointer(&handle)), 0)
	if r1 == 0 {
		return &PrintDispatchError{Printer: printer, Diag: "OpenPrinter failed", Err: callErr}
	}
	defer procClosePrinter.Call(uintptr(handle))

	docName, _ := windows.UTF16PtrFromString("POS Receipt")
	datatype, _ := windows.UTF16PtrFromString("RAW")
	doc := docInfo1{docName: docName, datatype: datatype}

	r1, _, callErr = procStartDocPrinter.Call(uintptr(handle), 1, uintptr(unsafe.Pointer(&doc)))
	if r1 == 0 {
		return &PrintDispatchError{Printer: printer, Diag: "StartDocPrinter failed", Err: callErr}
	}
	defer procEndDocPrinter.Call(uintptr(handle))

	r1, _, callErr = procStartPagePrinter.Call(uintptr(handle))
	if r1 == 0 {
		return &PrintDispatchError{Printer: printer, Diag: "StartPagePrinter failed", Err: callErr}
	}
	defer procEndPagePrinter.Call(uintptr(handle))

	var written uint32
	r1, _, callErr = procWritePrinter.Call(uintptr(handle),
		uintptr(unsafe.Pointer(&data[0])), uintptr(len(data)),
		uintptr(unsafe.Pointer(&written)))
	if r1 == 0 {
		return &PrintDispatchError{Printer: printer, Diag: "WritePrinter failed", Err: callErr}
	}
	if int(written) != len(data) {
		return &PrintDispatchError{Printer: printer,
			Diag: "spooler accepted a short write"}
	}

	d.logger.Info("Raw job written to spooler",
		zap.String("printer", printer),
		zap.Int("bytes", len(data)),
	)
	return nil
}
