// internal/escpos/builder.go
package escpos

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"print-bridge/internal/model"
)

const (
	// separatorWidth matches font A on an 80mm head.
	separatorWidth = 32

	// itemNameMax is the silent truncation limit for item names.
	itemNameMax = 20
)

// Builder translates receipts and plain text into ESC/POS byte buffers.
// It never fails: missing optional fields are omitted from the output and
// an undecodable logo is dropped with a log line, so a bad image can never
// block the sale's receipt.
type Builder struct {
	raster *RasterEncoder
	logger *zap.Logger
}

// NewBuilder creates a command builder. The raster encoder may be nil, in
// which case logos are skipped entirely.
func NewBuilder(raster *RasterEncoder, logger *zap.Logger) *Builder {
	return &Builder{
		raster: raster,
		logger: logger,
	}
}

// BuildReceipt renders a structured receipt into a complete command
// buffer, initialize sequence first, optional cut last.
func (b *Builder) BuildReceipt(r *model.Receipt) []byte {
	buf := &bytes.Buffer{}

	buf.Write(Commands.Initialize)
	buf.Write(Commands.AlignCenter)

	if r.Logo != "" {
		b.writeLogo(buf, r.Logo)
	}

	if r.CompanyName != "" {
		buf.Write(Commands.SizeDoubleBoth)
		buf.WriteString(r.CompanyName)
		buf.Write(Commands.LineFeed)
		buf.Write(Commands.SizeNormal)
	}

	for _, line := range r.HeaderLines {
		buf.WriteString(line)
		buf.Write(Commands.LineFeed)
	}

	buf.Write(Commands.LineFeed)
	buf.Write(Commands.AlignLeft)

	writeLabeled(buf, "Order", r.OrderNumber)
	writeLabeled(buf, "Date", r.Date)
	writeLabeled(buf, "Cashier", r.Cashier)

	writeSeparator(buf)
	for _, item := range r.Items {
		b.writeItem(buf, item)
	}
	writeSeparator(buf)

	buf.Write(Commands.AlignRight)
	if r.Subtotal != nil {
		buf.WriteString("Subtotal: $" + money(*r.Subtotal))
		buf.Write(Commands.LineFeed)
	}
	if r.TaxAmount != nil {
		buf.WriteString("Tax: $" + money(*r.TaxAmount))
		buf.Write(Commands.LineFeed)
	}
	if r.Discount != nil {
		buf.WriteString("Discount: -$" + money(*r.Discount))
		buf.Write(Commands.LineFeed)
	}

	// The total always prints, emphasized, even when the caller sent none.
	buf.Write(Commands.SizeDoubleBoth)
	buf.WriteString("TOTAL: $" + money(r.Total))
	buf.Write(Commands.LineFeed)
	buf.Write(Commands.SizeNormal)

	if r.PaymentMethod != "" {
		buf.WriteString("Paid: " + r.PaymentMethod)
		buf.Write(Commands.LineFeed)
	}
	if r.CashReceived != nil {
		buf.WriteString("Cash: $" + money(*r.CashReceived))
		buf.Write(Commands.LineFeed)
	}
	if r.Change != nil {
		buf.WriteString("Change: $" + money(*r.Change))
		buf.Write(Commands.LineFeed)
	}

	buf.Write(Commands.AlignCenter)
	buf.Write(Commands.LineFeed)
	for _, line := range r.FooterLines {
		buf.WriteString(line)
		buf.Write(Commands.LineFeed)
	}
	if r.ThankYouMessage != "" {
		buf.WriteString(r.ThankYouMessage)
		buf.Write(Commands.LineFeed)
	}

	buf.Write(Commands.LineFeed)
	buf.Write(Commands.LineFeed)
	buf.Write(Commands.LineFeed)

	if r.ShouldCut() {
		buf.Write(Commands.CutFull)
	}

	return buf.Bytes()
}

// BuildText renders unstructured text. Line endings are normalized so a
// caller sending CRLF gets the same output as one sending LF.
func (b *Builder) BuildText(text string) []byte {
	buf := &bytes.Buffer{}

	buf.Write(Commands.Initialize)
	buf.Write(Commands.AlignLeft)

	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, line := range strings.Split(text, "\n") {
		buf.WriteString(line)
		buf.Write(Commands.LineFeed)
	}

	buf.Write(Commands.LineFeed)
	buf.Write(Commands.LineFeed)
	buf.Write(Commands.LineFeed)
	buf.Write(Commands.CutFull)

	return buf.Bytes()
}

// BuildDrawerKick returns a standalone drawer pulse buffer.
func (b *Builder) BuildDrawerKick(pin int) []byte {
	buf := &bytes.Buffer{}
	buf.Write(Commands.Initialize)
	buf.Write(DrawerKick(pin))
	return buf.Bytes()
}

func (b *Builder) writeLogo(buf *bytes.Buffer, source string) {
	if b.raster == nil {
		return
	}

	fragment, err := b.raster.EncodeSource(source)
	if err != nil {
		// Degrade by omission: the receipt prints without its logo.
		if b.logger != nil {
			b.logger.Warn("Logo skipped, image could not be encoded", zap.Error(err))
		}
		return
	}

	buf.Write(fragment)
	buf.Write(Commands.LineFeed)
}

func (b *Builder) writeItem(buf *bytes.Buffer, item model.ReceiptItem) {
	name := item.Name
	// Truncate on runes: slicing bytes could cut a multibyte character in
	// half and send a stray lead byte to the printer.
	if runes := []rune(name); len(runes) > itemNameMax {
		name = string(runes[:itemNameMax])
	}

	buf.WriteString(strconv.FormatFloat(item.Quantity, 'f', -1, 64) + "x " + name)
	buf.Write(Commands.LineFeed)

	for _, mod := range item.Modifiers {
		buf.WriteString("  + " + mod)
		buf.Write(Commands.LineFeed)
	}

	buf.WriteString("   $" + money(item.Total))
	buf.Write(Commands.LineFeed)
}

func writeLabeled(buf *bytes.Buffer, label, value string) {
	if value == "" {
		return
	}
	buf.WriteString(label + ": " + value)
	buf.Write(Commands.LineFeed)
}

func writeSeparator(buf *bytes.Buffer) {
	buf.WriteString(strings.Repeat("-", separatorWidth))
	buf.Write(Commands.LineFeed)
}

// money renders a currency amount with exactly two decimals regardless of
// the source precision.
func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
