// internal/escpos/command.go
package escpos

// Commands contains the ESC/POS control sequences used by the builder.
var Commands = struct {
	// Basic
	Initialize []byte

	// Text emphasis
	BoldOn  []byte
	BoldOff []byte

	// Text size
	SizeNormal     []byte
	SizeDoubleBoth []byte

	// Alignment
	AlignLeft   []byte
	AlignCenter []byte
	AlignRight  []byte

	// Paper handling
	LineFeed  []byte
	FeedLines []byte // + line count byte

	// Cutting
	CutFull    []byte
	CutPartial []byte

	// Cash drawer: ESC p m t1 t2, pulse t1*2ms on / t2*2ms off
	DrawerKickPin0 []byte
	DrawerKickPin5 []byte

	// Raster graphics: GS v 0 m, followed by xL xH yL yH + bitmap
	RasterHeader []byte
}{
	Initialize: []byte{0x1B, 0x40}, // ESC @

	BoldOn:  []byte{0x1B, 0x45, 0x01}, // ESC E 1
	BoldOff: []byte{0x1B, 0x45, 0x00}, // ESC E 0

	SizeNormal:     []byte{0x1D, 0x21, 0x00}, // GS ! 0
	SizeDoubleBoth: []byte{0x1D, 0x21, 0x30}, // GS ! 48

	AlignLeft:   []byte{0x1B, 0x61, 0x00}, // ESC a 0
	AlignCenter: []byte{0x1B, 0x61, 0x01}, // ESC a 1
	AlignRight:  []byte{0x1B, 0x61, 0x02}, // ESC a 2

	LineFeed:  []byte{0x0A},       // LF
	FeedLines: []byte{0x1B, 0x64}, // ESC d + n

	CutFull:    []byte{0x1D, 0x56, 0x00}, // GS V 0
	CutPartial: []byte{0x1D, 0x56, 0x01}, // GS V 1

	DrawerKickPin0: []byte{0x1B, 0x70, 0x00, 0x19, 0xFA}, // ESC p 0 25 250
	DrawerKickPin5: []byte{0x1B, 0x70, 0x01, 0x19, 0xFA}, // ESC p 1 25 250

	RasterHeader: []byte{0x1D, 0x76, 0x30, 0x00}, // GS v 0, normal mode
}

// DrawerKick returns the drawer pulse for the given connector pin.
// Pins 0/2 map to the first connector, 1/5 to the second.
func DrawerKick(pin int) []byte {
	if pin == 1 || pin == 5 {
		return Commands.DrawerKickPin5
	}
	return Commands.DrawerKickPin0
}
