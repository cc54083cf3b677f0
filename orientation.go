package st7735

import "fmt"

// MADCTL register bits.
const (
	madctlMY  = 0x80 // Row address order
	madctlMX  = 0x40 // Column address order
	madctlMV  = 0x20 // Row/column exchange
	madctlML  = 0x10 // Vertical refresh order
	madctlBGR = 0x08 // BGR color filter panel
)

// Orientation is the rotation/mirroring written to the memory access control
// register.
type Orientation byte

// Supported orientations.
const (
	Portrait         Orientation = 0x00
	Landscape        Orientation = madctlMX | madctlMV
	PortraitSwapped  Orientation = madctlMY | madctlMX
	LandscapeSwapped Orientation = madctlMY | madctlMV
)

// Valid reports whether o is one of the four supported orientations.
func (o Orientation) Valid() bool {
	switch o {
	case Portrait, Landscape, PortraitSwapped, LandscapeSwapped:
		return true
	}
	return false
}

// Transposed reports whether rows and columns are exchanged, i.e. whether
// the logical width and height swap.
func (o Orientation) Transposed() bool {
	return o&madctlMV != 0
}

func (o Orientation) String() string {
	switch o {
	case Portrait:
		return "Portrait"
	case Landscape:
		return "Landscape"
	case PortraitSwapped:
		return "PortraitSwapped"
	case LandscapeSwapped:
		return "LandscapeSwapped"
	}
	return fmt.Sprintf("Orientation(0x%02X)", byte(o))
}

// madctl returns the MADCTL parameter for o. The orientation bits and the
// color order bit are disjoint.
func (o Orientation) madctl(bgr bool) byte {
	b := byte(o)
	if bgr {
		b |= madctlBGR
	}
	return b
}
