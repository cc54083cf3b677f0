package st7735

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"github.com/flavioheleno/st7735/rgb565"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

const (
	// Size of the controller's display RAM.
	ramCols = 132
	ramRows = 162

	defaultMaxTxSize = 4096
)

// Opts is the configuration for the ST7735 display.
type Opts struct {
	// Logical display dimensions in pixels, as seen after SetOrientation.
	W int // Width, 1 to 162
	H int // Height, 1 to 162

	// BGR selects a panel wired with a BGR color filter. The default is RGB.
	BGR bool
	// Inverted enables display inversion during Init.
	Inverted bool

	// Hz is the SPI clock used by NewSPI (default: 16MHz).
	Hz physic.Frequency
	// Delay blocks for at least the given duration. Defaults to time.Sleep.
	Delay func(time.Duration)
}

// DefaultOpts is a 1.8" 128x160 RGB panel.
var DefaultOpts = Opts{
	W:  128,
	H:  160,
	Hz: 16 * physic.MegaHertz,
}

// Dev is the device handle for the ST7735 display.
//
// Dev is not safe for concurrent use.
type Dev struct {
	// Communication
	c         conn.Conn   // SPI connection
	dc        gpio.PinOut // Data/Command pin, low for command bytes
	rst       gpio.PinOut // Reset pin, active low
	maxTxSize int
	buf       []byte // Scratch space for encoding pixel words

	// Panel configuration
	w, h     int
	bgr      bool
	inverted bool
	delay    func(time.Duration)

	// State
	dx, dy      uint16
	orientation Orientation
	initialized bool

	// Shadow frames used by Draw for differential updates.
	next  *rgb565.Image
	last  *rgb565.Image
	stale bool
}

// NewSPI returns a Dev that communicates over SPI with a ST7735 controller.
//
// The SPI port is configured at opts.Hz, Mode0, 8-bit words. Both dc and rst
// must be valid output pins. Init must be called before drawing.
//
// opts can be nil to use DefaultOpts.
func NewSPI(p spi.Port, dc, rst gpio.PinOut, opts *Opts) (*Dev, error) {
	if opts == nil {
		o := DefaultOpts
		opts = &o
	}
	hz := opts.Hz
	if hz == 0 {
		hz = DefaultOpts.Hz
	}
	if err := validate(dc, rst, opts); err != nil {
		return nil, err
	}
	c, err := p.Connect(hz, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("st7735: %w", err)
	}
	return New(c, dc, rst, opts)
}

// New returns a Dev on an already connected bus.
func New(c conn.Conn, dc, rst gpio.PinOut, opts *Opts) (*Dev, error) {
	if opts == nil {
		o := DefaultOpts
		opts = &o
	}
	if err := validate(dc, rst, opts); err != nil {
		return nil, err
	}

	// Get the maxTxSize from the conn if it implements the conn.Limits
	// interface, otherwise use 4096 bytes.
	maxTxSize := 0
	if limits, ok := c.(conn.Limits); ok {
		maxTxSize = limits.MaxTxSize()
	}
	if maxTxSize < 2 {
		maxTxSize = defaultMaxTxSize
	}
	bufSize := min(maxTxSize, defaultMaxTxSize) &^ 1

	delay := opts.Delay
	if delay == nil {
		delay = time.Sleep
	}
	return &Dev{
		c:         c,
		dc:        dc,
		rst:       rst,
		maxTxSize: maxTxSize,
		buf:       make([]byte, bufSize),
		w:         opts.W,
		h:         opts.H,
		bgr:       opts.BGR,
		inverted:  opts.Inverted,
		delay:     delay,
		stale:     true,
	}, nil
}

func validate(dc, rst gpio.PinOut, opts *Opts) error {
	if dc == nil || dc == gpio.INVALID {
		return errors.New("st7735: dc pin is required")
	}
	if rst == nil || rst == gpio.INVALID {
		return errors.New("st7735: rst pin is required")
	}
	if opts.W <= 0 || opts.W > ramRows {
		return fmt.Errorf("st7735: invalid width %d", opts.W)
	}
	if opts.H <= 0 || opts.H > ramRows {
		return fmt.Errorf("st7735: invalid height %d", opts.H)
	}
	return nil
}

// command is one step of a command sequence.
type command struct {
	ins   Instruction
	data  []byte
	delay time.Duration
}

// initSequence returns the power up sequence for the panel.
func (d *Dev) initSequence() []command {
	inversion := INVOFF
	if d.inverted {
		inversion = INVON
	}
	return []command{
		{ins: SWRESET, delay: 200 * time.Millisecond},
		{ins: SLPOUT, delay: 200 * time.Millisecond},
		// Frame rate: normal, idle and partial modes.
		{ins: FRMCTR1, data: []byte{0x01, 0x2C, 0x2D}},
		{ins: FRMCTR2, data: []byte{0x01, 0x2C, 0x2D}},
		{ins: FRMCTR3, data: []byte{0x01, 0x2C, 0x2D, 0x01, 0x2C, 0x2D}},
		{ins: INVCTR, data: []byte{0x07}}, // No inversion in any mode
		{ins: PWCTR1, data: []byte{0xA2, 0x02, 0x84}},
		{ins: PWCTR2, data: []byte{0xC5}},
		{ins: PWCTR3, data: []byte{0x0A, 0x00}},
		{ins: PWCTR4, data: []byte{0x8A, 0x2A}},
		{ins: PWCTR5, data: []byte{0x8A, 0xEE}},
		{ins: VMCTR1, data: []byte{0x0E}},
		{ins: inversion},
		{ins: MADCTL, data: []byte{Portrait.madctl(d.bgr)}},
		{ins: COLMOD, data: []byte{0x05}}, // 16 bits per pixel
		{ins: DISPON, delay: 200 * time.Millisecond},
	}
}

// Init resets the controller and sends the initialization sequence.
//
// Any failure aborts the sequence and leaves the panel partially initialized;
// drawing operations keep returning ErrNotInitialized until Init succeeds.
func (d *Dev) Init() error {
	d.initialized = false
	if err := d.HardReset(); err != nil {
		return err
	}
	for _, cmd := range d.initSequence() {
		if err := d.sendCommand(cmd.ins, cmd.data...); err != nil {
			return err
		}
		if cmd.delay != 0 {
			d.delay(cmd.delay)
		}
	}
	d.orientation = Portrait
	d.initialized = true
	d.stale = true
	return nil
}

// HardReset pulses the reset line high, low, high.
//
// No delay is inserted between the transitions. The reset pulse must be at
// least 10µs long; GPIO drivers are normally slower than that.
func (d *Dev) HardReset() error {
	for _, l := range []gpio.Level{gpio.High, gpio.Low, gpio.High} {
		if err := d.rst.Out(l); err != nil {
			return &TransportError{Op: "rst", Err: err}
		}
	}
	return nil
}

// SetOrientation changes the memory access order of the controller. The
// color order bit set at Init is preserved.
//
// It does not change Bounds: W and H are configured for the orientation the
// panel is used in.
func (d *Dev) SetOrientation(o Orientation) error {
	if !d.initialized {
		return ErrNotInitialized
	}
	if !o.Valid() {
		return ErrInvalidOrientation
	}
	if err := d.sendCommand(MADCTL, o.madctl(d.bgr)); err != nil {
		return err
	}
	d.orientation = o
	d.stale = true
	return nil
}

// Orientation returns the last orientation set.
func (d *Dev) Orientation() Orientation {
	return d.orientation
}

// SetOffset sets the global offset added to every window coordinate. It
// replaces the previous offset.
//
// Panels smaller than the controller RAM are usually mounted at an offset,
// e.g. (26, 1) for 80x160 panels. Coordinates are not checked against it:
// the sums wrap modulo 65536.
func (d *Dev) SetOffset(dx, dy uint16) {
	d.dx = dx
	d.dy = dy
	d.stale = true
}

// Offset returns the current global offset.
func (d *Dev) Offset() (dx, dy uint16) {
	return d.dx, d.dy
}

// setAddressWindow sets the inclusive window filled by the next RAMWR.
//
// Coordinates are passed through unchecked.
func (d *Dev) setAddressWindow(sx, sy, ex, ey uint16) error {
	var p [4]byte
	binary.BigEndian.PutUint16(p[0:], sx+d.dx)
	binary.BigEndian.PutUint16(p[2:], ex+d.dx)
	if err := d.sendCommand(CASET, p[:]...); err != nil {
		return err
	}
	binary.BigEndian.PutUint16(p[0:], sy+d.dy)
	binary.BigEndian.PutUint16(p[2:], ey+d.dy)
	return d.sendCommand(RASET, p[:]...)
}

// SetPixel sets the color of the pixel at (x, y).
func (d *Dev) SetPixel(x, y uint16, c rgb565.Color) error {
	if !d.initialized {
		return ErrNotInitialized
	}
	d.stale = true
	if err := d.setAddressWindow(x, y, x, y); err != nil {
		return err
	}
	return d.sendCommand(RAMWR, byte(c>>8), byte(c))
}

// WritePixels writes colors sequentially into the current window.
//
// The window must have been set by a previous SetPixels or SetColor call.
// The number of colors is not checked against the window size; the
// controller wraps to the window start when it reaches the end.
func (d *Dev) WritePixels(colors []rgb565.Color) error {
	if !d.initialized {
		return ErrNotInitialized
	}
	d.stale = true
	if err := d.sendCommand(RAMWR); err != nil {
		return err
	}
	if len(colors) == 0 {
		return nil
	}
	if err := d.dcOut(gpio.High); err != nil {
		return err
	}
	for len(colors) != 0 {
		n := min(len(colors), len(d.buf)/2)
		for i, c := range colors[:n] {
			binary.BigEndian.PutUint16(d.buf[2*i:], uint16(c))
		}
		if err := d.tx(d.buf[:2*n]); err != nil {
			return err
		}
		colors = colors[n:]
	}
	return nil
}

// SetPixels sets the window (sx, sy)-(ex, ey), inclusive, and writes colors
// into it in row major order.
func (d *Dev) SetPixels(sx, sy, ex, ey uint16, colors []rgb565.Color) error {
	if !d.initialized {
		return ErrNotInitialized
	}
	if ex < sx || ey < sy {
		return ErrInvalidWindow
	}
	if err := d.setAddressWindow(sx, sy, ex, ey); err != nil {
		return err
	}
	return d.WritePixels(colors)
}

// SetColor fills the window (sx, sy)-(ex, ey), inclusive, with c.
func (d *Dev) SetColor(sx, sy, ex, ey uint16, c rgb565.Color) error {
	if !d.initialized {
		return ErrNotInitialized
	}
	if ex < sx || ey < sy {
		return ErrInvalidWindow
	}
	d.stale = true
	if err := d.setAddressWindow(sx, sy, ex, ey); err != nil {
		return err
	}
	if err := d.sendCommand(RAMWR); err != nil {
		return err
	}
	return d.sendRepeated(c, (int(ex-sx)+1)*(int(ey-sy)+1))
}

// Clear fills the whole display with c.
func (d *Dev) Clear(c rgb565.Color) error {
	return d.SetColor(0, 0, uint16(d.w-1), uint16(d.h-1), c)
}

// Size returns the logical display size in pixels.
func (d *Dev) Size() (w, h int) {
	return d.w, d.h
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return rgb565.Model
}

// Bounds implements display.Drawer. Min is guaranteed to be {0, 0}.
func (d *Dev) Bounds() image.Rectangle {
	return image.Rect(0, 0, d.w, d.h)
}

// Draw implements display.Drawer.
//
// The driver keeps a copy of the last frame drawn and only sends the
// smallest rectangle that changed. Writes done through SetPixel, SetPixels,
// WritePixels or SetColor, as well as orientation and offset changes,
// invalidate that copy and the next Draw sends the full frame.
func (d *Dev) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	if !d.initialized {
		return ErrNotInitialized
	}
	bounds := d.Bounds()
	if dst.Intersect(bounds).Empty() {
		return nil
	}

	// Fast path: full frame in the native format.
	if img, ok := src.(*rgb565.Image); ok && dst == bounds && sp == (image.Point{}) && img.Rect == bounds {
		return d.writeFrame(img.Pix)
	}

	d.allocFrames()
	draw.Draw(d.next, dst, src, sp, draw.Src)

	r := bounds
	if !d.stale {
		r = d.calculateDiff()
		if r.Empty() {
			return nil
		}
	}
	if err := d.writeRect(r, d.next.SubImage(r).Pix); err != nil {
		// The panel content is unknown now.
		d.stale = true
		return err
	}
	copy(d.last.Pix, d.next.Pix)
	d.stale = false
	return nil
}

// Write sends a raw frame of big-endian RGB565 words, as stored in
// rgb565.Image.Pix. The data must be exactly W*H*2 bytes.
func (d *Dev) Write(pixels []byte) (int, error) {
	if !d.initialized {
		return 0, ErrNotInitialized
	}
	if len(pixels) != 2*d.w*d.h {
		return 0, errors.New("st7735: invalid buffer size")
	}
	if err := d.writeFrame(pixels); err != nil {
		return 0, err
	}
	return len(pixels), nil
}

// writeFrame sends a full frame and records it as the last frame drawn.
func (d *Dev) writeFrame(pixels []byte) error {
	if err := d.writeRect(d.Bounds(), pixels); err != nil {
		d.stale = true
		return err
	}
	d.allocFrames()
	copy(d.next.Pix, pixels)
	copy(d.last.Pix, pixels)
	d.stale = false
	return nil
}

// allocFrames lazy-initializes double buffering.
func (d *Dev) allocFrames() {
	if d.next == nil {
		d.next = rgb565.NewImage(d.Bounds())
		d.last = rgb565.NewImage(d.Bounds())
	}
}

// calculateDiff returns the smallest rectangle containing every pixel that
// differs between the last frame sent and the next one.
func (d *Dev) calculateDiff() image.Rectangle {
	var r image.Rectangle
	stride := d.next.Stride
	for y := 0; y < d.h; y++ {
		row := y * stride
		for x := 0; x < d.w; x++ {
			i := row + 2*x
			if d.next.Pix[i] != d.last.Pix[i] || d.next.Pix[i+1] != d.last.Pix[i+1] {
				r = r.Union(image.Rect(x, y, x+1, y+1))
			}
		}
	}
	return r
}

// writeRect sets the window to r and sends pixels, which must hold exactly
// r.Dx()*r.Dy() big-endian words.
func (d *Dev) writeRect(r image.Rectangle, pixels []byte) error {
	if err := d.setAddressWindow(uint16(r.Min.X), uint16(r.Min.Y), uint16(r.Max.X-1), uint16(r.Max.Y-1)); err != nil {
		return err
	}
	if err := d.sendCommand(RAMWR); err != nil {
		return err
	}
	return d.sendData(pixels)
}

// Invert turns display inversion on or off, overriding Opts.Inverted until
// the next Init.
func (d *Dev) Invert(invert bool) error {
	if !d.initialized {
		return ErrNotInitialized
	}
	if invert {
		return d.sendCommand(INVON)
	}
	return d.sendCommand(INVOFF)
}

// Halt turns the display off. Sending DISPON through Init turns it back on.
func (d *Dev) Halt() error {
	return d.sendCommand(DISPOFF)
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("st7735.Dev{%dx%d}", d.w, d.h)
}

// sendCommand sends one opcode with DC low, followed by its parameters with
// DC high.
func (d *Dev) sendCommand(ins Instruction, params ...byte) error {
	if err := d.dcOut(gpio.Low); err != nil {
		return err
	}
	if err := d.tx([]byte{byte(ins)}); err != nil {
		return err
	}
	if len(params) == 0 {
		return nil
	}
	return d.sendData(params)
}

// sendData sends data bytes with DC high, split in chunks the bus accepts.
func (d *Dev) sendData(data []byte) error {
	if err := d.dcOut(gpio.High); err != nil {
		return err
	}
	for len(data) != 0 {
		var chunk []byte
		if len(data) > d.maxTxSize {
			chunk, data = data[:d.maxTxSize], data[d.maxTxSize:]
		} else {
			chunk, data = data, nil
		}
		if err := d.tx(chunk); err != nil {
			return err
		}
	}
	return nil
}

// sendRepeated sends n copies of c with DC high.
func (d *Dev) sendRepeated(c rgb565.Color, n int) error {
	if n == 0 {
		return nil
	}
	if err := d.dcOut(gpio.High); err != nil {
		return err
	}
	words := min(n, len(d.buf)/2)
	for i := 0; i < words; i++ {
		binary.BigEndian.PutUint16(d.buf[2*i:], uint16(c))
	}
	for n > 0 {
		k := min(n, words)
		if err := d.tx(d.buf[:2*k]); err != nil {
			return err
		}
		n -= k
	}
	return nil
}

func (d *Dev) dcOut(l gpio.Level) error {
	if err := d.dc.Out(l); err != nil {
		return &TransportError{Op: "dc", Err: err}
	}
	return nil
}

func (d *Dev) tx(w []byte) error {
	if err := d.c.Tx(w, nil); err != nil {
		return &TransportError{Op: "tx", Err: err}
	}
	return nil
}

var _ display.Drawer = &Dev{}
var _ fmt.Stringer = &Dev{}
