// Package emulator implements an in-memory ST7735 controller.
//
// A Panel exposes a bus and the two control lines expected by st7735.New.
// Everything written to them is decoded the way the controller does: the
// data/command line selects between opcodes and parameters, CASET/RASET set
// the address window and RAMWR fills it in row major order. The resulting
// frame memory can be read back as an image or printed on an ANSI terminal.
//
// Useful to develop a UI while the panel is still in the mail.
package emulator

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"sync"

	"github.com/flavioheleno/st7735"
	"github.com/flavioheleno/st7735/rgb565"
	"github.com/maruel/ansi256"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// Size of the controller's display RAM.
const (
	RAMWidth  = 132
	RAMHeight = 162
)

// MADCTL bits.
const (
	madctlMY  = 0x80
	madctlMX  = 0x40
	madctlMV  = 0x20
	madctlBGR = 0x08
)

// Opts represents the options available for the emulated panel.
type Opts struct {
	// BGR emulates a panel with a BGR color filter. Red and blue are swapped
	// unless the driver sets the MADCTL BGR bit accordingly.
	BGR bool
	// Inverted emulates a panel that shows inverted colors unless INVON is
	// sent.
	Inverted bool
	// MaxTxSize is reported through conn.Limits. 0 means no limit.
	MaxTxSize int
	// Palette used by Render. Defaults to ansi256.Default.
	Palette *ansi256.Palette
	// Logger receives decoded commands at debug level. Defaults to the
	// logrus standard logger.
	Logger logrus.FieldLogger
}

// Command is one decoded opcode with its parameters.
type Command struct {
	Op     st7735.Instruction
	Params []byte // Parameters; empty for RAMWR
	Pixels int    // Number of pixels written by RAMWR
}

func (c Command) String() string {
	if c.Op == st7735.RAMWR {
		return fmt.Sprintf("%s(%d pixels)", c.Op, c.Pixels)
	}
	return fmt.Sprintf("%s [% X]", c.Op, c.Params)
}

// Panel is an emulated ST7735 controller and its glass.
type Panel struct {
	mu      sync.Mutex
	opts    Opts
	log     logrus.FieldLogger
	palette ansi256.Palette

	// Bus and control lines.
	dcLevel  gpio.Level
	rstLevel gpio.Level
	resets   int

	// Registers.
	madctl     byte
	colmod     byte
	xs, xe     uint16
	ys, ye     uint16
	sleeping   bool
	displayOn  bool
	inversion  bool
	hasCommand bool
	cur        Command

	// RAMWR cursor.
	x, y    uint16
	pending []byte

	gram     []rgb565.Color
	commands []Command

	bus *bus
	dc  *pin
	rst *pin
}

// New returns a Panel in its power on state.
func New(opts *Opts) *Panel {
	if opts == nil {
		opts = &Opts{}
	}
	p := &Panel{
		opts:     *opts,
		log:      opts.Logger,
		rstLevel: gpio.High,
		gram:     make([]rgb565.Color, RAMWidth*RAMHeight),
	}
	if p.log == nil {
		p.log = logrus.StandardLogger()
	}
	if opts.Palette != nil {
		p.palette = *opts.Palette
	} else {
		p.palette = *ansi256.Default
	}
	p.bus = &bus{p: p}
	p.dc = &pin{p: p, name: "DC", num: 0}
	p.rst = &pin{p: p, name: "RST", num: 1}
	p.reset()
	return p
}

// Conn returns the emulated bus.
func (p *Panel) Conn() conn.Conn {
	return p.bus
}

// DC returns the data/command line.
func (p *Panel) DC() gpio.PinOut {
	return p.dc
}

// RST returns the reset line.
func (p *Panel) RST() gpio.PinOut {
	return p.rst
}

// Commands returns the commands decoded so far.
func (p *Panel) Commands() []Command {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.flush()
	out := make([]Command, len(p.commands))
	copy(out, p.commands)
	return out
}

// Resets returns the number of hardware resets seen on the RST line.
func (p *Panel) Resets() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resets
}

// Ready reports whether the panel is awake, displaying and set to 16 bits
// per pixel.
func (p *Panel) Ready() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.sleeping && p.displayOn && p.colmod&0x07 == 0x05
}

// MADCTL returns the memory access control register.
func (p *Panel) MADCTL() byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.madctl
}

// Window returns the current address window, inclusive.
func (p *Panel) Window() (xs, ys, xe, ye uint16) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.xs, p.ys, p.xe, p.ye
}

// Image returns the pixels visible in r, expressed in controller address
// space (offset included) under the current memory access control.
//
// Colors are what the glass shows: color order and inversion are applied,
// and a sleeping or disabled display is black.
func (p *Panel) Image(r image.Rectangle) *rgb565.Image {
	p.mu.Lock()
	defer p.mu.Unlock()
	img := rgb565.NewImage(r)
	if p.sleeping || !p.displayOn {
		return img
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			i, ok := p.index(uint16(x), uint16(y))
			if !ok {
				continue
			}
			img.SetRGB565(x, y, p.shown(p.gram[i]))
		}
	}
	return img
}

// Render prints the pixels of r on an ANSI 256 colors terminal, one line
// per row.
func (p *Panel) Render(w io.Writer, r image.Rectangle) error {
	img := p.Image(r)
	var buf bytes.Buffer
	for y := r.Min.Y; y < r.Max.Y; y++ {
		_, _ = buf.WriteString("\033[0m")
		for x := r.Min.X; x < r.Max.X; x++ {
			r, g, b := img.RGB565At(x, y).Components()
			_, _ = io.WriteString(&buf, p.palette.Block(color.NRGBA{R: r, G: g, B: b, A: 0xFF}))
		}
		_, _ = buf.WriteString("\033[0m\n")
	}
	_, err := buf.WriteTo(w)
	return err
}

// shown returns the color the glass displays for a stored value.
func (p *Panel) shown(c rgb565.Color) rgb565.Color {
	if (p.madctl&madctlBGR != 0) != p.opts.BGR {
		c = c.Swap()
	}
	if p.inversion == p.opts.Inverted {
		return c
	}
	return ^c
}

// index maps a controller address to a position in GRAM.
func (p *Panel) index(col, row uint16) (int, bool) {
	if p.madctl&madctlMV != 0 {
		col, row = row, col
	}
	if int(col) >= RAMWidth || int(row) >= RAMHeight {
		return 0, false
	}
	if p.madctl&madctlMX != 0 {
		col = RAMWidth - 1 - col
	}
	if p.madctl&madctlMY != 0 {
		row = RAMHeight - 1 - row
	}
	return int(row)*RAMWidth + int(col), true
}

// reset puts the registers in their reset state. GRAM is preserved.
func (p *Panel) reset() {
	p.madctl = 0
	p.colmod = 0x06
	p.xs, p.xe = 0, RAMWidth-1
	p.ys, p.ye = 0, RAMHeight-1
	p.sleeping = true
	p.displayOn = false
	p.inversion = false
	p.hasCommand = false
	p.pending = nil
}

// flush appends the command being decoded to the log.
func (p *Panel) flush() {
	if !p.hasCommand {
		return
	}
	p.commands = append(p.commands, p.cur)
	p.log.WithField("cmd", p.cur.String()).Debug("st7735 emulator")
	p.hasCommand = false
}

// command handles an opcode byte.
func (p *Panel) command(b byte) {
	p.flush()
	op := st7735.Instruction(b)
	if !op.Valid() {
		p.log.WithField("op", fmt.Sprintf("0x%02X", b)).Warn("st7735 emulator: unknown opcode")
	}
	p.cur = Command{Op: op}
	p.hasCommand = true
	p.pending = nil

	switch op {
	case st7735.SWRESET:
		p.reset()
		p.cur = Command{Op: op}
		p.hasCommand = true
	case st7735.SLPIN:
		p.sleeping = true
	case st7735.SLPOUT:
		p.sleeping = false
	case st7735.DISPON:
		p.displayOn = true
	case st7735.DISPOFF:
		p.displayOn = false
	case st7735.INVON:
		p.inversion = true
	case st7735.INVOFF:
		p.inversion = false
	case st7735.RAMWR:
		p.x, p.y = p.xs, p.ys
	}
}

// data handles parameter bytes of the current opcode.
func (p *Panel) data(w []byte) error {
	if !p.hasCommand {
		return errors.New("emulator: data without command")
	}
	if len(w) == 0 {
		return nil
	}
	if p.cur.Op == st7735.RAMWR {
		p.pending = append(p.pending, w...)
		for len(p.pending) >= 2 {
			p.writePixel(rgb565.Color(p.pending[0])<<8 | rgb565.Color(p.pending[1]))
			p.pending = p.pending[2:]
		}
		return nil
	}
	p.cur.Params = append(p.cur.Params, w...)
	params := p.cur.Params
	switch p.cur.Op {
	case st7735.MADCTL:
		p.madctl = params[0]
	case st7735.COLMOD:
		p.colmod = params[0]
	case st7735.CASET:
		if len(params) >= 4 {
			p.xs = uint16(params[0])<<8 | uint16(params[1])
			p.xe = uint16(params[2])<<8 | uint16(params[3])
		}
	case st7735.RASET:
		if len(params) >= 4 {
			p.ys = uint16(params[0])<<8 | uint16(params[1])
			p.ye = uint16(params[2])<<8 | uint16(params[3])
		}
	}
	return nil
}

// writePixel stores c at the cursor and advances it, wrapping to the window
// start after the last pixel.
func (p *Panel) writePixel(c rgb565.Color) {
	if i, ok := p.index(p.x, p.y); ok {
		p.gram[i] = c
	}
	p.cur.Pixels++
	if p.x < p.xe {
		p.x++
		return
	}
	p.x = p.xs
	if p.y < p.ye {
		p.y++
		return
	}
	p.y = p.ys
}

func (p *Panel) tx(w []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rstLevel == gpio.Low {
		// Held in reset.
		return nil
	}
	if p.dcLevel == gpio.Low {
		for _, b := range w {
			p.command(b)
		}
		return nil
	}
	return p.data(w)
}

func (p *Panel) out(pn *pin, l gpio.Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch pn {
	case p.dc:
		p.dcLevel = l
	case p.rst:
		if p.rstLevel == gpio.Low && l == gpio.High {
			p.flush()
			p.reset()
			p.resets++
		}
		p.rstLevel = l
	}
}

// bus is the emulated SPI connection.
type bus struct {
	p *Panel
}

func (b *bus) String() string {
	return "emulator.Bus"
}

func (b *bus) Tx(w, r []byte) error {
	if len(r) != 0 {
		return errors.New("emulator: reads are not supported")
	}
	return b.p.tx(w)
}

func (b *bus) Duplex() conn.Duplex {
	return conn.Half
}

func (b *bus) MaxTxSize() int {
	return b.p.opts.MaxTxSize
}

// pin is an emulated control line.
type pin struct {
	p    *Panel
	name string
	num  int
}

func (pn *pin) String() string {
	return "emulator." + pn.name
}

func (pn *pin) Halt() error {
	return nil
}

func (pn *pin) Name() string {
	return pn.name
}

func (pn *pin) Number() int {
	return pn.num
}

func (pn *pin) Function() string {
	return "Out"
}

func (pn *pin) Out(l gpio.Level) error {
	pn.p.out(pn, l)
	return nil
}

func (pn *pin) PWM(duty gpio.Duty, f physic.Frequency) error {
	return errors.New("emulator: PWM is not supported")
}

var _ conn.Conn = &bus{}
var _ conn.Limits = &bus{}
var _ gpio.PinOut = &pin{}
