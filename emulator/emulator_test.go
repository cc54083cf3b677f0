package emulator

import (
	"bytes"
	"image"
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/flavioheleno/st7735"
	"github.com/flavioheleno/st7735/rgb565"
	"github.com/maruel/ansi256"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
)

func newDev(t *testing.T, p *Panel, opts st7735.Opts) *st7735.Dev {
	t.Helper()
	opts.Delay = func(time.Duration) {}
	dev, err := st7735.New(p.Conn(), p.DC(), p.RST(), &opts)
	require.NoError(t, err)
	require.NoError(t, dev.Init())
	return dev
}

func quiet() logrus.FieldLogger {
	l, _ := test.NewNullLogger()
	return l
}

func assertFilled(t *testing.T, img *rgb565.Image, r image.Rectangle, want rgb565.Color) {
	t.Helper()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if got := img.RGB565At(x, y); got != want {
				t.Fatalf("pixel (%d, %d) = %#04x, want %#04x", x, y, got, want)
			}
		}
	}
}

func TestInitSequence(t *testing.T) {
	p := New(&Opts{Logger: quiet()})
	assert.False(t, p.Ready())

	newDev(t, p, st7735.Opts{W: 128, H: 160})

	assert.Equal(t, 1, p.Resets())
	assert.True(t, p.Ready())
	assert.Equal(t, byte(0x00), p.MADCTL())

	var ops []st7735.Instruction
	for _, c := range p.Commands() {
		ops = append(ops, c.Op)
	}
	assert.Equal(t, []st7735.Instruction{
		st7735.SWRESET, st7735.SLPOUT,
		st7735.FRMCTR1, st7735.FRMCTR2, st7735.FRMCTR3, st7735.INVCTR,
		st7735.PWCTR1, st7735.PWCTR2, st7735.PWCTR3, st7735.PWCTR4, st7735.PWCTR5,
		st7735.VMCTR1, st7735.INVOFF, st7735.MADCTL, st7735.COLMOD, st7735.DISPON,
	}, ops)
}

func TestClearLandscape(t *testing.T) {
	p := New(&Opts{Logger: quiet()})
	dev := newDev(t, p, st7735.Opts{W: 160, H: 128})
	require.NoError(t, dev.SetOrientation(st7735.Landscape))
	assert.Equal(t, byte(0x60), p.MADCTL())

	require.NoError(t, dev.Clear(rgb565.Red))

	bounds := image.Rect(0, 0, 160, 128)
	assertFilled(t, p.Image(bounds), bounds, rgb565.Red)

	cmds := p.Commands()
	last := cmds[len(cmds)-1]
	assert.Equal(t, st7735.RAMWR, last.Op)
	assert.Equal(t, 160*128, last.Pixels)
	xs, ys, xe, ye := p.Window()
	assert.Equal(t, [4]uint16{0, 0, 159, 127}, [4]uint16{xs, ys, xe, ye})
}

func TestSetPixelOffset(t *testing.T) {
	p := New(&Opts{Logger: quiet()})
	dev := newDev(t, p, st7735.Opts{W: 80, H: 160})
	dev.SetOffset(26, 1)

	require.NoError(t, dev.SetPixel(0, 0, rgb565.Green))
	require.NoError(t, dev.SetPixel(79, 159, rgb565.Blue))

	img := p.Image(image.Rect(26, 1, 26+80, 1+160))
	assert.Equal(t, rgb565.Green, img.RGB565At(26, 1))
	assert.Equal(t, rgb565.Blue, img.RGB565At(105, 160))
	assert.Equal(t, rgb565.Black, img.RGB565At(27, 1))
}

func TestWindowWraps(t *testing.T) {
	p := New(&Opts{Logger: quiet()})
	dev := newDev(t, p, st7735.Opts{W: 128, H: 160})

	colors := []rgb565.Color{rgb565.Red, rgb565.Green, rgb565.Blue, rgb565.White, rgb565.Cyan, rgb565.Magenta}
	require.NoError(t, dev.SetPixels(10, 10, 11, 11, colors))

	img := p.Image(image.Rect(10, 10, 12, 12))
	assert.Equal(t, rgb565.Cyan, img.RGB565At(10, 10))
	assert.Equal(t, rgb565.Magenta, img.RGB565At(11, 10))
	assert.Equal(t, rgb565.Blue, img.RGB565At(10, 11))
	assert.Equal(t, rgb565.White, img.RGB565At(11, 11))
}

func TestColorOrder(t *testing.T) {
	tests := []struct {
		name      string
		panelBGR  bool
		driverBGR bool
		want      rgb565.Color
	}{
		{"rgb panel, rgb driver", false, false, rgb565.Red},
		{"bgr panel, bgr driver", true, true, rgb565.Red},
		{"bgr panel, rgb driver", true, false, rgb565.Blue},
		{"rgb panel, bgr driver", false, true, rgb565.Blue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(&Opts{BGR: tt.panelBGR, Logger: quiet()})
			dev := newDev(t, p, st7735.Opts{W: 128, H: 160, BGR: tt.driverBGR})
			require.NoError(t, dev.SetOrientation(st7735.PortraitSwapped))

			require.NoError(t, dev.SetPixel(5, 5, rgb565.Red))
			assert.Equal(t, tt.want, p.Image(image.Rect(0, 0, 128, 160)).RGB565At(5, 5))
		})
	}
}

func TestInversion(t *testing.T) {
	tests := []struct {
		name                string
		panelInv, driverInv bool
		want                rgb565.Color
	}{
		{"normal panel", false, false, rgb565.Yellow},
		{"ips panel with INVON", true, true, rgb565.Yellow},
		{"ips panel without INVON", true, false, rgb565.Blue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(&Opts{Inverted: tt.panelInv, Logger: quiet()})
			dev := newDev(t, p, st7735.Opts{W: 128, H: 160, Inverted: tt.driverInv})

			require.NoError(t, dev.SetPixel(0, 0, rgb565.Yellow))
			assert.Equal(t, tt.want, p.Image(image.Rect(0, 0, 1, 1)).RGB565At(0, 0))
		})
	}
}

func TestDisplayOff(t *testing.T) {
	p := New(&Opts{Logger: quiet()})
	dev := newDev(t, p, st7735.Opts{W: 128, H: 160})
	require.NoError(t, dev.Clear(rgb565.White))
	require.NoError(t, dev.Halt())

	assert.False(t, p.Ready())
	assertFilled(t, p.Image(image.Rect(0, 0, 128, 160)), image.Rect(0, 0, 128, 160), rgb565.Black)
}

func TestOddChunks(t *testing.T) {
	p := New(&Opts{MaxTxSize: 7, Logger: quiet()})
	dev := newDev(t, p, st7735.Opts{W: 16, H: 8})

	src := rgb565.NewImage(dev.Bounds())
	for y := 0; y < 8; y++ {
		for x := 0; x < 16; x++ {
			src.SetRGB565(x, y, rgb565.Color(y<<8|x))
		}
	}
	require.NoError(t, dev.Draw(dev.Bounds(), src, image.Point{}))

	got := p.Image(dev.Bounds())
	assert.Equal(t, src.Pix, got.Pix)
}

func TestRender(t *testing.T) {
	p := New(&Opts{Logger: quiet()})
	dev := newDev(t, p, st7735.Opts{W: 4, H: 3})
	require.NoError(t, dev.Clear(rgb565.Red))

	var buf bytes.Buffer
	require.NoError(t, p.Render(&buf, dev.Bounds()))

	out := buf.String()
	assert.Equal(t, 3, strings.Count(out, "\n"))
	r, g, b := rgb565.Red.Components()
	assert.Equal(t, 12, strings.Count(out, ansi256.Default.Block(color.NRGBA{R: r, G: g, B: b, A: 0xFF})))
}

func TestRawBus(t *testing.T) {
	hooked, hook := test.NewNullLogger()
	hooked.SetLevel(logrus.DebugLevel)
	p := New(&Opts{Logger: hooked})

	require.NoError(t, p.DC().Out(gpio.High))
	assert.Error(t, p.Conn().Tx([]byte{0x00}, nil), "data before any command")
	assert.Error(t, p.Conn().Tx([]byte{0x00}, make([]byte, 1)), "reads")

	require.NoError(t, p.DC().Out(gpio.Low))
	require.NoError(t, p.Conn().Tx([]byte{0x77}, nil))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)

	require.NoError(t, p.Conn().Tx([]byte{byte(st7735.CASET)}, nil))
	require.NoError(t, p.DC().Out(gpio.High))
	require.NoError(t, p.Conn().Tx([]byte{0x00, 0x02}, nil))
	require.NoError(t, p.Conn().Tx([]byte{0x00, 0x05}, nil))
	xs, _, xe, _ := p.Window()
	assert.Equal(t, uint16(2), xs)
	assert.Equal(t, uint16(5), xe)

	cmds := p.Commands()
	require.Len(t, cmds, 2)
	assert.Equal(t, "CASET [00 02 00 05]", cmds[1].String())
	assert.Equal(t, logrus.DebugLevel, hook.LastEntry().Level)
}

func TestHeldInReset(t *testing.T) {
	p := New(&Opts{Logger: quiet()})
	require.NoError(t, p.RST().Out(gpio.Low))
	require.NoError(t, p.DC().Out(gpio.Low))
	require.NoError(t, p.Conn().Tx([]byte{byte(st7735.DISPON)}, nil))
	assert.Empty(t, p.Commands())

	require.NoError(t, p.RST().Out(gpio.High))
	assert.Equal(t, 1, p.Resets())
	assert.Error(t, p.DC().(*pin).PWM(gpio.DutyHalf, 0))
}
