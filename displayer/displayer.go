// Package displayer adapts an st7735.Dev to the TinyGo drivers.Displayer
// interface so tinyfont, tinydraw and friends can draw on it.
//
// Pixels are buffered in memory and sent to the panel by Display.
package displayer

import (
	"errors"
	"image"
	"image/color"

	"github.com/flavioheleno/st7735"
	"github.com/flavioheleno/st7735/rgb565"
	"tinygo.org/x/drivers"
)

// Display buffers drawing operations for a Dev.
type Display struct {
	dev   *st7735.Dev
	fb    *rgb565.Image
	dirty image.Rectangle
}

// New returns a Display drawing on dev. dev must be initialized before
// Display is called.
func New(dev *st7735.Dev) *Display {
	return &Display{
		dev: dev,
		fb:  rgb565.NewImage(dev.Bounds()),
	}
}

// Size implements drivers.Displayer.
func (d *Display) Size() (x, y int16) {
	w, h := d.dev.Size()
	return int16(w), int16(h)
}

// SetPixel implements drivers.Displayer. Pixels outside the display are
// ignored.
func (d *Display) SetPixel(x, y int16, c color.RGBA) {
	p := image.Pt(int(x), int(y))
	if !p.In(d.fb.Rect) {
		return
	}
	d.fb.SetRGB565(p.X, p.Y, rgb565.New(c.R, c.G, c.B))
	d.dirty = d.dirty.Union(image.Rectangle{Min: p, Max: p.Add(image.Pt(1, 1))})
}

// FillRectangle fills the given rectangle, clipped to the display.
func (d *Display) FillRectangle(x, y, width, height int16, c color.RGBA) error {
	if width < 0 || height < 0 {
		return errors.New("displayer: negative rectangle size")
	}
	r := image.Rect(int(x), int(y), int(x)+int(width), int(y)+int(height)).Intersect(d.fb.Rect)
	if r.Empty() {
		return nil
	}
	col := rgb565.New(c.R, c.G, c.B)
	for py := r.Min.Y; py < r.Max.Y; py++ {
		for px := r.Min.X; px < r.Max.X; px++ {
			d.fb.SetRGB565(px, py, col)
		}
	}
	d.dirty = d.dirty.Union(r)
	return nil
}

// FillScreen fills the whole display with c.
func (d *Display) FillScreen(c color.RGBA) {
	d.fb.Fill(rgb565.New(c.R, c.G, c.B))
	d.dirty = d.fb.Rect
}

// Rotation returns the current rotation.
func (d *Display) Rotation() drivers.Rotation {
	switch d.dev.Orientation() {
	case st7735.Landscape:
		return drivers.Rotation90
	case st7735.PortraitSwapped:
		return drivers.Rotation180
	case st7735.LandscapeSwapped:
		return drivers.Rotation270
	default:
		return drivers.Rotation0
	}
}

// SetRotation changes the panel orientation. The whole buffer is sent by the
// next Display.
func (d *Display) SetRotation(rotation drivers.Rotation) error {
	var o st7735.Orientation
	switch rotation % 4 {
	case drivers.Rotation0:
		o = st7735.Portrait
	case drivers.Rotation90:
		o = st7735.Landscape
	case drivers.Rotation180:
		o = st7735.PortraitSwapped
	case drivers.Rotation270:
		o = st7735.LandscapeSwapped
	}
	if err := d.dev.SetOrientation(o); err != nil {
		return err
	}
	d.dirty = d.fb.Rect
	return nil
}

// Display implements drivers.Displayer. It sends the pixels changed since
// the last call.
func (d *Display) Display() error {
	if d.dirty.Empty() {
		return nil
	}
	if err := d.dev.Draw(d.dirty, d.fb, d.dirty.Min); err != nil {
		return err
	}
	d.dirty = image.Rectangle{}
	return nil
}

var _ drivers.Displayer = &Display{}
