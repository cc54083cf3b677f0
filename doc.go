// Package st7735 controls a ST7735 TFT LCD display via SPI.
//
// The ST7735 is a 262K color TFT controller with 132×162 pixels of display
// RAM. This driver uses its 16 bits per pixel (RGB565) mode and implements
// the display.Drawer interface from periph.io.
//
// # Display Characteristics
//
// - 16-bit RGB565 color, big-endian on the wire
// - Common panels: 128×160 (1.8"), 80×160 (0.96"), 128×128 (1.44")
// - Four orientations selected through the memory access control register
// - RGB or BGR color filter
// - Display inversion, needed by most IPS panels
//
// # Hardware Connection
//
// Connect the ST7735 display to your system via SPI:
//
//	Display Pin → System Pin
//	GND         → GND
//	VCC         → 3.3V
//	SCL/SCK     → SPI Clock (SCLK)
//	SDA/MOSI    → SPI Data (MOSI)
//	CS          → SPI Chip Select
//	DC/A0       → GPIO (any available pin)
//	RES/RST     → GPIO (any available pin)
//	BL/LED      → 3.3V or a PWM capable GPIO
//
// The controller is write-only in this driver; MISO is not used.
//
// # Basic Usage
//
//	package main
//
//	import (
//		"image"
//
//		"github.com/flavioheleno/st7735"
//		"github.com/flavioheleno/st7735/rgb565"
//		"periph.io/x/conn/v3/gpio/gpioreg"
//		"periph.io/x/conn/v3/spi/spireg"
//		"periph.io/x/host/v3"
//	)
//
//	func main() {
//		host.Init()
//		p, _ := spireg.Open("")
//		defer p.Close()
//
//		dev, _ := st7735.NewSPI(p, gpioreg.ByName("GPIO24"), gpioreg.ByName("GPIO25"), &st7735.Opts{
//			W: 160,
//			H: 128,
//		})
//		dev.Init()
//		dev.SetOrientation(st7735.Landscape)
//		defer dev.Halt()
//
//		dev.Clear(rgb565.Black)
//		dev.SetPixel(10, 10, rgb565.Red)
//		dev.SetColor(20, 20, 59, 39, rgb565.Blue)
//
//		img := rgb565.NewImage(dev.Bounds())
//		// ... draw on img ...
//		dev.Draw(dev.Bounds(), img, image.Point{})
//	}
//
// # Size, Orientation and Offset
//
// Opts.W and Opts.H are the logical size of the panel as seen after
// SetOrientation, and Bounds always returns them: when using Landscape on a
// 128×160 panel, pass W: 160, H: 128.
//
// Smaller panels are not mounted at the origin of the controller RAM. The
// 0.96" 80×160 module for example needs SetOffset(26, 1) in Portrait. The
// offset is added to every address the driver sends.
//
// # Drawing Modes
//
// SetPixel, SetPixels, WritePixels and SetColor write straight to the
// controller. They are the cheapest way to fill areas or update a few pixels.
//
// Draw keeps a copy of the last frame and only sends the bounding rectangle
// of what changed. A full frame *rgb565.Image is streamed without
// conversion.
//
// # Emulation
//
// Package emulator provides a Panel implementing the bus and both control
// lines, so code using this driver can be developed and tested without
// hardware. Package displayer adapts a Dev to the TinyGo drivers.Displayer
// interface for use with tinyfont.
//
// # Datasheet
//
// https://www.displayfuture.com/Display/datasheet/controller/ST7735.pdf
package st7735
