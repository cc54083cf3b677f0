// Package rgb565 provides the 16-bit color format used by the ST7735 display
// controller.
//
// The controller's 16 bits per pixel mode (COLMOD 0x05) packs a pixel as
// 5 bits of red, 6 bits of green and 5 bits of blue:
//
//	bit  15 14 13 12 11 10  9  8  7  6  5  4  3  2  1  0
//	     R4 R3 R2 R1 R0 G5 G4 G3 G2 G1 G0 B4 B3 B2 B1 B0
//
// Pixels travel on the wire most significant byte first. Image keeps its
// pixels in that exact layout so a full frame can be streamed to the
// controller without conversion.
//
// This package provides:
//
// - Color: a 5-6-5 color value
// - Model: a color model converting standard Go colors to Color
// - Image: an image.Image implementation holding big-endian 5-6-5 pixels
//
// Example usage:
//
//	img := rgb565.NewImage(image.Rect(0, 0, 160, 128))
//	img.SetRGB565(10, 20, rgb565.Red)
//	c := img.RGB565At(10, 20) // rgb565.Red
//	draw.Draw(img, img.Bounds(), image.NewUniform(rgb565.Blue), image.Point{}, draw.Src)
package rgb565
