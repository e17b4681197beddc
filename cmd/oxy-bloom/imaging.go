package main

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/Carmen-Shannon/oxy-bloom/engine/postprocess"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/software"
	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/draw"
)

// sheetColumns is the number of panels per contact sheet row.
const sheetColumns = 2

// sheetBackground fills panels that could not be read back.
var sheetBackground = color.NRGBA{R: 255, G: 0, B: 255, A: 255}

// panel is one labeled image of the contact sheet.
type panel struct {
	name string
	img  image.Image
}

// tonemapped converts a linear HDR image to 8-bit with the composite curve.
//
// Parameters:
//   - img: linear radiance
//   - exposure: exposure scale
//
// Returns:
//   - *image.NRGBA: the display image
func tonemapped(img *software.Image, exposure float32) *image.NRGBA {
	return img.Map(func(c mgl32.Vec4) mgl32.Vec4 {
		return postprocess.Tonemap(c.Vec3(), exposure).Vec4(1)
	}).ToNRGBA()
}

// scaled resizes img by factor. A factor of 1, or one that would produce an empty
// image, returns img unchanged.
func scaled(img image.Image, factor float64) image.Image {
	b := img.Bounds()
	w, h := int(float64(b.Dx())*factor), int(float64(b.Dy())*factor)
	if factor == 1 || w <= 0 || h <= 0 {
		return img
	}
	return transform.Resize(img, w, h, transform.Linear)
}

// contactSheet lays the panels out left to right, top to bottom, each scaled into a
// cellWidth x cellHeight cell. Missing panels are filled with sheetBackground.
//
// Parameters:
//   - panels: the images in order
//   - cellWidth: width of one cell in pixels
//   - cellHeight: height of one cell in pixels
//
// Returns:
//   - *image.NRGBA: the sheet
func contactSheet(panels []panel, cellWidth, cellHeight int) *image.NRGBA {
	rows := (len(panels) + sheetColumns - 1) / sheetColumns
	sheet := image.NewNRGBA(image.Rect(0, 0, cellWidth*sheetColumns, cellHeight*rows))
	for i, p := range panels {
		x, y := (i%sheetColumns)*cellWidth, (i/sheetColumns)*cellHeight
		cell := image.Rect(x, y, x+cellWidth, y+cellHeight)
		if p.img == nil {
			draw.Draw(sheet, cell, &image.Uniform{C: sheetBackground}, image.Point{}, draw.Src)
			continue
		}
		draw.CatmullRom.Scale(sheet, cell, p.img, p.img.Bounds(), draw.Src, nil)
	}
	return sheet
}

// savePNG writes img to path, creating the directory when needed.
func savePNG(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := imgio.Save(path, img, imgio.PNGEncoder()); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
