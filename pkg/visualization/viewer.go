package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"morphoseg/pkg/raster"
)

type renderMode int

const (
	renderLabels renderMode = iota
	renderMask
	renderRGB
)

// Viewer renders the XY planes of a raster as images. Labels are drawn
// with one colour per basin and the watershed line in black; absent pixels
// are transparent.
type Viewer struct {
	// data holds the raster being rendered
	data *raster.Raster

	mode renderMode
}

// NewViewer creates a viewer for a label raster
func NewViewer(labels *raster.Raster) *Viewer {
	return &Viewer{data: labels}
}

// NewMaskViewer creates a viewer for a boolean raster such as a change
// mask or a watershed line
func NewMaskViewer(mask *raster.Raster) *Viewer {
	return &Viewer{data: mask, mode: renderMask}
}

// NewRGBViewer creates a viewer drawing bands 0, 1 and 2 as the red, green
// and blue channels, clamped to 0..255
func NewRGBViewer(r *raster.Raster) (*Viewer, error) {
	if r.Bands() != 3 {
		return nil, fmt.Errorf("RGB rendering needs 3 bands, raster has %d", r.Bands())
	}
	return &Viewer{data: r, mode: renderRGB}, nil
}

// LabelColor returns the colour of a label. Label 0 is black; other labels
// get a stable, bright colour derived from the label value.
func LabelColor(label int) color.RGBA {
	if label == 0 {
		return color.RGBA{A: 255}
	}
	h := uint32(label) * 2654435761
	return color.RGBA{
		R: byte(h>>24) | 0x40,
		G: byte(h>>16) | 0x40,
		B: byte(h>>8) | 0x40,
		A: 255,
	}
}

// ExtractPlane renders the XY plane at depth z and time t
func (v *Viewer) ExtractPlane(z, t int) (image.Image, error) {
	size := v.data.Size()
	if z < 0 || z >= size[raster.Z] {
		return nil, fmt.Errorf("depth %d outside 0..%d", z, size[raster.Z]-1)
	}
	if t < 0 || t >= size[raster.T] {
		return nil, fmt.Errorf("time %d outside 0..%d", t, size[raster.T]-1)
	}

	img := image.NewRGBA(image.Rect(0, 0, v.data.Width(), v.data.Height()))
	for y := 0; y < v.data.Height(); y++ {
		for x := 0; x < v.data.Width(); x++ {
			i := v.data.Index(raster.Point{X: x, Y: y, Z: z, T: t})
			if !v.data.PresentAt(i) {
				continue
			}
			value := v.data.At(i, 0)
			switch v.mode {
			case renderMask:
				if value != 0 {
					img.SetRGBA(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
				} else {
					img.SetRGBA(x, y, color.RGBA{A: 255})
				}
			case renderRGB:
				img.SetRGBA(x, y, color.RGBA{
					R: channel(value),
					G: channel(v.data.At(i, 1)),
					B: channel(v.data.At(i, 2)),
					A: 255,
				})
			default:
				img.SetRGBA(x, y, LabelColor(int(value)))
			}
		}
	}

	return img, nil
}

func channel(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(v))))
}

// SavePlane saves a rendered plane as a PNG image
func (v *Viewer) SavePlane(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return png.Encode(file, img)
}

// SavePlaneSequence renders and saves every XY plane of the raster to
// outputDir as <prefix>_<z>.png, adding _t<t> when the raster has more than
// one time step
func (v *Viewer) SavePlaneSequence(outputDir, prefix string) error {
	if prefix == "" {
		return fmt.Errorf("empty file prefix")
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	size := v.data.Size()
	for t := 0; t < size[raster.T]; t++ {
		for z := 0; z < size[raster.Z]; z++ {
			img, err := v.ExtractPlane(z, t)
			if err != nil {
				return err
			}

			name := fmt.Sprintf("%s_%03d.png", prefix, z)
			if size[raster.T] > 1 {
				name = fmt.Sprintf("%s_%03d_t%03d.png", prefix, z, t)
			}
			if err := v.SavePlane(img, filepath.Join(outputDir, name)); err != nil {
				return err
			}
		}
	}

	return nil
}
