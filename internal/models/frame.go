package models

import (
	"image"
	"iter"

	"morphoseg/pkg/raster"
)

// Frame represents a single image of a sequence with metadata
type Frame struct {
	// Image is the decoded image data
	Image image.Image

	// Raster holds the pixel values fed to the engines
	Raster *raster.Raster

	// Index is the position of this frame in the sequence
	Index int

	// Filename is the original filename of the frame
	Filename string
}

// Rasters yields the rasters of frames in order
func Rasters(frames []*Frame) iter.Seq[*raster.Raster] {
	return func(yield func(*raster.Raster) bool) {
		for _, f := range frames {
			if !yield(f.Raster) {
				return
			}
		}
	}
}
