package models

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"morphoseg/pkg/raster"
)

// LoadFrames reads every JPEG and PNG image in dir as one frame of a
// sequence, ordered by the number embedded in the file name. Colour images
// become 3-band rasters when rgb is set, grey rasters otherwise. All frames
// must share their dimensions.
func LoadFrames(dir string, rgb bool) ([]*Frame, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var imageFiles []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".jpg", ".jpeg", ".png":
			imageFiles = append(imageFiles, entry.Name())
		}
	}

	if len(imageFiles) == 0 {
		return nil, fmt.Errorf("no JPG or PNG images found in %s", dir)
	}

	// Order by the frame number; ties fall back to the name so the
	// order is stable
	sort.Slice(imageFiles, func(i, j int) bool {
		numI, numJ := extractNumber(imageFiles[i]), extractNumber(imageFiles[j])
		if numI != numJ {
			return numI < numJ
		}
		return imageFiles[i] < imageFiles[j]
	})

	frames := make([]*Frame, 0, len(imageFiles))
	for i, filename := range imageFiles {
		frame, err := LoadFrame(filepath.Join(dir, filename), rgb)
		if err != nil {
			return nil, err
		}
		frame.Index = i

		if i > 0 && frame.Raster.Size() != frames[0].Raster.Size() {
			return nil, fmt.Errorf("frame %s is %v, first frame is %v: %w",
				filename, frame.Raster.Size(), frames[0].Raster.Size(), raster.ErrSizeMismatch)
		}
		frames = append(frames, frame)
	}

	return frames, nil
}

// LoadFrame decodes a single image file into a frame
func LoadFrame(path string, rgb bool) (*Frame, error) {
	img, err := loadImage(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load image %s: %w", filepath.Base(path), err)
	}

	convert := raster.FromImage
	if rgb {
		convert = raster.FromImageRGB
	}
	r, err := convert(img)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image %s: %w", filepath.Base(path), err)
	}

	return &Frame{Image: img, Raster: r, Filename: filepath.Base(path)}, nil
}

// extractNumber returns the digits of the base name as an integer, or 0
// when there are none
func extractNumber(filename string) int {
	base := filepath.Base(filename)
	var numStr strings.Builder
	for _, c := range base {
		if c >= '0' && c <= '9' {
			numStr.WriteRune(c)
		}
	}

	if numStr.Len() > 0 {
		num, err := strconv.Atoi(numStr.String())
		if err == nil {
			return num
		}
	}
	return 0
}

func loadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, err
	}

	return img, nil
}
