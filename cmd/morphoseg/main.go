package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"morphoseg/internal/models"
	"morphoseg/internal/monitoring"
	"morphoseg/pkg/config"
	"morphoseg/pkg/morph"
	"morphoseg/pkg/ordering"
	"morphoseg/pkg/predictive"
	"morphoseg/pkg/raster"
	"morphoseg/pkg/reconstruction"
	"morphoseg/pkg/structel"
	"morphoseg/pkg/visualization"
	"morphoseg/pkg/watershed"
)

func main() {
	// Parse command line arguments
	mode := flag.String("mode", "sequence", "Operation: flood, sequence or reconstruct")
	inputDir := flag.String("input", "", "Directory containing the frames (flood, sequence)")
	markerPath := flag.String("marker", "", "Marker image (reconstruct)")
	maskPath := flag.String("mask", "", "Mask image (reconstruct)")
	orderName := flag.String("ordering", "", "Reconstruct RGB images under this vector ordering: lex or norm")
	configPath := flag.String("config", "morphoseg.yaml", "Configuration file")
	outputDir := flag.String("output", "", "Output directory (overrides the configuration)")
	writeConfig := flag.String("write-config", "", "Write a default configuration file to this path and exit")
	flag.Parse()

	if *writeConfig != "" {
		if err := config.CreateDefaultConfigFile(*writeConfig); err != nil {
			log.Fatalf("Failed to write configuration: %v", err)
		}
		fmt.Printf("Default configuration written to: %s\n", *writeConfig)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}
	if !cfg.Output.Verbose {
		monitoring.SetLogger(nil)
	}

	fmt.Println("================================")
	fmt.Println("MORPHOLOGICAL SEGMENTATION: RECONSTRUCTION AND WATERSHED")
	fmt.Println("================================")

	startTime := time.Now()
	switch *mode {
	case "flood":
		requireFlag(*inputDir)
		err = runFlood(cfg, *inputDir)
	case "sequence":
		requireFlag(*inputDir)
		err = runSequence(cfg, *inputDir)
	case "reconstruct":
		requireFlag(*markerPath)
		requireFlag(*maskPath)
		err = runReconstruct(cfg, *markerPath, *maskPath, *orderName)
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}
	if err != nil {
		log.Fatalf("%s failed: %v", *mode, err)
	}

	fmt.Printf("\nCompleted in %.2f seconds. Results saved to: %s\n", time.Since(startTime).Seconds(), cfg.Output.Dir)
}

func requireFlag(value string) {
	if value == "" {
		flag.Usage()
		os.Exit(1)
	}
}

// runFlood floods every frame on its own.
func runFlood(cfg *config.Config, inputDir string) error {
	se, err := cfg.GradientElement()
	if err != nil {
		return err
	}
	flooder, err := watershed.NewFlooder(structel.Connectivity(cfg.Segmentation.Connectivity))
	if err != nil {
		return err
	}
	frames, err := loadSmoothed(cfg, inputDir)
	if err != nil {
		return err
	}

	fmt.Printf("Flooding %d frames independently...\n", len(frames))
	for _, frame := range frames {
		gradient, err := morph.Gradient(frame.Raster, se, nil)
		if err != nil {
			return err
		}
		labels, err := flooder.Flood(gradient)
		if err != nil {
			return fmt.Errorf("%s: %w", frame.Filename, err)
		}
		if err := saveResult(cfg, frame.Index, labels, nil); err != nil {
			return err
		}
		s := watershed.Summarize(labels)
		fmt.Printf("- %s: %d basins, %d watershed pixels\n", frame.Filename, s.Basins, s.WatershedPixels)
	}
	return nil
}

// runSequence floods the frames as a sequence, reusing unchanged regions.
func runSequence(cfg *config.Config, inputDir string) error {
	params, err := cfg.PredictiveParams()
	if err != nil {
		return err
	}
	tracker, err := cfg.Tracker()
	if err != nil {
		return err
	}
	frames, err := loadSmoothed(cfg, inputDir)
	if err != nil {
		return err
	}

	fmt.Printf("Flooding a sequence of %d frames (blocks of %d, threshold %.1f)...\n",
		len(frames), params.BlockSize, params.BlockThreshold)
	changed, total := 0, 0
	var previous *raster.Raster
	for res, err := range predictive.FloodSequence(models.Rasters(frames), params) {
		if err != nil {
			return err
		}
		if err := saveResult(cfg, res.Index, res.Labels, res.Changed); err != nil {
			return err
		}
		changed += res.Blocks.Changed
		total += res.Blocks.Total

		if previous != nil {
			matches, err := tracker.Match(previous, res.Labels)
			if err != nil {
				return err
			}
			fmt.Printf("- frame %d: %d basins, %d followed from frame %d\n",
				res.Index, watershed.Summarize(res.Labels).Basins, len(matches), res.Index-1)
		}
		previous = res.Labels
	}

	if total > 0 {
		fmt.Printf("Reflooded %d of %d blocks (%.1f%%)\n", changed, total, 100*float64(changed)/float64(total))
	}
	return nil
}

// loadSmoothed loads the frames of inputDir and applies the configured
// low-pass filter.
func loadSmoothed(cfg *config.Config, inputDir string) ([]*models.Frame, error) {
	smoother, err := cfg.Smoother()
	if err != nil {
		return nil, err
	}
	frames, err := models.LoadFrames(inputDir, false)
	if err != nil {
		return nil, err
	}
	if smoother.Sigma > 0 {
		fmt.Printf("Smoothing %d frames (sigma %.1f)...\n", len(frames), smoother.Sigma)
		for _, frame := range frames {
			frame.Raster = smoother.Smooth(frame.Raster)
		}
	}
	return frames, nil
}

func saveResult(cfg *config.Config, index int, labels, changed *raster.Raster) error {
	prefix := fmt.Sprintf("frame_%03d", index)
	if err := visualization.NewViewer(labels).SavePlaneSequence(cfg.Output.Dir, prefix+"_labels"); err != nil {
		return err
	}
	if cfg.Output.SaveBoundaries {
		line := watershed.Boundaries(labels)
		if err := visualization.NewMaskViewer(line).SavePlaneSequence(cfg.Output.Dir, prefix+"_boundaries"); err != nil {
			return err
		}
	}
	if cfg.Output.SaveChangeMasks && changed != nil {
		if err := visualization.NewMaskViewer(changed).SavePlaneSequence(cfg.Output.Dir, prefix+"_changed"); err != nil {
			return err
		}
	}
	return nil
}

// runReconstruct reconstructs a marker image under a mask image. Without an
// ordering the images are thresholded at zero and reconstructed as binary
// masks; with one, as RGB vectors.
func runReconstruct(cfg *config.Config, markerPath, maskPath, orderName string) error {
	rec, err := reconstruction.NewReconstructor(&reconstruction.Params{
		Connectivity: structel.Connectivity(cfg.Segmentation.Connectivity),
	})
	if err != nil {
		return err
	}

	rgb := orderName != ""
	marker, err := models.LoadFrame(markerPath, rgb)
	if err != nil {
		return err
	}
	mask, err := models.LoadFrame(maskPath, rgb)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
		return err
	}
	outPath := filepath.Join(cfg.Output.Dir, "reconstruction.png")

	if !rgb {
		result, err := rec.Binary(binarize(marker.Raster), binarize(mask.Raster))
		if err != nil {
			return err
		}
		fmt.Printf("Reconstructed %d of %d mask pixels\n", result.Count(0), binarize(mask.Raster).Count(0))
		viewer := visualization.NewMaskViewer(result)
		img, err := viewer.ExtractPlane(0, 0)
		if err != nil {
			return err
		}
		return viewer.SavePlane(img, outPath)
	}

	var ord ordering.Ordering
	switch orderName {
	case "lex":
		ord = ordering.Lexicographic{}
	case "norm":
		ord = ordering.Norm{}
	default:
		return fmt.Errorf("unknown ordering %q (must be lex or norm)", orderName)
	}
	result, err := rec.Vector(marker.Raster, mask.Raster, ord)
	if err != nil {
		return err
	}
	viewer, err := visualization.NewRGBViewer(result)
	if err != nil {
		return err
	}
	img, err := viewer.ExtractPlane(0, 0)
	if err != nil {
		return err
	}
	return viewer.SavePlane(img, outPath)
}

func binarize(r *raster.Raster) *raster.Raster {
	out, _ := raster.NewLike(r, raster.Bool, 1)
	for i := 0; i < r.Len(); i++ {
		out.SetAt(i, 0, r.At(i, 0))
	}
	return out
}
