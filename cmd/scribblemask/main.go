package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"scribblemask/pkg/config"
	"scribblemask/pkg/projection"
	"scribblemask/pkg/session"
	"scribblemask/pkg/visualization"
)

func main() {
	// Parse command line arguments
	imagePath := flag.String("image", "", "TIFF file or directory of slice images to annotate")
	scriptPath := flag.String("script", "", "YAML file of view operations and drag gestures to replay")
	maskPath := flag.String("mask", "", "Output mask filename (default: <image>-mask.tif)")
	configPath := flag.String("config", "scribblemask.yaml", "Configuration file")
	snapshotPath := flag.String("snapshot", "", "Save the final view with scribbles as PNG or JPEG")
	maskSlicesDir := flag.String("mask-slices", "", "Directory to save every mask slice as PNG")
	writeConfig := flag.Bool("write-config", false, "Write the default configuration to -config and exit")
	flag.Parse()

	if *writeConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	// Validate inputs
	if *imagePath == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	fmt.Println("================================")
	fmt.Println("SCRIBBLE MASK: FREEHAND ANNOTATION OF IMAGE STACKS")
	fmt.Println("================================")

	sess := session.New(cfg)
	if err := sess.Load(*imagePath); err != nil {
		log.Fatalf("Failed to load image: %v", err)
	}
	vol := sess.Volume()
	fmt.Printf("Volume: %d frames, %d slices, %dx%d pixels\n", vol.Frames, vol.Slices, vol.Width, vol.Height)

	if *scriptPath != "" {
		script, err := LoadScript(*scriptPath)
		if err != nil {
			log.Fatalf("Failed to load script: %v", err)
		}
		script.Replay(sess)
		fmt.Printf("Replayed %d steps, %d scribbles committed\n", len(script.Steps), len(sess.Scribbles()))
	}

	if *maskPath != "" {
		sess.SetMaskDestination(*maskPath)
	}
	saved, err := sess.Save()
	if err != nil {
		log.Fatalf("Failed to save mask: %v", err)
	}
	fmt.Printf("Mask saved to: %s\n", saved)

	if *maskSlicesDir != "" {
		m, err := sess.Mask()
		if err != nil {
			log.Fatalf("Failed to build mask: %v", err)
		}
		if err := visualization.SaveMaskSequence(m, *maskSlicesDir); err != nil {
			log.Printf("Warning: Failed to save mask slices: %v", err)
		} else {
			fmt.Printf("Mask slices saved to: %s\n", *maskSlicesDir)
		}
	}

	if *snapshotPath != "" {
		raster, err := sess.Display()
		if errors.Is(err, projection.ErrDegenerateRange) {
			log.Printf("Warning: %v, showing neutral gray", err)
		} else if err != nil {
			log.Fatalf("Failed to render view: %v", err)
		}
		viewer := visualization.NewViewer(raster, sess.View().Scale)
		img := viewer.Compose(sess.VisibleScribbles(), sess.CurrentStroke())
		if err := visualization.SaveSnapshot(img, *snapshotPath); err != nil {
			log.Printf("Warning: Failed to save snapshot: %v", err)
		} else {
			fmt.Printf("Snapshot saved to: %s\n", *snapshotPath)
		}
	}
}
