package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [options] chapter...\n\n", filepath.Base(os.Args[0]))
	fmt.Fprintf(os.Stderr, "Chapters are image directories or zip/cbz, rar/cbr, 7z/cb7 archives.\n")
	fmt.Fprintf(os.Stderr, "A directory of archives or subdirectories is read as a chapter sequence.\n\nOptions:\n")
	flag.PrintDefaults()
}

func main() {
	fullscreen := flag.Bool("fullscreen", false, "start in fullscreen")
	scaling := flag.String("scaling", "", "scaling mode: screen, width, height or original")
	crop := flag.Bool("crop", false, "crop white page borders")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	result := loadConfig()
	config := result.Config
	for _, warning := range result.Warnings {
		log.Printf("Warning: %s", warning)
	}

	if *fullscreen {
		config.Fullscreen = true
	}
	if *scaling != "" {
		if _, ok := ParseScalingMode(*scaling); !ok {
			log.Fatalf("Error: unknown scaling mode %q", *scaling)
		}
		config.Scaling = *scaling
	}
	if *crop {
		config.CropBorders = true
	}

	if err := InitGraphics(); err != nil {
		log.Fatalf("Error: Failed to initialize graphics: %v", err)
	}

	chapters, err := CollectChapters(args, config.SortMethod)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	debugLog("collected %d chapters", len(chapters))

	reader := NewReader(chapters, config.CacheSize, config.SurfaceOptions())
	defer reader.Stop()

	game := NewGame(config, reader, PageRef{})

	ebiten.SetWindowSize(config.WindowWidth, config.WindowHeight)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowTitle("kanvas")
	ebiten.SetScreenClearedEveryFrame(false)
	if config.Fullscreen {
		ebiten.SetFullscreen(true)
	}

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}

	saved := game.Config()
	if !saved.Fullscreen {
		saved.WindowWidth, saved.WindowHeight = ebiten.WindowSize()
	}
	saveConfig(saved)
}
