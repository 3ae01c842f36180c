package main

import (
	"log"
	"os"
)

var debugEnabled = os.Getenv("KANVAS_DEBUG") != ""

// debugLog logs verbose diagnostics when KANVAS_DEBUG is set
func debugLog(format string, args ...any) {
	if !debugEnabled {
		return
	}
	log.Printf("Debug: "+format, args...)
}
