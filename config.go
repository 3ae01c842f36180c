package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Window size constants
const (
	defaultWidth  = 800
	defaultHeight = 600
	minWidth      = 400
	minHeight     = 300
)

// Sort method constants
const (
	SortNatural    = 0 // Natural sort order (e.g., page1, page2, page10)
	SortSimple     = 1 // Simple string sort (lexicographical)
	SortEntryOrder = 2 // Maintain archive entry order (no sort)
)

// getDefaultKeybindings returns the default keybinding configuration
func getDefaultKeybindings() map[string][]string {
	return GetDefaultKeybindings()
}

// validateKeybindings validates the keybindings configuration
func validateKeybindings(keybindings map[string][]string) error {
	// Check for valid key formats and detect conflicts
	keyToAction := make(map[string]string)
	validKeys := getValidKeyNames()

	for action, keys := range keybindings {
		for _, keyStr := range keys {
			// Validate key format
			if err := validateKeyString(keyStr, validKeys); err != nil {
				return fmt.Errorf("invalid key '%s' for action '%s': %v", keyStr, action, err)
			}

			// Check for conflicts
			if existingAction, exists := keyToAction[keyStr]; exists {
				return fmt.Errorf("key conflict: '%s' is bound to both '%s' and '%s'", keyStr, existingAction, action)
			}
			keyToAction[keyStr] = action
		}
	}

	return nil
}

// validateKeyString validates a single key string format
func validateKeyString(keyStr string, validKeys map[string]bool) error {
	parts := strings.Split(keyStr, "+")
	if len(parts) == 0 {
		return fmt.Errorf("empty key string")
	}

	// Last part should be the actual key
	keyName := parts[len(parts)-1]
	if !validKeys[keyName] {
		return fmt.Errorf("unknown key: %s", keyName)
	}

	// Check modifiers
	for i := 0; i < len(parts)-1; i++ {
		modifier := strings.ToLower(parts[i])
		if modifier != "shift" && modifier != "ctrl" && modifier != "alt" {
			return fmt.Errorf("unknown modifier: %s", parts[i])
		}
	}

	return nil
}

// getValidKeyNames returns a set of valid key names
func getValidKeyNames() map[string]bool {
	valid := make(map[string]bool)
	for name := range getKeyMapping() {
		valid[name] = true
	}
	return valid
}

// ConfigLoadResult contains the result of loading configuration
type ConfigLoadResult struct {
	Config   Config
	HasError bool
	Warnings []string
	Status   string // "OK", "Warning", "Error"
}

type Config struct {
	WindowWidth        int                 `json:"window_width"`
	WindowHeight       int                 `json:"window_height"`
	Fullscreen         bool                `json:"fullscreen"`
	Scaling            string              `json:"scaling"`
	CropBorders        bool                `json:"crop_borders"`
	LandscapeZoom      bool                `json:"landscape_zoom"`
	StaticAnimation    bool                `json:"static_animation"`
	SortMethod         int                 `json:"sort_method"`
	CacheSize          int                 `json:"cache_size"`
	OfflimitResistance float64             `json:"offlimit_resistance"`
	DoubleClickMS      int                 `json:"double_click_ms"`
	InfoFontSize       float64             `json:"info_font_size"`
	Keybindings        map[string][]string `json:"keybindings"`
}

// SurfaceOptions derives the per-page surface settings from the config.
func (c Config) SurfaceOptions() SurfaceOptions {
	scaling, _ := ParseScalingMode(c.Scaling)
	return SurfaceOptions{
		Scaling:           scaling,
		Crop:              c.CropBorders,
		LandscapeZoom:     c.LandscapeZoom,
		CanZoom:           true,
		StaticAnimation:   c.StaticAnimation,
		DoubleClickWindow: time.Duration(c.DoubleClickMS) * time.Millisecond,
	}
}

func getConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "kanvas.json"
	}
	return filepath.Join(homeDir, ".kanvas.json")
}

func loadConfig() ConfigLoadResult {
	return loadConfigFromPath(getConfigPath())
}

func loadConfigFromPath(configPath string) ConfigLoadResult {
	config := Config{
		WindowWidth:        defaultWidth,
		WindowHeight:       defaultHeight,
		Fullscreen:         false,                   // Default to windowed mode
		Scaling:            "width",                 // Default to width fit for vertical reading
		CropBorders:        false,                   // Default: keep white page borders
		LandscapeZoom:      false,                   // Default: no landscape override
		StaticAnimation:    false,                   // Default: play animated pages
		SortMethod:         SortNatural,             // Default to natural sort
		CacheSize:          16,                      // Default cache size for raw page bytes
		OfflimitResistance: 0,                       // 0 means one screen height
		DoubleClickMS:      300,                     // Default double click window
		InfoFontSize:       24.0,                    // Default info overlay font size
		Keybindings:        getDefaultKeybindings(), // Default keybindings
	}

	result := ConfigLoadResult{
		Config:   config,
		HasError: false,
		Warnings: []string{},
		Status:   "OK",
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		// Config file not found is not an error - use defaults
		result.Status = "Default"
		return result
	}

	if err := json.Unmarshal(data, &config); err != nil {
		// Invalid config file - log warning and use defaults
		log.Printf("Warning: Invalid config file %s, using defaults: %v", configPath, err)
		result.HasError = true
		result.Status = "Error"
		result.Warnings = append(result.Warnings, fmt.Sprintf("Invalid config file: %v", err))
		// Keep default config values
		return result
	}

	// Validate minimum size
	if config.WindowWidth < minWidth {
		config.WindowWidth = defaultWidth
	}
	if config.WindowHeight < minHeight {
		config.WindowHeight = defaultHeight
	}

	// Validate scaling mode
	if _, ok := ParseScalingMode(config.Scaling); !ok {
		log.Printf("Warning: Unknown scaling mode %q, using width", config.Scaling)
		result.Status = "Warning"
		result.Warnings = append(result.Warnings, fmt.Sprintf("Unknown scaling mode: %q", config.Scaling))
		config.Scaling = "width"
	}

	// Validate sort method
	if config.SortMethod < SortNatural || config.SortMethod > SortEntryOrder {
		config.SortMethod = SortNatural
	}

	// Validate cache size (minimum 1, maximum 64)
	if config.CacheSize < 1 {
		config.CacheSize = 16
	} else if config.CacheSize > 64 {
		config.CacheSize = 64
	}

	// Validate offlimit resistance (0 means one screen height)
	if config.OfflimitResistance < 0 {
		config.OfflimitResistance = 0
	}

	// Validate double click window (minimum 100ms, maximum 1000ms)
	if config.DoubleClickMS < 100 {
		config.DoubleClickMS = 300
	} else if config.DoubleClickMS > 1000 {
		config.DoubleClickMS = 1000
	}

	// Validate info font size (minimum 12px for readability)
	if config.InfoFontSize <= 12.0 {
		config.InfoFontSize = 24.0
	}

	// Validate keybindings - ensure defaults exist for missing actions
	if config.Keybindings == nil {
		config.Keybindings = getDefaultKeybindings()
	} else {
		// Fill in missing keybindings with defaults
		defaults := getDefaultKeybindings()
		for action, defaultKeys := range defaults {
			if _, exists := config.Keybindings[action]; !exists {
				config.Keybindings[action] = defaultKeys
			}
		}

		// Validate keybindings and resolve conflicts
		if err := validateKeybindings(config.Keybindings); err != nil {
			log.Printf("Warning: Invalid keybindings detected, using defaults: %v", err)
			config.Keybindings = getDefaultKeybindings()
			result.Status = "Warning"
			result.Warnings = append(result.Warnings, fmt.Sprintf("Keybinding errors: %v", err))
		}
	}

	// Update the result with the final config
	result.Config = config
	return result
}

// getSortMethodName returns the human-readable name of a sort method
func getSortMethodName(sortMethod int) string {
	strategy := GetSortStrategy(sortMethod)
	return strategy.Name()
}

func saveConfig(config Config) {
	saveConfigToPath(config, getConfigPath())
}

func saveConfigToPath(config Config, configPath string) {
	// Don't save if size is too small
	if config.WindowWidth < minWidth || config.WindowHeight < minHeight {
		log.Printf("Warning: Not saving config with invalid window size: %dx%d",
			config.WindowWidth, config.WindowHeight)
		return
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		log.Printf("Error: Failed to marshal config: %v", err)
		return
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		log.Printf("Error: Failed to save config to %s: %v", configPath, err)
	}
}
